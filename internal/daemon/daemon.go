package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/inschoolz/engine/internal/api"
	"github.com/inschoolz/engine/internal/app/experience"
	"github.com/inschoolz/engine/internal/app/games"
	"github.com/inschoolz/engine/internal/app/limits"
	"github.com/inschoolz/engine/internal/app/ranking"
	"github.com/inschoolz/engine/internal/app/settings"
	"github.com/inschoolz/engine/internal/infra/leaderboard"
	_ "github.com/inschoolz/engine/internal/infra/metrics" // register Prometheus metrics
	"github.com/inschoolz/engine/internal/infra/sqlite"
	"github.com/inschoolz/engine/internal/jobs"
)

// Daemon is the engine runtime. It wires together all services.
type Daemon struct {
	Config   Config
	DB       *sqlite.DB
	Settings *settings.Cache
	Limits   *limits.Tracker
	Engine   *experience.Engine
	Games    *games.Adapter
	Rankings *ranking.Reader
	Boards   *leaderboard.Cache // nil when Redis is not configured
	Jobs     *jobs.Scheduler
	Server   *api.Server

	cancel context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	configureLogging(cfg.Logging)

	dir := cfg.Store.Dir
	if dir == "" {
		dir = engineHome()
	}
	db, err := sqlite.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sc := settings.NewCache(db)
	tr := limits.NewTracker(db, sc)
	eng := experience.NewEngine(db, sc, tr)
	ga := games.NewAdapter(db, sc, tr, eng)
	rd := ranking.NewReader(db)

	d := &Daemon{
		Config:   cfg,
		DB:       db,
		Settings: sc,
		Limits:   tr,
		Engine:   eng,
		Games:    ga,
		Rankings: rd,
	}

	if cfg.Redis.Addr != "" {
		boards := leaderboard.New(cfg.Redis.Addr)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := boards.Ping(ctx)
		cancel()
		if err != nil {
			log.WithError(err).Warn("redis unreachable, leaderboard mirror disabled")
			boards.Close()
		} else {
			d.Boards = boards
			eng.SetBoards(boards)
			rd.SetBoards(boards)
		}
	}

	if cfg.Jobs.Enabled {
		d.Jobs = jobs.NewScheduler(db, d.Boards, cfg.Jobs.SnapshotSize)
	}

	srv := api.NewServer(eng, ga, tr, rd, sc, db)
	if cfg.API.Metrics {
		srv.EnableMetrics()
	}
	d.Server = srv

	return d, nil
}

// Serve runs the HTTP server and scheduled jobs until the context is
// cancelled or a termination signal arrives.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if d.Jobs != nil {
		d.Jobs.Start()
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if d.Jobs != nil {
			d.Jobs.Stop()
		}
		_ = httpServer.Shutdown(shutdownCtx)
		d.Close()
	}()

	log.WithField("addr", addr).Info("inschoolz engine serving")
	if d.Config.API.Metrics {
		log.Infof("metrics: http://%s/metrics", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop triggers a graceful shutdown.
func (d *Daemon) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
}

// Close releases the daemon's resources.
func (d *Daemon) Close() {
	if d.Boards != nil {
		_ = d.Boards.Close()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

// configureLogging applies the logging config to logrus.
func configureLogging(cfg LoggingConfig) {
	lvl, err := log.ParseLevel(cfg.Level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
