// Package jobs runs the engine's scheduled maintenance: the nightly
// leaderboard snapshot and the Redis mirror rebuild, both on the KST
// calendar the daily limits follow.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/inschoolz/engine/internal/app/limits"
	"github.com/inschoolz/engine/internal/domain"
	"github.com/inschoolz/engine/internal/infra/leaderboard"
	"github.com/inschoolz/engine/internal/infra/sqlite"
)

// rebuildScan caps how many records the mirror rebuild reads.
const rebuildScan = 10000

// Scheduler owns the cron runner.
type Scheduler struct {
	db           *sqlite.DB
	boards       *leaderboard.Cache // may be nil
	snapshotSize int

	cron *cron.Cron
}

// NewScheduler creates the scheduler. Jobs run on KST wall time,
// shortly after the daily limit reset boundary.
func NewScheduler(db *sqlite.DB, boards *leaderboard.Cache, snapshotSize int) *Scheduler {
	if snapshotSize <= 0 {
		snapshotSize = 100
	}
	s := &Scheduler{
		db:           db,
		boards:       boards,
		snapshotSize: snapshotSize,
		cron:         cron.New(cron.WithLocation(limits.KST)),
	}

	// 00:05 KST, just past the limit rollover.
	s.cron.AddFunc("5 0 * * *", s.runNightly)
	return s
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunNightlyNow runs the nightly maintenance immediately. Used by the
// CLI and by tests.
func (s *Scheduler) RunNightlyNow() { s.runNightly() }

func (s *Scheduler) runNightly() {
	start := time.Now()
	if err := s.Snapshot(); err != nil {
		log.WithError(err).Error("leaderboard snapshot failed")
	}
	if err := s.RebuildMirror(context.Background()); err != nil {
		log.WithError(err).Error("leaderboard mirror rebuild failed")
	}
	log.WithField("elapsed", time.Since(start)).Info("nightly maintenance done")
}

// Snapshot captures the current global top-N into the snapshot table.
func (s *Scheduler) Snapshot() error {
	top, err := s.db.TopUsers(domain.ScopeGlobal, "", s.snapshotSize)
	if err != nil {
		return err
	}
	if len(top) == 0 {
		return nil
	}

	at := time.Now()
	snaps := make([]domain.RankSnapshot, 0, len(top))
	for i, u := range top {
		snaps = append(snaps, domain.RankSnapshot{
			Scope:           domain.ScopeGlobal,
			UserID:          u.ID,
			Rank:            i + 1,
			TotalExperience: u.TotalExperience,
			SnappedAt:       at,
		})
	}
	if err := s.db.InsertRankSnapshots(snaps); err != nil {
		return err
	}

	log.WithField("users", len(snaps)).Debug("leaderboard snapshot written")
	return nil
}

// RebuildMirror replaces every Redis board from the authoritative
// totals. A nil mirror is a no-op.
func (s *Scheduler) RebuildMirror(ctx context.Context) error {
	if s.boards == nil {
		return nil
	}
	users, err := s.db.TopUsers(domain.ScopeGlobal, "", rebuildScan)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return nil
	}
	return s.boards.Rebuild(ctx, users)
}
