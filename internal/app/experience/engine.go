// Package experience implements the award engine: the single entry
// point that turns a user action into experience points, enforcing
// daily caps and game thresholds, persisting the derived level
// fields, and reporting level-ups.
package experience

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/inschoolz/engine/internal/app/level"
	"github.com/inschoolz/engine/internal/app/limits"
	"github.com/inschoolz/engine/internal/app/settings"
	"github.com/inschoolz/engine/internal/domain"
	"github.com/inschoolz/engine/internal/infra/leaderboard"
	"github.com/inschoolz/engine/internal/infra/metrics"
	"github.com/inschoolz/engine/internal/infra/sqlite"
)

// Engine grants experience. Expected outcomes (cap reached, score
// below threshold) come back as structured results; missing user
// documents and store failures come back as errors.
type Engine struct {
	db       *sqlite.DB
	settings *settings.Cache
	limits   *limits.Tracker
	boards   *leaderboard.Cache // optional mirror, may be nil

	// Injectable clock for testing.
	now func() time.Time
}

// NewEngine creates an award engine.
func NewEngine(db *sqlite.DB, sc *settings.Cache, tr *limits.Tracker) *Engine {
	return &Engine{db: db, settings: sc, limits: tr, now: time.Now}
}

// SetBoards attaches the optional Redis leaderboard mirror.
func (e *Engine) SetBoards(b *leaderboard.Cache) { e.boards = b }

// SetClock overrides the engine's clock. Test hook.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// AwardOptions carry the per-activity extras of an award request.
type AwardOptions struct {
	// Amount overrides the configured reward for attendance, and is
	// the verbatim amount for activity types the engine does not
	// recognize.
	Amount int64
	// GameType and GameScore drive threshold resolution for
	// domain.ActivityGame.
	GameType  domain.GameType
	GameScore int
}

// Award grants experience for one action.
//
// Posts and comments pay the configured reward and count against
// their daily caps. Likes, attendance, streak bonuses and referrals
// pay the configured reward with no cap. Games resolve the reward
// from the game's threshold table and count against the game cap.
// Anything else pays opts.Amount verbatim, uncapped.
func (e *Engine) Award(ctx context.Context, userID string, activity domain.ActivityType, opts AwardOptions) (domain.AwardResult, error) {
	// The engine always wants current reward rates: drop the cached
	// settings so concurrent admin edits are picked up.
	e.settings.Invalidate()
	s := e.settings.Get()

	var amount int64
	var bump *sqlite.CounterBump
	gameType := domain.GameType("")

	switch activity {
	case domain.ActivityPost:
		amount = s.Experience.PostReward
		bump = &sqlite.CounterBump{Category: domain.CategoryPosts}
	case domain.ActivityComment:
		amount = s.Experience.CommentReward
		bump = &sqlite.CounterBump{Category: domain.CategoryComments}
	case domain.ActivityLike:
		amount = s.Experience.LikeReward
	case domain.ActivityAttendance:
		amount = s.Experience.AttendanceReward
		if opts.Amount > 0 {
			amount = opts.Amount
		}
	case domain.ActivityAttendanceStreak:
		amount = s.Experience.AttendanceStreakReward
	case domain.ActivityReferral:
		amount = s.Experience.ReferralReward
	case domain.ActivityGame:
		gs, ok := s.Games[opts.GameType]
		if opts.GameType == "" || !ok {
			metrics.AwardsDenied.WithLabelValues("game_type_required").Inc()
			return domain.AwardResult{Success: false, Reason: "game type required"}, nil
		}
		amount = domain.RewardForScore(opts.GameType, gs, opts.GameScore)
		if amount == 0 {
			metrics.AwardsDenied.WithLabelValues("below_threshold").Inc()
			return domain.AwardResult{Success: false, Reason: "score below threshold"}, nil
		}
		gameType = opts.GameType
		bump = &sqlite.CounterBump{Category: domain.CategoryGames, Game: opts.GameType}
	default:
		// Generic activity: caller-supplied amount, uncapped.
		amount = opts.Amount
	}

	if amount <= 0 {
		return domain.AwardResult{Success: false, Reason: "no experience to award"}, nil
	}

	if bump != nil {
		st, err := e.limits.Check(userID, bump.Category, bump.Game)
		if err != nil {
			return domain.AwardResult{}, err
		}
		if !st.CanEarnExp {
			metrics.AwardsDenied.WithLabelValues("daily_limit").Inc()
			return domain.AwardResult{
				Success: false,
				Reason:  fmt.Sprintf("daily limit reached (%d/%d)", st.CurrentCount, st.Limit),
			}, nil
		}
	}

	return e.grant(ctx, userID, activity, gameType, amount, bump)
}

// GrantGameReward persists a game reward the adapter has already
// gated. The play counter is the adapter's responsibility, so the
// commit carries no counter bump here.
func (e *Engine) GrantGameReward(ctx context.Context, userID string, game domain.GameType, amount int64) (domain.AwardResult, error) {
	return e.grant(ctx, userID, domain.ActivityGame, game, amount, nil)
}

// Progress returns a user's record together with their derived level
// progress.
func (e *Engine) Progress(userID string) (domain.UserRecord, level.Progress, error) {
	u, err := e.db.GetUser(userID)
	if err != nil {
		return domain.UserRecord{}, level.Progress{}, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return domain.UserRecord{}, level.Progress{}, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	return *u, level.ProgressFor(u.TotalExperience), nil
}

// History returns a user's recent ledger entries.
func (e *Engine) History(userID string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return e.db.HistoryFor(userID, limit)
}

// grant commits one award: experience patch, ledger entry, and the
// optional counter bump, in a single transaction.
func (e *Engine) grant(ctx context.Context, userID string, activity domain.ActivityType, game domain.GameType, amount int64, bump *sqlite.CounterBump) (domain.AwardResult, error) {
	u, err := e.db.GetUser(userID)
	if err != nil {
		return domain.AwardResult{}, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return domain.AwardResult{}, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}

	oldLevel := u.Level
	now := e.now()
	newTotal := u.TotalExperience + amount
	p := level.ProgressFor(newTotal)

	patch := domain.ExperiencePatch{
		TotalExperience:        newTotal,
		Level:                  p.Level,
		CurrentExp:             p.CurrentExp,
		CurrentLevelRequiredXP: p.CurrentLevelRequiredXP,
		UpdatedAt:              now,
	}
	entry := domain.HistoryEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Activity:  activity,
		GameType:  game,
		Amount:    amount,
		CreatedAt: now,
	}

	if err := e.db.CommitAward(userID, patch, entry, bump); err != nil {
		return domain.AwardResult{}, fmt.Errorf("commit award: %w", err)
	}

	metrics.AwardsGranted.WithLabelValues(string(activity)).Inc()
	metrics.ExperienceGranted.WithLabelValues(string(activity)).Add(float64(amount))
	if p.Level > oldLevel {
		metrics.LevelUps.Inc()
	}

	// Mirror the new total into the leaderboard cache. Best-effort:
	// the SQL totals stay authoritative.
	if e.boards != nil {
		mirrored := *u
		mirrored.TotalExperience = newTotal
		if err := e.boards.Update(ctx, mirrored); err != nil {
			log.WithError(err).WithField("user", userID).
				Warn("leaderboard mirror update failed")
		}
	}

	log.WithFields(log.Fields{
		"user":     userID,
		"activity": activity,
		"amount":   amount,
		"level":    p.Level,
	}).Debug("experience granted")

	return domain.AwardResult{
		Success:    true,
		ExpAwarded: amount,
		LeveledUp:  p.Level > oldLevel,
		OldLevel:   oldLevel,
		NewLevel:   p.Level,
	}, nil
}
