// Package games translates raw mini-game outcomes into experience
// awards: it gates on the daily play count, maintains per-game
// personal bests, and resolves threshold rewards. A play that earns
// nothing still consumes the daily cap.
package games

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/inschoolz/engine/internal/app/experience"
	"github.com/inschoolz/engine/internal/app/limits"
	"github.com/inschoolz/engine/internal/app/settings"
	"github.com/inschoolz/engine/internal/domain"
	"github.com/inschoolz/engine/internal/infra/metrics"
	"github.com/inschoolz/engine/internal/infra/sqlite"
)

// Adapter records game scores.
type Adapter struct {
	db       *sqlite.DB
	settings *settings.Cache
	limits   *limits.Tracker
	engine   *experience.Engine

	now func() time.Time
}

// NewAdapter creates a game score adapter.
func NewAdapter(db *sqlite.DB, sc *settings.Cache, tr *limits.Tracker, eng *experience.Engine) *Adapter {
	return &Adapter{db: db, settings: sc, limits: tr, engine: eng, now: time.Now}
}

// SetClock overrides the adapter's clock. Test hook.
func (a *Adapter) SetClock(now func() time.Time) { a.now = now }

// RecordScore processes one finished game.
//
// The daily play limit is checked up front and a refusal mutates
// nothing. Past the gate, the play counter is incremented win or
// lose, the personal best is updated when the score beats it in the
// game's comparison sense, and any threshold reward is persisted
// without re-running the gate.
func (a *Adapter) RecordScore(ctx context.Context, userID string, game domain.GameType, score int) (domain.GameResult, error) {
	if !game.IsKnown() {
		return domain.GameResult{Success: false, Message: "unknown game type"}, nil
	}

	s := a.settings.Get()
	gs, ok := s.Games[game]
	if !ok || !gs.Enabled {
		return domain.GameResult{Success: false, Message: "game is disabled"}, nil
	}

	st, err := a.limits.Check(userID, domain.CategoryGames, game)
	if err != nil {
		return domain.GameResult{}, err
	}
	if !st.CanEarnExp {
		return domain.GameResult{
			Success: false,
			Message: fmt.Sprintf("daily play limit reached (%d/%d)", st.CurrentCount, st.Limit),
		}, nil
	}

	newBest, err := a.updateBest(userID, game, score)
	if err != nil {
		return domain.GameResult{}, err
	}

	// Count the play before reward resolution: plays below threshold
	// still consume the daily cap.
	if err := a.limits.Increment(userID, domain.CategoryGames, game); err != nil {
		return domain.GameResult{}, err
	}
	metrics.GamesPlayed.WithLabelValues(string(game)).Inc()

	result := domain.GameResult{Success: true, NewBest: newBest}

	reward := domain.RewardForScore(game, gs, score)
	if reward > 0 {
		award, err := a.engine.GrantGameReward(ctx, userID, game, reward)
		if err != nil {
			return domain.GameResult{}, err
		}
		result.ExpEarned = award.ExpAwarded
		result.LeveledUp = award.LeveledUp
		result.OldLevel = award.OldLevel
		result.NewLevel = award.NewLevel
	}

	result.Message = summarize(game, score, result)
	log.WithFields(log.Fields{
		"user":  userID,
		"game":  game,
		"score": score,
		"exp":   result.ExpEarned,
		"best":  newBest,
	}).Debug("game score recorded")

	return result, nil
}

// BestScore returns a user's recorded best metric for a game.
func (a *Adapter) BestScore(userID string, game domain.GameType) (int, bool, error) {
	return a.db.GetBestScore(userID, game)
}

// updateBest stores the score as the new personal best when it beats
// the recorded one in the game's comparison sense.
func (a *Adapter) updateBest(userID string, game domain.GameType, score int) (bool, error) {
	best, found, err := a.db.GetBestScore(userID, game)
	if err != nil {
		return false, fmt.Errorf("load best score: %w", err)
	}

	improved := !found
	if found {
		if game.LowerIsBetter() {
			improved = score < best
		} else {
			improved = score > best
		}
	}
	if !improved {
		return false, nil
	}

	if err := a.db.SetBestScore(userID, game, score, a.now().Unix()); err != nil {
		return false, fmt.Errorf("save best score: %w", err)
	}
	metrics.PersonalBests.WithLabelValues(string(game)).Inc()
	return true, nil
}

// summarize builds the user-facing result line.
func summarize(game domain.GameType, score int, r domain.GameResult) string {
	unit := "points"
	switch game {
	case domain.GameReaction:
		unit = "ms"
	case domain.GameTile:
		unit = "moves"
	}

	msg := fmt.Sprintf("%d %s", score, unit)
	if r.ExpEarned > 0 {
		msg += fmt.Sprintf(", +%d XP", r.ExpEarned)
	} else {
		msg += ", no reward"
	}
	if r.NewBest {
		msg += " (new personal best)"
	}
	if r.LeveledUp {
		msg += fmt.Sprintf(", level up to %d", r.NewLevel)
	}
	return msg
}
