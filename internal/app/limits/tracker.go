// Package limits gates reward-bearing actions against per-day caps.
// "Day" means the civil calendar day in Korea Standard Time (UTC+9,
// no DST), regardless of the server's local timezone. Counters reset
// lazily on first access after the day rolls over; every check
// re-derives freshness from the stored reset date, so a stale marker
// is never trusted.
package limits

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/inschoolz/engine/internal/app/settings"
	"github.com/inschoolz/engine/internal/domain"
	"github.com/inschoolz/engine/internal/infra/sqlite"
)

// KST is the fixed-offset Korea Standard Time zone.
var KST = time.FixedZone("KST", 9*60*60)

// DayString formats a moment as its KST calendar day, YYYY-MM-DD.
func DayString(t time.Time) string {
	return t.In(KST).Format("2006-01-02")
}

// NextResetUTC returns the next midnight KST after t, expressed in
// UTC (00:00 KST is 15:00 UTC of the previous day).
func NextResetUTC(t time.Time) time.Time {
	k := t.In(KST)
	next := time.Date(k.Year(), k.Month(), k.Day()+1, 0, 0, 0, 0, KST)
	return next.UTC()
}

// Tracker checks and maintains daily activity counters.
type Tracker struct {
	db       *sqlite.DB
	settings *settings.Cache

	// Injectable clock for testing.
	now func() time.Time
}

// NewTracker creates a limit tracker.
func NewTracker(db *sqlite.DB, sc *settings.Cache) *Tracker {
	return &Tracker{db: db, settings: sc, now: time.Now}
}

// SetClock overrides the tracker's clock. Test hook.
func (t *Tracker) SetClock(now func() time.Time) { t.now = now }

// Check reports whether the user may still earn capped XP today in
// the given category. A stale marker (missing row or old reset date)
// triggers the reset as a side effect and reports a zero count. For
// CategoryGames, a specific game reads that game's sub-counter only
// (an unrecognized game counts as zero); no game means the sum across
// all games.
func (t *Tracker) Check(userID string, cat domain.LimitCategory, game domain.GameType) (domain.LimitStatus, error) {
	now := t.now()
	today := DayString(now)
	limit := t.limitFor(cat, game)
	status := domain.LimitStatus{
		Limit:     limit,
		ResetTime: NextResetUTC(now),
	}

	al, err := t.db.GetActivityLimits(userID)
	if err != nil {
		return status, fmt.Errorf("load activity limits: %w", err)
	}

	if al == nil || al.LastResetDate != today {
		if err := t.Reset(userID, today); err != nil {
			return status, err
		}
		log.WithFields(log.Fields{"user": userID, "day": today}).
			Debug("daily counters reset")
		status.CanEarnExp = true
		status.CurrentCount = 0
		return status, nil
	}

	count := 0
	switch cat {
	case domain.CategoryPosts:
		count = al.Posts
	case domain.CategoryComments:
		count = al.Comments
	case domain.CategoryGames:
		if game != "" {
			count = al.GameCounts[game]
		} else {
			count = al.GamesTotal()
		}
	default:
		return status, fmt.Errorf("unknown limit category %q", cat)
	}

	status.CurrentCount = count
	status.CanEarnExp = count < limit
	return status, nil
}

// Reset stamps today's date and zeroes every counter in one update.
// Idempotent: repeating it within the same day changes nothing.
func (t *Tracker) Reset(userID, day string) error {
	if err := t.db.ResetDailyCounts(userID, day); err != nil {
		return fmt.Errorf("reset daily counts: %w", err)
	}
	return nil
}

// Increment bumps exactly one counter. It does not gate: callers
// check first and accept the narrow check-then-increment window.
func (t *Tracker) Increment(userID string, cat domain.LimitCategory, game domain.GameType) error {
	if err := t.db.IncrementDailyCount(userID, cat, game); err != nil {
		return fmt.Errorf("increment %s counter: %w", cat, err)
	}
	return nil
}

// limitFor resolves the configured cap for a category.
func (t *Tracker) limitFor(cat domain.LimitCategory, game domain.GameType) int {
	s := t.settings.Get()
	switch cat {
	case domain.CategoryPosts:
		return s.DailyLimits.PostsForReward
	case domain.CategoryComments:
		return s.DailyLimits.CommentsForReward
	case domain.CategoryGames:
		if game != "" {
			return s.GameDailyLimit(game)
		}
		return s.DailyLimits.GamePlayCount
	}
	return 0
}
