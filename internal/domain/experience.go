// Package domain holds the core types of the Inschoolz progression
// engine: experience records, activity categories, daily limits,
// game outcomes, and rankings.
package domain

import "time"

// ─── Activity Types ─────────────────────────────────────────────────────────

// ActivityType categorizes how experience was earned.
type ActivityType string

const (
	ActivityPost             ActivityType = "post"
	ActivityComment          ActivityType = "comment"
	ActivityLike             ActivityType = "like"
	ActivityAttendance       ActivityType = "attendance"
	ActivityAttendanceStreak ActivityType = "attendanceStreak"
	ActivityReferral         ActivityType = "referral"
	ActivityGame             ActivityType = "game"
)

// GameType identifies a mini-game.
type GameType string

const (
	// GameReaction is the reaction-speed game; the score is elapsed
	// milliseconds, lower is better.
	GameReaction GameType = "reactionGame"
	// GameTile is the tile-matching game; the score is a move count,
	// lower is better.
	GameTile GameType = "tileGame"
	// GameFlappy is the flappy-bird style game; the score is points,
	// higher is better, rewarded at a flat rate.
	GameFlappy GameType = "flappyBird"
)

// KnownGameTypes lists every game the engine tracks counters for.
func KnownGameTypes() []GameType {
	return []GameType{GameReaction, GameTile, GameFlappy}
}

// IsKnown reports whether g is a recognized game type.
func (g GameType) IsKnown() bool {
	switch g {
	case GameReaction, GameTile, GameFlappy:
		return true
	}
	return false
}

// LowerIsBetter reports the comparison sense for the game's best
// metric: elapsed time and move counts improve downward, flappy
// points improve upward.
func (g GameType) LowerIsBetter() bool {
	return g != GameFlappy
}

// LimitCategory is a daily-limit bucket.
type LimitCategory string

const (
	CategoryPosts    LimitCategory = "posts"
	CategoryComments LimitCategory = "comments"
	CategoryGames    LimitCategory = "games"
)

// ─── User Records ───────────────────────────────────────────────────────────

// UserRecord is the slice of the user document the engine reads and
// writes. TotalExperience is the single source of truth; Level,
// CurrentExp and CurrentLevelRequiredXP are derived from it and must
// never be authored directly.
type UserRecord struct {
	ID              string `json:"id"`
	DisplayName     string `json:"display_name"`
	SchoolID        string `json:"school_id,omitempty"`
	SchoolName      string `json:"school_name,omitempty"`
	RegionID        string `json:"region_id,omitempty"`
	RegionName      string `json:"region_name,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`

	TotalExperience        int64     `json:"total_experience"`
	Level                  int       `json:"level"`
	CurrentExp             int64     `json:"current_exp"`
	CurrentLevelRequiredXP int64     `json:"current_level_required_xp"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// ExperiencePatch names exactly the fields an award mutates. Applying
// it updates only these fields, leaving sibling fields untouched.
type ExperiencePatch struct {
	TotalExperience        int64
	Level                  int
	CurrentExp             int64
	CurrentLevelRequiredXP int64
	UpdatedAt              time.Time
}

// ─── Daily Limits ───────────────────────────────────────────────────────────

// ActivityLimits is a user's per-day action counters. Counts are only
// meaningful while LastResetDate equals today's KST calendar day; a
// stale date means every count is logically zero.
type ActivityLimits struct {
	UserID        string           `json:"user_id"`
	LastResetDate string           `json:"last_reset_date"` // YYYY-MM-DD in KST
	Posts         int              `json:"posts"`
	Comments      int              `json:"comments"`
	GameCounts    map[GameType]int `json:"game_counts"`
}

// GamesTotal sums the per-game counters.
func (a ActivityLimits) GamesTotal() int {
	total := 0
	for _, n := range a.GameCounts {
		total += n
	}
	return total
}

// LimitStatus is the outcome of a daily-limit check.
type LimitStatus struct {
	CanEarnExp   bool      `json:"can_earn_exp"`
	CurrentCount int       `json:"current_count"`
	Limit        int       `json:"limit"`
	ResetTime    time.Time `json:"reset_time"` // next midnight KST, in UTC
}

// ─── Results ────────────────────────────────────────────────────────────────

// AwardResult reports an award attempt. Denials (daily cap, score
// below threshold) are expected outcomes and come back here, not as
// errors.
type AwardResult struct {
	Success    bool   `json:"success"`
	ExpAwarded int64  `json:"exp_awarded"`
	LeveledUp  bool   `json:"leveled_up"`
	OldLevel   int    `json:"old_level,omitempty"`
	NewLevel   int    `json:"new_level,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// GameResult reports a recorded game score.
type GameResult struct {
	Success   bool   `json:"success"`
	ExpEarned int64  `json:"exp_earned"`
	LeveledUp bool   `json:"leveled_up"`
	OldLevel  int    `json:"old_level,omitempty"`
	NewLevel  int    `json:"new_level,omitempty"`
	NewBest   bool   `json:"new_best"`
	Message   string `json:"message,omitempty"`
}

// ─── XP History ─────────────────────────────────────────────────────────────

// HistoryEntry is one row of the append-only experience ledger.
type HistoryEntry struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Activity  ActivityType `json:"activity"`
	GameType  GameType     `json:"game_type,omitempty"`
	Amount    int64        `json:"amount"`
	CreatedAt time.Time    `json:"created_at"`
}

// ─── Rankings ───────────────────────────────────────────────────────────────

// RankScope is the population a leaderboard query is restricted to.
type RankScope string

const (
	ScopeGlobal RankScope = "global"
	ScopeSchool RankScope = "school"
	ScopeRegion RankScope = "region"
)

// IsValid reports whether the scope is one of the three known scopes.
func (s RankScope) IsValid() bool {
	return s == ScopeGlobal || s == ScopeSchool || s == ScopeRegion
}

// RankedUser is one leaderboard row. Rank is assigned by result
// position (1-based), never stored.
type RankedUser struct {
	Rank            int    `json:"rank"`
	UserID          string `json:"user_id"`
	DisplayName     string `json:"display_name"`
	Level           int    `json:"level"`
	TotalExperience int64  `json:"total_experience"`
	SchoolName      string `json:"school_name,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// RankSnapshot is a nightly capture of a leaderboard position.
type RankSnapshot struct {
	ID              int64     `json:"id"`
	Scope           RankScope `json:"scope"`
	ScopeKey        string    `json:"scope_key,omitempty"`
	UserID          string    `json:"user_id"`
	Rank            int       `json:"rank"`
	TotalExperience int64     `json:"total_experience"`
	SnappedAt       time.Time `json:"snapped_at"`
}
