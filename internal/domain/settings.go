package domain

import "sort"

// SystemSettings are the admin-tuned reward and limit parameters.
// The source of truth is a single settings document in the store;
// every field has a hardcoded default so a partially-populated
// document never breaks an award.
type SystemSettings struct {
	Experience  ExperienceSettings        `json:"experience"`
	DailyLimits DailyLimitSettings        `json:"daily_limits"`
	Games       map[GameType]GameSettings `json:"game_settings"`
}

// ExperienceSettings are the flat per-action reward amounts.
type ExperienceSettings struct {
	PostReward             int64 `json:"post_reward"`
	CommentReward          int64 `json:"comment_reward"`
	LikeReward             int64 `json:"like_reward"`
	AttendanceReward       int64 `json:"attendance_reward"`
	AttendanceStreakReward int64 `json:"attendance_streak_reward"`
	ReferralReward         int64 `json:"referral_reward"`
}

// DailyLimitSettings cap how many reward-bearing actions count per
// KST calendar day.
type DailyLimitSettings struct {
	PostsForReward    int `json:"posts_for_reward"`
	CommentsForReward int `json:"comments_for_reward"`
	GamePlayCount     int `json:"game_play_count"`
}

// GameSettings tune one mini-game.
type GameSettings struct {
	Enabled    bool        `json:"enabled"`
	DailyLimit int         `json:"daily_limit"`
	Thresholds []Threshold `json:"thresholds,omitempty"`
	FlatReward int64       `json:"flat_reward,omitempty"`
}

// Threshold is one (score boundary, reward) pair of a game's reward
// table. How MinScore is compared against an achieved score depends
// on the game family; see RewardForScore.
type Threshold struct {
	MinScore int   `json:"min_score"`
	XPReward int64 `json:"xp_reward"`
}

// DefaultSettings returns the baked-in fallbacks used whenever the
// settings document is absent, partial, or unreachable.
func DefaultSettings() SystemSettings {
	return SystemSettings{
		Experience: ExperienceSettings{
			PostReward:             10,
			CommentReward:          5,
			LikeReward:             1,
			AttendanceReward:       5,
			AttendanceStreakReward: 10,
			ReferralReward:         30,
		},
		DailyLimits: DailyLimitSettings{
			PostsForReward:    3,
			CommentsForReward: 5,
			GamePlayCount:     5,
		},
		Games: map[GameType]GameSettings{
			GameReaction: {
				Enabled:    true,
				DailyLimit: 5,
				Thresholds: []Threshold{
					{MinScore: 100, XPReward: 15},
					{MinScore: 200, XPReward: 10},
					{MinScore: 300, XPReward: 5},
				},
			},
			GameTile: {
				Enabled:    true,
				DailyLimit: 5,
				Thresholds: []Threshold{
					{MinScore: 7, XPReward: 15},
					{MinScore: 10, XPReward: 10},
					{MinScore: 13, XPReward: 5},
				},
			},
			GameFlappy: {
				Enabled:    true,
				DailyLimit: 5,
				FlatReward: 5,
			},
		},
	}
}

// GameDailyLimit resolves the play cap for a game: the game's own
// limit when configured, otherwise the shared game_play_count.
func (s SystemSettings) GameDailyLimit(game GameType) int {
	if gs, ok := s.Games[game]; ok && gs.DailyLimit > 0 {
		return gs.DailyLimit
	}
	return s.DailyLimits.GamePlayCount
}

// RewardForScore resolves the XP a game score earns.
//
// The two threshold families are searched in OPPOSITE directions and
// this asymmetry is load-bearing:
//
//   - Reaction-style scores are elapsed milliseconds. The table is
//     scanned ascending by MinScore and each boundary is a ceiling:
//     the first threshold with MinScore >= score wins, so a faster
//     time clears a stricter (smaller) ceiling and earns more.
//   - Tile-style scores are move counts. The table is scanned
//     descending by MinScore and each boundary is a floor: the first
//     threshold with MinScore <= score wins.
//
// Flat games ignore the table and pay FlatReward. A score matching no
// entry earns zero.
func RewardForScore(game GameType, gs GameSettings, score int) int64 {
	if len(gs.Thresholds) == 0 {
		return gs.FlatReward
	}

	switch game {
	case GameTile:
		for _, th := range sortedThresholds(gs.Thresholds, false) {
			if th.MinScore <= score {
				return th.XPReward
			}
		}
	default:
		for _, th := range sortedThresholds(gs.Thresholds, true) {
			if th.MinScore >= score {
				return th.XPReward
			}
		}
	}
	return 0
}

// sortedThresholds returns a copy of the table sorted by MinScore.
func sortedThresholds(in []Threshold, ascending bool) []Threshold {
	out := make([]Threshold, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool {
		if ascending {
			return out[i].MinScore < out[j].MinScore
		}
		return out[i].MinScore > out[j].MinScore
	})
	return out
}
