// Package metrics provides Prometheus metrics for the progression
// engine: award outcomes, experience granted, level-ups, game plays,
// and settings cache churn.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Awards ─────────────────────────────────────────────────────────────────

// AwardsGranted counts successful awards by activity.
var AwardsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "inschoolz",
	Name:      "awards_granted_total",
	Help:      "Total successful experience awards.",
}, []string{"activity"})

// AwardsDenied counts structured denials by reason.
var AwardsDenied = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "inschoolz",
	Name:      "awards_denied_total",
	Help:      "Total denied experience awards.",
}, []string{"reason"})

// ExperienceGranted sums XP handed out by activity.
var ExperienceGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "inschoolz",
	Name:      "experience_granted_total",
	Help:      "Total experience points granted.",
}, []string{"activity"})

// LevelUps counts level-up events.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "inschoolz",
	Name:      "level_ups_total",
	Help:      "Total level-up events.",
})

// ─── Games ──────────────────────────────────────────────────────────────────

// GamesPlayed counts recorded game scores by game type.
var GamesPlayed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "inschoolz",
	Name:      "games_played_total",
	Help:      "Total recorded game plays.",
}, []string{"game"})

// PersonalBests counts new personal-best events by game type.
var PersonalBests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "inschoolz",
	Name:      "personal_bests_total",
	Help:      "Total new personal bests.",
}, []string{"game"})

// ─── Settings ───────────────────────────────────────────────────────────────

// SettingsReloads counts settings cache misses (re-fetches from the
// store after an invalidation or cold start).
var SettingsReloads = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "inschoolz",
	Name:      "settings_reloads_total",
	Help:      "Total settings document reloads.",
})
