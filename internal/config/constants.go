package config

import "time"

// Timeout constants
const (
	// GeneratorRequestTimeout bounds a single content generator call. The
	// original client used a 30s HTTP timeout; quest generation falls back to
	// static definitions when this elapses.
	GeneratorRequestTimeout = 30 * time.Second

	// ServerShutdownTimeout bounds graceful HTTP server shutdown.
	ServerShutdownTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of a pooled connection.
	DatabaseConnMaxLifetime = 5 * time.Minute
)

// Server defaults
const (
	DefaultServerPort   = "8080"
	DefaultServiceName  = "quest-engine"
	DefaultMaxOpenConns = 25
	DefaultMaxIdleConns = 5
)

// Streak rules. The streak survives gaps of up to MaxStreakBreakDays calendar
// days; longer gaps reset it to 1.
const (
	MaxStreakBreakDays = 7
	WeeklyStreakBonus  = 5
)

// SpecialStreakMilestones maps exact streak lengths to one-time gem bonuses.
var SpecialStreakMilestones = map[int]int{
	3:   15,
	10:  30,
	50:  100,
	365: 1000,
}

// ProgressUpdateMaxRetries bounds optimistic-concurrency retries when applying
// activity events to quest links.
const ProgressUpdateMaxRetries = 3

// Category/level pools for generated category-focus quests.
var (
	DefaultFocusCategories = []string{"grammar", "listening"}
	DefaultFocusLevels     = []string{"basic", "advanced"}
)
