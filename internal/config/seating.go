package config

import "time"

// SeatingConfig controls automatic seating runs.
type SeatingConfig struct {
	LockTTL        time.Duration // how long a per-event run lock lives without release
	RunTimeout     time.Duration // upper bound for one auto-seat request end to end
	LockPrefix     string
	EventsQueue    string // durable queue receiving SeatingAssignedEvent messages
	PublishEnabled bool
	ConsumeEnabled bool
	ConsumerLogDir string
}

// LoadSeatingConfig reads SEATING_* variables with sensible defaults.  The
// lock TTL is never shorter than the run timeout so a slow run cannot lose
// its lock halfway through.
func LoadSeatingConfig() SeatingConfig {
	c := SeatingConfig{
		LockTTL:        envDur("SEATING_LOCK_TTL", 30*time.Second),
		RunTimeout:     envDur("SEATING_RUN_TIMEOUT", 15*time.Second),
		LockPrefix:     envStr("SEATING_LOCK_PREFIX", "lock:seating"),
		EventsQueue:    envStr("SEATING_EVENTS_QUEUE", "seating.assigned"),
		PublishEnabled: envBool("SEATING_PUBLISH_ENABLED", true),
		ConsumeEnabled: envBool("SEATING_CONSUME_ENABLED", true),
		ConsumerLogDir: envStr("SEATING_LOG_DIR", "logs"),
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = 15 * time.Second
	}
	if c.LockTTL < c.RunTimeout {
		c.LockTTL = c.RunTimeout
	}
	return c
}
