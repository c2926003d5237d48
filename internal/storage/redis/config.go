package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// TTL settings. Snapshots mirror live rooms and expire quickly;
	// summaries of completed games stick around longer.
	SnapshotTTL time.Duration
	SummaryTTL  time.Duration

	// RecentSummaryLimit caps the recent-summaries index length
	RecentSummaryLimit int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:                "redis://localhost:6379",
		PoolSize:           10,
		MinIdleConns:       2,
		SnapshotTTL:        time.Hour,
		SummaryTTL:         7 * 24 * time.Hour,
		RecentSummaryLimit: 100,
	}
}
