package registry

import "time"

type hubConfig struct {
	sweepInterval time.Duration
	idleTimeout   time.Duration
}

// Option defines a functional configuration type for the Hub.
type Option func(*Hub)

// WithSweepInterval configures how often the [JANITOR] process runs
// to reclaim idle sessions.
func WithSweepInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.config.sweepInterval = d
		}
	}
}

// WithIdleTimeout defines the [QUIET_PERIOD] after which a session with no
// inbound activity is considered eligible for eviction.
func WithIdleTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.config.idleTimeout = d
		}
	}
}
