package service

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// throttleCapacity bounds the tracked connections; far above any realistic
// single-process session count.
const throttleCapacity = 4096

// Throttle is the per-connection cooldown gate for pull-style stats
// requests. It tracks the last honored request per connection id, separate
// from the session registry, and silently drops anything inside the
// cooldown window. Broadcasts triggered by the router are not throttled.
type Throttle struct {
	cooldown time.Duration
	honored  *expirable.LRU[uuid.UUID, time.Time]
	logger   *slog.Logger
}

func NewThrottle(cooldown time.Duration, logger *slog.Logger) *Throttle {
	return &Throttle{
		cooldown: cooldown,
		honored:  expirable.NewLRU[uuid.UUID, time.Time](throttleCapacity, nil, cooldown),
		logger:   logger,
	}
}

// Allow reports whether a request on this connection should be honored
// now. Denied requests produce a log line and nothing else: no error event
// reaches the client.
func (t *Throttle) Allow(connID uuid.UUID) bool {
	if last, ok := t.honored.Get(connID); ok && time.Since(last) < t.cooldown {
		t.logger.Debug("stats request throttled", "conn_id", connID, "since_last", time.Since(last))
		return false
	}
	t.honored.Add(connID, time.Now())
	return true
}
