package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dairyroute/realtime-service/internal/domain/event"
	"github.com/dairyroute/realtime-service/internal/domain/model"
)

// sendTimeout bounds how long a broadcast may wait on one stalled session.
const sendTimeout = 500 * time.Millisecond

// Session binds a registry bookkeeping entry to its transport connector.
type Session struct {
	model.ConnectionSession

	conn Connector
}

// Deliver emits one event to this session only, e.g. error events and
// pull-request replies that must reach the originating connection alone.
func (s *Session) Deliver(ev event.Eventer) bool {
	return s.conn.Send(ev, sendTimeout)
}

// Hubber defines the gateway for session management and event routing.
type Hubber interface {
	Admit(conn Connector, p model.Principal) *Session
	Touch(connID uuid.UUID)
	Remove(connID uuid.UUID)
	FindByPrincipal(principalID string) (*Session, bool)
	Count() int
	Stats() model.HubStats
	BroadcastToPrincipal(principalID string, ev event.Eventer) bool
	BroadcastToAdmins(ev event.Eventer) int
	Shutdown()
}

// Interface guard
var _ Hubber = (*Hub)(nil)

// Hub is the single registry instance shared, via injection, by the
// websocket transport and the REST-side bridge. Guarded by one RWMutex:
// admit/touch/remove stay atomic with respect to the janitor sweep, which
// runs on its own goroutine.
type Hub struct {
	mu          sync.RWMutex
	byConn      map[uuid.UUID]*Session
	byPrincipal map[string]*Session

	config    hubConfig
	startedAt time.Time
	done      chan struct{}
	stopOnce  sync.Once
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		byConn:      make(map[uuid.UUID]*Session),
		byPrincipal: make(map[string]*Session),
		config: hubConfig{
			sweepInterval: 5 * time.Minute,
			idleTimeout:   30 * time.Minute,
		},
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	go h.janitor()
	return h
}

// Admit inserts a fresh session for an authenticated principal. Any prior
// session for the same principal is evicted first (last connection wins).
func (h *Hub) Admit(conn Connector, p model.Principal) *Session {
	now := time.Now()
	sess := &Session{
		ConnectionSession: model.ConnectionSession{
			ConnID:         conn.GetID(),
			PrincipalID:    p.PrincipalID(),
			Kind:           p.Kind(),
			ConnectedAt:    now,
			LastActivityAt: now,
		},
		conn: conn,
	}

	h.mu.Lock()
	evicted, hadPrior := h.byPrincipal[sess.PrincipalID]
	if hadPrior {
		delete(h.byConn, evicted.ConnID)
	}
	h.byConn[sess.ConnID] = sess
	h.byPrincipal[sess.PrincipalID] = sess
	h.mu.Unlock()

	if hadPrior {
		evicted.conn.Close()
	}
	return sess
}

// Touch refreshes the activity timestamp for heartbeat and inbound events.
func (h *Hub) Touch(connID uuid.UUID) {
	h.mu.Lock()
	if sess, ok := h.byConn[connID]; ok {
		sess.LastActivityAt = time.Now()
	}
	h.mu.Unlock()
}

// Remove deletes a session by connection id and closes its connector.
// A stale id (already evicted by Admit or the janitor) is a no-op.
func (h *Hub) Remove(connID uuid.UUID) {
	h.mu.Lock()
	sess, ok := h.byConn[connID]
	if ok {
		delete(h.byConn, connID)
		// The principal index may already point at a newer session.
		if cur, found := h.byPrincipal[sess.PrincipalID]; found && cur.ConnID == connID {
			delete(h.byPrincipal, sess.PrincipalID)
		}
	}
	h.mu.Unlock()

	if ok {
		sess.conn.Close()
	}
}

func (h *Hub) FindByPrincipal(principalID string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sess, ok := h.byPrincipal[principalID]
	return sess, ok
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byConn)
}

func (h *Hub) Stats() model.HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := model.HubStats{
		TotalSessions: len(h.byConn),
		Uptime:        time.Since(h.startedAt),
	}
	for _, sess := range h.byConn {
		switch sess.Kind {
		case model.KindUser:
			stats.UserSessions++
		case model.KindAdmin:
			stats.AdminSessions++
		}
	}
	return stats
}

// BroadcastToPrincipal routes an event to the principal's private scope.
// Returns false on miss or overflow.
func (h *Hub) BroadcastToPrincipal(principalID string, ev event.Eventer) bool {
	h.mu.RLock()
	sess, ok := h.byPrincipal[principalID]
	h.mu.RUnlock()

	if !ok {
		return false
	}
	return sess.conn.Send(ev, sendTimeout)
}

// BroadcastToAdmins fans one event out to every connected admin session,
// regardless of which principal triggered it. Returns the delivery count.
func (h *Hub) BroadcastToAdmins(ev event.Eventer) int {
	h.mu.RLock()
	targets := make([]Connector, 0, len(h.byConn))
	for _, sess := range h.byConn {
		if sess.Kind == model.KindAdmin {
			targets = append(targets, sess.conn)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, conn := range targets {
		if conn.Send(ev, sendTimeout) {
			delivered++
		}
	}
	return delivered
}

// janitor periodically evicts sessions idle beyond the threshold,
// simulating server-side timeout independent of transport disconnects.
func (h *Hub) janitor() {
	ticker := time.NewTicker(h.config.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.sweep(time.Now())
		}
	}
}

func (h *Hub) sweep(now time.Time) {
	h.mu.Lock()
	var expired []*Session
	for connID, sess := range h.byConn {
		if now.Sub(sess.LastActivityAt) > h.config.idleTimeout {
			expired = append(expired, sess)
			delete(h.byConn, connID)
			if cur, ok := h.byPrincipal[sess.PrincipalID]; ok && cur.ConnID == connID {
				delete(h.byPrincipal, sess.PrincipalID)
			}
		}
	}
	h.mu.Unlock()

	for _, sess := range expired {
		sess.conn.Close()
	}
}

// Shutdown stops the janitor and closes every live connector.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		sessions := make([]*Session, 0, len(h.byConn))
		for _, sess := range h.byConn {
			sessions = append(sessions, sess)
		}
		h.byConn = make(map[uuid.UUID]*Session)
		h.byPrincipal = make(map[string]*Session)
		h.mu.Unlock()

		for _, sess := range sessions {
			sess.conn.Close()
		}
	})
}
