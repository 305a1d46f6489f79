package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dairyroute/realtime-service/internal/domain/event"
)

// Interface guard
var _ Connector = (*connect)(nil)

// [CONNECTOR] The interface the hub and transport layers share.
// This allows mocking and decoupling from the concrete implementation.
type Connector interface {
	GetID() uuid.UUID
	GetPrincipalID() string
	Send(ev event.Eventer, timeout time.Duration) bool // thread-safe send with backpressure handling
	Recv() <-chan event.Eventer
	Close() // terminate connection and release resources
}

// connect is the concrete implementation (unexported to force interface usage).
type connect struct {
	id          uuid.UUID
	principalID string
	createdAt   time.Time

	ctx      context.Context
	cancelFn context.CancelFunc

	sendCh chan event.Eventer

	// sendMu lets Close wait out in-flight Sends before closing sendCh.
	sendMu       sync.RWMutex
	closed       bool
	closeOnce    sync.Once
	droppedCount uint64 // [ATOMIC_FIELD]
}

func NewConnector(ctx context.Context, principalID string, bufferSize int) Connector {
	childCtx, cancel := context.WithCancel(ctx)
	return &connect{
		id:          uuid.New(),
		principalID: principalID,
		createdAt:   time.Now(),
		ctx:         childCtx,
		cancelFn:    cancel,
		sendCh:      make(chan event.Eventer, bufferSize),
	}
}

func (c *connect) GetID() uuid.UUID       { return c.id }
func (c *connect) GetPrincipalID() string { return c.principalID }

// Send attempts to push an event into the outbound buffer.
// If the buffer is full, it applies the drop-oldest eviction strategy.
func (c *connect) Send(ev event.Eventer, timeout time.Duration) bool {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.closed {
		return false
	}

	select {
	case <-c.ctx.Done():
		return false
	case c.sendCh <- ev:
		return true
	default:
		return c.handleBackpressure(ev, timeout)
	}
}

// handleBackpressure manages full buffers by dropping low-priority events.
// Snapshots are low priority and safe to shed: the next recompute fully
// supersedes them.
func (c *connect) handleBackpressure(ev event.Eventer, timeout time.Duration) bool {
	if ev.GetPriority() <= event.PriorityLow {
		atomic.AddUint64(&c.droppedCount, 1)
		return false
	}

	// Evict one queued event of lower priority to make room.
	select {
	case oldEv := <-c.sendCh:
		if oldEv.GetPriority() < ev.GetPriority() {
			select {
			case c.sendCh <- ev:
				return true
			default:
			}
		} else {
			// The queued event mattered as much; put it back, best effort.
			select {
			case c.sendCh <- oldEv:
			default:
			}
		}
	case <-time.After(timeout):
	}

	atomic.AddUint64(&c.droppedCount, 1)
	return false
}

func (c *connect) Recv() <-chan event.Eventer { return c.sendCh }

// Close terminates the connector exactly once. Closing the channel signals
// the transport pump (via !ok) to finish its write loop and exit.
func (c *connect) Close() {
	c.closeOnce.Do(func() {
		c.cancelFn()

		c.sendMu.Lock()
		c.closed = true
		close(c.sendCh)
		c.sendMu.Unlock()
	})
}
