package event

import (
	"time"

	"github.com/google/uuid"
)

// [GUARD] Ensure compliance with the Eventer interface.
var _ Eventer = (*Event)(nil)

// Event is the single envelope for every outbound signal. Delivery is
// fire-and-forget: no acknowledgement, no replay buffer. A client that is
// offline at emit time misses the event and re-syncs on reconnect.
type Event struct {
	id          string
	principalID string
	kind        EventKind
	priority    EventPriority
	occurredAt  int64
	payload     any
}

func (e *Event) GetID() string              { return e.id }
func (e *Event) GetKind() EventKind         { return e.kind }
func (e *Event) GetPrincipalID() string     { return e.principalID }
func (e *Event) GetPriority() EventPriority { return e.priority }
func (e *Event) GetOccurredAt() int64       { return e.occurredAt }
func (e *Event) GetPayload() any            { return e.payload }

// New is the universal factory for outbound events.
func New(principalID string, kind EventKind, priority EventPriority, payload any) *Event {
	return &Event{
		id:          uuid.NewString(),
		principalID: principalID,
		kind:        kind,
		priority:    priority,
		occurredAt:  time.Now().UnixMilli(),
		payload:     payload,
	}
}

// Snapshots are deliberately low priority: a superseded snapshot may be
// dropped under backpressure because the next one fully replaces it.
func NewStatsUpdated(principalID string, snapshot any) *Event {
	return New(principalID, StatsUpdated, PriorityLow, snapshot)
}

func NewConnected(principalID string, payload any) *Event {
	return New(principalID, Connected, PriorityHigh, payload)
}

func NewPong(principalID string) *Event {
	return New(principalID, Pong, PriorityNormal, nil)
}

func NewDeliveryUpdated(principalID string, entry any) *Event {
	return New(principalID, DeliveryUpdated, PriorityHigh, entry)
}

func NewPaymentAdded(principalID string, record any) *Event {
	return New(principalID, PaymentAdded, PriorityHigh, record)
}

func NewBalanceUpdated(principalID string, balance any) *Event {
	return New(principalID, BalanceUpdated, PriorityHigh, balance)
}

func NewActivityUpdated(principalID string, records any) *Event {
	return New(principalID, ActivityUpdated, PriorityNormal, records)
}

func NewCustomerUpdated(principalID string, customer any) *Event {
	return New(principalID, CustomerUpdated, PriorityHigh, customer)
}

// ErrorPayload is the structured error shape emitted to the originating
// connection only. Code is stable and machine-readable.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func NewError(principalID, code, message string, details any) *Event {
	return New(principalID, Error, PriorityHigh, &ErrorPayload{
		Message: message,
		Code:    code,
		Details: details,
	})
}
