package wsmarshaller

import (
	"encoding/json"

	"github.com/dairyroute/realtime-service/internal/domain/event"
)

// WSEvent is the generic wrapper for outbound WebSocket messages,
// providing a consistent structure across all event kinds.
type WSEvent struct {
	Event   string `json:"event"` // e.g. "stats:updated", "payment:added"
	ID      string `json:"id"`
	SentAt  int64  `json:"sent_at"`
	Payload any    `json:"payload,omitempty"`
}

// MarshalEvent prepares a domain event for WebSocket transmission.
func MarshalEvent(ev event.Eventer) ([]byte, error) {
	return json.Marshal(&WSEvent{
		Event:   ev.GetKind().WireName(),
		ID:      ev.GetID(),
		SentAt:  ev.GetOccurredAt(),
		Payload: ev.GetPayload(),
	})
}
