package ws

import "encoding/json"

// Envelope is the inbound client frame. Payload stays raw until the router
// decodes it against the named event's shape.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
