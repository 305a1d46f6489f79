package bus

import (
	"context"
	"encoding/json"
	"runtime/debug"

	"github.com/ThreeDotsLabs/watermill/message"
)

// BridgeFunc is the functional signature for bridge business logic.
type BridgeFunc[T any] func(ctx context.Context, payload *T) error

// Bind connects watermill to the bridge logic, handling panic recovery and
// decoding. Malformed payloads are ACKed: redelivery cannot fix them.
func Bind[T any](h *BridgeHandler, fn BridgeFunc[T]) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("bridge handler panic recovered",
					"err", r,
					"stack", string(debug.Stack()),
					"msg_id", msg.UUID)
			}
		}()

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			h.logger.Error("bridge decode failed", "err", err, "msg_id", msg.UUID)
			return nil
		}

		// A returned error NACKs and triggers the retry policy.
		return fn(msg.Context(), payload)
	}
}
