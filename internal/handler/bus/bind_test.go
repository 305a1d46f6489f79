package bus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindPayload struct {
	Value string `json:"value"`
}

func newBindHandler() *BridgeHandler {
	return &BridgeHandler{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestBindDecodesPayload(t *testing.T) {
	h := newBindHandler()
	var got *bindPayload
	fn := Bind(h, func(ctx context.Context, p *bindPayload) error {
		got = p
		return nil
	})

	err := fn(message.NewMessage("m1", []byte(`{"value":"hello"}`)))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hello", got.Value)
}

func TestBindAcksMalformedPayload(t *testing.T) {
	h := newBindHandler()
	called := false
	fn := Bind(h, func(ctx context.Context, p *bindPayload) error {
		called = true
		return nil
	})

	// Redelivery cannot fix a malformed payload, so the message is ACKed.
	err := fn(message.NewMessage("m1", []byte("not json")))
	assert.NoError(t, err)
	assert.False(t, called)
}

func TestBindPropagatesHandlerError(t *testing.T) {
	h := newBindHandler()
	want := errors.New("downstream failure")
	fn := Bind(h, func(ctx context.Context, p *bindPayload) error { return want })

	err := fn(message.NewMessage("m1", []byte(`{"value":"x"}`)))
	assert.ErrorIs(t, err, want)
}

func TestBindRecoversPanic(t *testing.T) {
	h := newBindHandler()
	fn := Bind(h, func(ctx context.Context, p *bindPayload) error {
		panic("boom")
	})

	assert.NotPanics(t, func() {
		_ = fn(message.NewMessage("m1", []byte(`{"value":"x"}`)))
	})
}
