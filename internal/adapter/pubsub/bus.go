// Package pubsub carries REST-side write notifications into the realtime
// layer over an in-process watermill channel. The REST handlers and the
// websocket transport share one injected router instance, so both paths
// broadcast through the same hub without any runtime singleton lookup.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// EventBus is the high-level contract for the REST bridge.
type EventBus interface {
	Publish(ctx context.Context, topic string, payload any) error
	Publisher() message.Publisher
	Subscriber() message.Subscriber
	Close() error
}

// Interface guard
var _ EventBus = (*GoChannelBus)(nil)

// GoChannelBus is the single-process implementation. Horizontal fan-out is
// out of scope; swapping in an AMQP-backed bus would reuse this interface.
type GoChannelBus struct {
	ch *gochannel.GoChannel
}

func NewGoChannelBus(logger watermill.LoggerAdapter) *GoChannelBus {
	return &GoChannelBus{
		ch: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
		}, logger),
	}
}

func (b *GoChannelBus) Publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("event bus: marshal failure: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)

	if err := b.ch.Publish(topic, msg); err != nil {
		return fmt.Errorf("event bus: failed to publish to topic %s: %w", topic, err)
	}
	return nil
}

func (b *GoChannelBus) Publisher() message.Publisher   { return b.ch }
func (b *GoChannelBus) Subscriber() message.Subscriber { return b.ch }
func (b *GoChannelBus) Close() error                   { return b.ch.Close() }
