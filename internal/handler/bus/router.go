package bus

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/dairyroute/realtime-service/internal/adapter/pubsub"
	"github.com/dairyroute/realtime-service/internal/service"
)

const (
	// ------------------- TOPICS (REST-SIDE WRITES) -------------
	TopicPaymentCreated  = "billing.payment.created.v1"
	TopicDeliveryUpdated = "billing.delivery.updated.v1"
	TopicCustomerUpdated = "billing.customer.updated.v1"

	// ------------------- POISON -------------------------------
	BridgePoisonTopic = "realtime.bridge.poison"
)

// BridgeHandler replays writes made through the non-realtime API onto the
// recompute+broadcast path, so socket clients observe REST mutations too.
type BridgeHandler struct {
	router *service.EventRouter
	logger *slog.Logger
}

func NewBridgeHandler(router *service.EventRouter, logger *slog.Logger) *BridgeHandler {
	return &BridgeHandler{router: router, logger: logger}
}

func NewBridgeRouter(logger watermill.LoggerAdapter) (*message.Router, error) {
	return message.NewRouter(message.RouterConfig{}, logger)
}

// [REGISTRATION_PIPELINE]
func (h *BridgeHandler) RegisterHandlers(router *message.Router, eventBus pubsub.EventBus) error {
	poison, err := middleware.PoisonQueue(eventBus.Publisher(), BridgePoisonTopic)
	if err != nil {
		return fmt.Errorf("poison setup failed: %w", err)
	}

	configs := []struct {
		name    string
		topic   string
		handler message.NoPublishHandlerFunc
	}{
		{"ON_PAYMENT_CREATED", TopicPaymentCreated, Bind(h, h.OnPaymentCreatedV1)},
		{"ON_DELIVERY_UPDATED", TopicDeliveryUpdated, Bind(h, h.OnDeliveryUpdatedV1)},
		{"ON_CUSTOMER_UPDATED", TopicCustomerUpdated, Bind(h, h.OnCustomerUpdatedV1)},
	}

	for _, c := range configs {
		router.AddConsumerHandler(c.name, c.topic, eventBus.Subscriber(), c.handler).AddMiddleware(
			TraceIDMiddleware,
			LoggingMiddleware(h.logger),
			NewRetryMiddleware().Middleware,
			poison,
			middleware.NewThrottle(100, time.Second).Middleware,
			middleware.Timeout(time.Second*30),
		)
	}

	h.logger.Info("bridge pipeline ready", "topics", len(configs))
	return nil
}
