package bus

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/fx"

	"github.com/dairyroute/realtime-service/internal/adapter/pubsub"
)

var Module = fx.Module("bus-handler",
	fx.Provide(
		NewBridgeHandler,
		NewBridgeRouter,
	),

	fx.Invoke(func(lc fx.Lifecycle, h *BridgeHandler, router *message.Router, eventBus pubsub.EventBus) error {
		if err := h.RegisterHandlers(router, eventBus); err != nil {
			return err
		}

		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					// Run blocks until Close; startup errors surface in logs.
					_ = router.Run(context.Background())
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				if err := router.Close(); err != nil {
					return err
				}
				return eventBus.Close()
			},
		})
		return nil
	}),
)
