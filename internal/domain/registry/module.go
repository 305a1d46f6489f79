package registry

import (
	"context"

	"go.uber.org/fx"

	"github.com/dairyroute/realtime-service/config"
)

var Module = fx.Module("registry",
	fx.Provide(
		func(cfg *config.Config) *Hub {
			return NewHub(
				WithSweepInterval(cfg.Realtime.SweepInterval),
				WithIdleTimeout(cfg.Realtime.IdleTimeout),
			)
		},
		func(h *Hub) Hubber { return h },
	),
	fx.Invoke(func(lc fx.Lifecycle, h Hubber) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				h.Shutdown() // [GRACEFUL_SHUTDOWN] stop the janitor and close all sessions
				return nil
			},
		})
	}),
)
