package ws

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/dairyroute/realtime-service/config"
	"github.com/dairyroute/realtime-service/internal/domain/registry"
	"github.com/dairyroute/realtime-service/internal/service"
)

var Module = fx.Module("ws-handler",
	fx.Provide(
		func(cfg *config.Config, logger *slog.Logger, auther service.Auther, hub registry.Hubber, router *service.EventRouter) *WSHandler {
			return NewWSHandler(logger, auther, hub, router, cfg.Realtime.SendBuffer, cfg.Realtime.AllowedOrigins)
		},
	),
)
