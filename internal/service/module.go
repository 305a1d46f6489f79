package service

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/dairyroute/realtime-service/config"
	"github.com/dairyroute/realtime-service/internal/adapter/store"
)

var Module = fx.Module(
	"service",

	fx.Provide(
		fx.Annotate(
			func(cfg *config.Config, st store.Store, logger *slog.Logger) *AuthService {
				return NewAuthService([]byte(cfg.Auth.Secret), st, logger)
			},
			fx.As(new(Auther)),
		),
		fx.Annotate(
			NewActivityNotifier,
			fx.As(new(Notifier)),
		),
		func(cfg *config.Config, logger *slog.Logger) *Throttle {
			return NewThrottle(cfg.Realtime.ThrottleCooldown, logger)
		},
		NewAggregator,
		NewEventRouter,
	),
)
