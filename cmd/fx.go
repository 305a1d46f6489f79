package cmd

import (
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/dairyroute/realtime-service/config"
	httpsrv "github.com/dairyroute/realtime-service/infra/server/http"
	"github.com/dairyroute/realtime-service/internal/adapter/pubsub"
	"github.com/dairyroute/realtime-service/internal/adapter/store"
	"github.com/dairyroute/realtime-service/internal/domain/registry"
	"github.com/dairyroute/realtime-service/internal/handler/bus"
	wshandler "github.com/dairyroute/realtime-service/internal/handler/ws"
	"github.com/dairyroute/realtime-service/internal/service"
)

func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			ProvideLogger,
			ProvideWatermillLogger,
			ProvideEventBus,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger}
		}),
		store.Module,
		registry.Module,
		service.Module,
		wshandler.Module,
		bus.Module,
		httpsrv.Module,
	)
}

func ProvideLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func ProvideWatermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logger)
}

func ProvideEventBus(logger watermill.LoggerAdapter) pubsub.EventBus {
	return pubsub.NewGoChannelBus(logger)
}
