package store

import (
	"log/slog"

	"go.uber.org/fx"
)

var Module = fx.Module("store",
	fx.Provide(
		NewMemoryStore,
		// Aggregate reads go through the breaker; the memory backend never
		// trips it, but an embedding platform swapping in a real backend
		// keeps the same degradation behavior.
		func(mem *MemoryStore, logger *slog.Logger) Store {
			return NewBreakerStore(mem, logger)
		},
	),
)
