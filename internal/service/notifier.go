package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dairyroute/realtime-service/internal/adapter/store"
	"github.com/dairyroute/realtime-service/internal/domain/model"
)

// Notifier records audit events for connect, disconnect and applied
// mutations. Fire-and-forget: a failed append is swallowed and logged,
// never surfaced to a client, never blocking the primary operation.
// Admin principals are exempt from this trail.
type Notifier interface {
	Connected(ctx context.Context, principalID string, kind model.PrincipalKind)
	Disconnected(ctx context.Context, principalID string, kind model.PrincipalKind, reason string)
	MutationApplied(ctx context.Context, principalID string, kind model.PrincipalKind, act model.ActivityKind, detail string)
}

// Interface guard
var _ Notifier = (*ActivityNotifier)(nil)

type ActivityNotifier struct {
	store  store.Store
	logger *slog.Logger
}

func NewActivityNotifier(st store.Store, logger *slog.Logger) *ActivityNotifier {
	return &ActivityNotifier{store: st, logger: logger}
}

func (n *ActivityNotifier) Connected(ctx context.Context, principalID string, kind model.PrincipalKind) {
	n.append(ctx, principalID, kind, model.ActivityConnected, "")
}

func (n *ActivityNotifier) Disconnected(ctx context.Context, principalID string, kind model.PrincipalKind, reason string) {
	n.append(ctx, principalID, kind, model.ActivityDisconnected, reason)
}

func (n *ActivityNotifier) MutationApplied(ctx context.Context, principalID string, kind model.PrincipalKind, act model.ActivityKind, detail string) {
	n.append(ctx, principalID, kind, act, detail)
}

func (n *ActivityNotifier) append(ctx context.Context, principalID string, kind model.PrincipalKind, act model.ActivityKind, detail string) {
	if kind != model.KindUser {
		return
	}

	rec := model.ActivityRecord{
		ID:         uuid.NewString(),
		VendorID:   principalID,
		Kind:       act,
		Detail:     detail,
		OccurredAt: time.Now(),
	}

	// Detached from the caller's context: a disconnecting handler's
	// cancellation must not lose its own audit row.
	go func() {
		if err := n.store.AppendActivity(context.WithoutCancel(ctx), rec); err != nil {
			n.logger.Warn("activity append failed", "vendor_id", principalID, "kind", act, "err", err)
		}
	}()
}
