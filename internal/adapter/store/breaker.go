package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dairyroute/realtime-service/internal/domain/model"
)

// Interface guard
var _ Store = (*BreakerStore)(nil)

// BreakerStore wraps the read-aggregation paths with a circuit breaker so
// a flapping backend degrades to fast failures (and therefore zero-valued
// snapshots upstream) instead of piling up slow calls. Writes and
// principal lookups pass through: their failures already abort exactly one
// event pipeline each.
type BreakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerStore(next Store, logger *slog.Logger) *BreakerStore {
	settings := gobreaker.Settings{
		Name:    "store-reads",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("store breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerStore{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

func guarded[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	v, err := cb.Execute(func() (any, error) { return fn() })
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return zero, err
	}
	return v.(T), nil
}

func (s *BreakerStore) CustomersByVendor(ctx context.Context, vendorID string) ([]model.Customer, error) {
	return guarded(s.cb, func() ([]model.Customer, error) {
		return s.next.CustomersByVendor(ctx, vendorID)
	})
}

func (s *BreakerStore) DeliveriesByVendor(ctx context.Context, vendorID string, from, to time.Time) ([]model.DeliveryEntry, error) {
	return guarded(s.cb, func() ([]model.DeliveryEntry, error) {
		return s.next.DeliveriesByVendor(ctx, vendorID, from, to)
	})
}

func (s *BreakerStore) PaymentsByVendor(ctx context.Context, vendorID string, from, to time.Time) ([]model.PaymentRecord, error) {
	return guarded(s.cb, func() ([]model.PaymentRecord, error) {
		return s.next.PaymentsByVendor(ctx, vendorID, from, to)
	})
}

func (s *BreakerStore) SystemCounts(ctx context.Context) (model.SystemCounts, error) {
	return guarded(s.cb, func() (model.SystemCounts, error) {
		return s.next.SystemCounts(ctx)
	})
}

func (s *BreakerStore) RecentActivity(ctx context.Context, vendorID string, limit int) ([]model.ActivityRecord, error) {
	return guarded(s.cb, func() ([]model.ActivityRecord, error) {
		return s.next.RecentActivity(ctx, vendorID, limit)
	})
}

// --- PASS-THROUGH ---

func (s *BreakerStore) FindUser(ctx context.Context, id string) (*model.UserAccount, error) {
	return s.next.FindUser(ctx, id)
}

func (s *BreakerStore) FindAdmin(ctx context.Context, id string) (*model.AdminAccount, error) {
	return s.next.FindAdmin(ctx, id)
}

func (s *BreakerStore) UpdateDelivery(ctx context.Context, vendorID, entryID string, patch model.DeliveryPatch) (*model.DeliveryEntry, error) {
	return s.next.UpdateDelivery(ctx, vendorID, entryID, patch)
}

func (s *BreakerStore) CreatePayment(ctx context.Context, vendorID string, draft model.PaymentDraft) (*model.PaymentRecord, error) {
	return s.next.CreatePayment(ctx, vendorID, draft)
}

func (s *BreakerStore) UpdateCustomer(ctx context.Context, vendorID, customerID string, patch model.CustomerPatch) (*model.Customer, error) {
	return s.next.UpdateCustomer(ctx, vendorID, customerID, patch)
}

func (s *BreakerStore) AppendActivity(ctx context.Context, rec model.ActivityRecord) error {
	return s.next.AppendActivity(ctx, rec)
}
