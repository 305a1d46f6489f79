// Package store defines the persistence collaborator consumed by the
// realtime layer. Transaction correctness of the backing store is outside
// this service; the interface assumes it is externally consistent.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dairyroute/realtime-service/internal/domain/model"
)

var (
	ErrNotFound = errors.New("store: entity not found")
	// ErrNotOwned is the data-layer ownership failure: a write against an
	// entity the caller does not own must fail here, not in the router.
	ErrNotOwned    = errors.New("store: entity not owned by caller")
	ErrUnavailable = errors.New("store: backend unavailable")
)

// Store is keyed by principal and entity id. Window queries take a
// [from, to) pair; a zero pair means full history.
type Store interface {
	FindUser(ctx context.Context, id string) (*model.UserAccount, error)
	FindAdmin(ctx context.Context, id string) (*model.AdminAccount, error)

	CustomersByVendor(ctx context.Context, vendorID string) ([]model.Customer, error)
	DeliveriesByVendor(ctx context.Context, vendorID string, from, to time.Time) ([]model.DeliveryEntry, error)
	PaymentsByVendor(ctx context.Context, vendorID string, from, to time.Time) ([]model.PaymentRecord, error)

	UpdateDelivery(ctx context.Context, vendorID, entryID string, patch model.DeliveryPatch) (*model.DeliveryEntry, error)
	CreatePayment(ctx context.Context, vendorID string, draft model.PaymentDraft) (*model.PaymentRecord, error)
	UpdateCustomer(ctx context.Context, vendorID, customerID string, patch model.CustomerPatch) (*model.Customer, error)

	SystemCounts(ctx context.Context) (model.SystemCounts, error)

	AppendActivity(ctx context.Context, rec model.ActivityRecord) error
	RecentActivity(ctx context.Context, vendorID string, limit int) ([]model.ActivityRecord, error)
}
