package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dairyroute/realtime-service/internal/adapter/store"
	"github.com/dairyroute/realtime-service/internal/domain/model"
)

func newStatsFixture() (*Aggregator, *store.MemoryStore) {
	mem := store.NewMemoryStore()
	return NewAggregator(mem, discardLogger()), mem
}

func TestComputeUserStatsOutstandingIsPositiveOnly(t *testing.T) {
	agg, mem := newStatsFixture()
	historic := time.Now().AddDate(0, 0, -3)

	mem.SeedCustomer(model.Customer{ID: "c1", VendorID: "v1", Name: "Meera", Active: true})
	mem.SeedCustomer(model.Customer{ID: "c2", VendorID: "v1", Name: "Sunil", Active: true})
	mem.SeedCustomer(model.Customer{ID: "c3", VendorID: "v1", Name: "Left", Active: false})
	mem.SeedCustomer(model.Customer{ID: "x1", VendorID: "v2", Name: "Other", Active: true})

	mem.SeedDelivery(model.DeliveryEntry{ID: "d1", VendorID: "v1", CustomerID: "c1", Amount: 100, EntryDate: historic})
	mem.SeedDelivery(model.DeliveryEntry{ID: "d2", VendorID: "v1", CustomerID: "c2", Amount: 80, EntryDate: historic})
	// c1 is in credit; that credit must not offset c2's debt.
	mem.SeedPayment(model.PaymentRecord{ID: "p1", VendorID: "v1", CustomerID: "c1", Amount: 150, PaymentDate: historic})
	mem.SeedPayment(model.PaymentRecord{ID: "p2", VendorID: "v1", CustomerID: "c2", Amount: 30, PaymentDate: historic})

	snap := agg.ComputeUserStats(context.Background(), "v1")

	assert.Equal(t, 2, snap.ActiveCustomerCount)
	assert.Equal(t, 1, snap.PendingPaymentCustomerCount)
	assert.InDelta(t, 50, snap.TotalOutstandingBalance, 1e-9)
	assert.Zero(t, snap.TodayDeliveredQuantity)
	assert.Zero(t, snap.TodayRevenue)
	assert.Zero(t, snap.TodayCollected)
	assert.False(t, snap.ComputedAt.IsZero())
}

func TestComputeUserStatsTodayWindow(t *testing.T) {
	agg, mem := newStatsFixture()
	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)

	mem.SeedCustomer(model.Customer{ID: "c1", VendorID: "v1", Active: true})
	mem.SeedDelivery(model.DeliveryEntry{ID: "d1", VendorID: "v1", CustomerID: "c1", Quantity: 5, Amount: 200, EntryDate: now})
	mem.SeedDelivery(model.DeliveryEntry{ID: "d2", VendorID: "v1", CustomerID: "c1", Quantity: 3, Amount: 90, EntryDate: yesterday})
	mem.SeedPayment(model.PaymentRecord{ID: "p1", VendorID: "v1", CustomerID: "c1", Amount: 120, PaymentDate: now})
	mem.SeedPayment(model.PaymentRecord{ID: "p2", VendorID: "v1", CustomerID: "c1", Amount: 40, PaymentDate: yesterday})

	snap := agg.ComputeUserStats(context.Background(), "v1")

	assert.InDelta(t, 5, snap.TodayDeliveredQuantity, 1e-9)
	assert.InDelta(t, 200, snap.TodayRevenue, 1e-9)
	assert.InDelta(t, 120, snap.TodayCollected, 1e-9)
	// Balance spans the full history, not just today: 290 billed, 160 paid.
	assert.Equal(t, 1, snap.PendingPaymentCustomerCount)
	assert.InDelta(t, 130, snap.TotalOutstandingBalance, 1e-9)
}

func TestComputeUserStatsDegradesToZeroSnapshot(t *testing.T) {
	agg, mem := newStatsFixture()
	mem.SeedCustomer(model.Customer{ID: "c1", VendorID: "v1", Active: true})
	mem.SetError(assert.AnError)

	snap := agg.ComputeUserStats(context.Background(), "v1")
	require.NotNil(t, snap)

	assert.Zero(t, snap.ActiveCustomerCount)
	assert.Zero(t, snap.TodayDeliveredQuantity)
	assert.Zero(t, snap.TodayRevenue)
	assert.Zero(t, snap.TodayCollected)
	assert.Zero(t, snap.PendingPaymentCustomerCount)
	assert.Zero(t, snap.TotalOutstandingBalance)
	assert.False(t, snap.ComputedAt.IsZero())
}

func TestComputeSystemStats(t *testing.T) {
	agg, mem := newStatsFixture()
	now := time.Now()

	mem.SeedUser(model.UserAccount{ID: "u1", Active: true})
	mem.SeedUser(model.UserAccount{ID: "u2", Active: false})
	mem.SeedCustomer(model.Customer{ID: "c1", VendorID: "u1", Active: true})
	mem.SeedCustomer(model.Customer{ID: "c2", VendorID: "u1", Active: false})
	mem.SeedPayment(model.PaymentRecord{ID: "p1", VendorID: "u1", CustomerID: "c1", Amount: 100, PaymentDate: now})
	mem.SeedPayment(model.PaymentRecord{ID: "p2", VendorID: "u1", CustomerID: "c2", Amount: 50, PaymentDate: now})

	snap := agg.ComputeSystemStats(context.Background())

	assert.Equal(t, 2, snap.TotalUsers)
	assert.Equal(t, 1, snap.ActiveUsers)
	assert.Equal(t, 1, snap.TotalVendors)
	assert.Equal(t, 2, snap.TotalCustomers)
	assert.Equal(t, 1, snap.ActiveCustomers)
	assert.Equal(t, 2, snap.TotalOrders)
	assert.InDelta(t, 150, snap.TotalRevenue, 1e-9)
	assert.InDelta(t, 75, snap.AverageOrderValue, 1e-9)
}

func TestComputeSystemStatsEmptyStore(t *testing.T) {
	agg, _ := newStatsFixture()

	snap := agg.ComputeSystemStats(context.Background())

	assert.Zero(t, snap.TotalOrders)
	assert.Zero(t, snap.AverageOrderValue, "no division by zero on an empty store")
}

func TestComputeSystemStatsDegradesToZeroSnapshot(t *testing.T) {
	agg, mem := newStatsFixture()
	mem.SeedUser(model.UserAccount{ID: "u1", Active: true})
	mem.SetError(assert.AnError)

	snap := agg.ComputeSystemStats(context.Background())
	require.NotNil(t, snap)

	assert.Zero(t, snap.TotalUsers)
	assert.Zero(t, snap.TotalRevenue)
	assert.False(t, snap.ComputedAt.IsZero())
}

func TestCustomerBalanceScopedToCustomer(t *testing.T) {
	agg, mem := newStatsFixture()
	historic := time.Now().AddDate(0, 0, -1)

	mem.SeedDelivery(model.DeliveryEntry{ID: "d1", VendorID: "v1", CustomerID: "c1", Amount: 100, EntryDate: historic})
	mem.SeedDelivery(model.DeliveryEntry{ID: "d2", VendorID: "v1", CustomerID: "c2", Amount: 999, EntryDate: historic})
	mem.SeedPayment(model.PaymentRecord{ID: "p1", VendorID: "v1", CustomerID: "c1", Amount: 30, PaymentDate: historic})

	bal, err := agg.CustomerBalance(context.Background(), "v1", "c1")
	require.NoError(t, err)

	assert.Equal(t, "c1", bal.CustomerID)
	assert.InDelta(t, 100, bal.TotalBilled, 1e-9)
	assert.InDelta(t, 30, bal.TotalPaid, 1e-9)
	assert.InDelta(t, 70, bal.Balance, 1e-9)
}

func TestCustomerBalancePropagatesStoreError(t *testing.T) {
	agg, mem := newStatsFixture()
	mem.SetError(assert.AnError)

	_, err := agg.CustomerBalance(context.Background(), "v1", "c1")
	assert.Error(t, err, "balance failures abort the pipeline instead of degrading")
}
