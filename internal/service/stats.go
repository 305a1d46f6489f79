package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dairyroute/realtime-service/internal/adapter/store"
	"github.com/dairyroute/realtime-service/internal/domain/model"
)

// Aggregator recomputes snapshots from scratch on every call. No caching,
// no incremental update: a snapshot is valid only at the moment it was
// computed and every broadcast carries a fresh one.
//
// Both routines degrade to a zero-valued snapshot when the store fails;
// a broadcast of zeros beats crashing the connection handler.
type Aggregator struct {
	store  store.Store
	logger *slog.Logger
	group  singleflight.Group

	now func() time.Time
}

func NewAggregator(st store.Store, logger *slog.Logger) *Aggregator {
	return &Aggregator{store: st, logger: logger, now: time.Now}
}

// ComputeUserStats builds the vendor-scoped view: today's window sums plus
// the historical per-customer balance map.
func (a *Aggregator) ComputeUserStats(ctx context.Context, vendorID string) *model.UserStatsSnapshot {
	now := a.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	customers, err := a.store.CustomersByVendor(ctx, vendorID)
	if err != nil {
		return a.degradeUser(vendorID, now, err)
	}
	todayEntries, err := a.store.DeliveriesByVendor(ctx, vendorID, dayStart, dayEnd)
	if err != nil {
		return a.degradeUser(vendorID, now, err)
	}
	todayPayments, err := a.store.PaymentsByVendor(ctx, vendorID, dayStart, dayEnd)
	if err != nil {
		return a.degradeUser(vendorID, now, err)
	}
	allEntries, err := a.store.DeliveriesByVendor(ctx, vendorID, time.Time{}, time.Time{})
	if err != nil {
		return a.degradeUser(vendorID, now, err)
	}
	allPayments, err := a.store.PaymentsByVendor(ctx, vendorID, time.Time{}, time.Time{})
	if err != nil {
		return a.degradeUser(vendorID, now, err)
	}

	snap := &model.UserStatsSnapshot{ComputedAt: now}
	for _, c := range customers {
		if c.Active {
			snap.ActiveCustomerCount++
		}
	}
	for _, e := range todayEntries {
		snap.TodayDeliveredQuantity += e.Quantity
		snap.TodayRevenue += e.Amount
	}
	for _, p := range todayPayments {
		snap.TodayCollected += p.Amount
	}

	balances := make(map[string]float64)
	for _, e := range allEntries {
		balances[e.CustomerID] += e.Amount
	}
	for _, p := range allPayments {
		balances[p.CustomerID] -= p.Amount
	}
	// Only positive balances count: this is money owed to the vendor, not
	// a net position. A customer in credit contributes zero, never a
	// negative offset.
	for _, bal := range balances {
		if bal > 0 {
			snap.PendingPaymentCustomerCount++
			snap.TotalOutstandingBalance += bal
		}
	}
	return snap
}

// ComputeSystemStats builds the admin-scoped view. Concurrent triggers
// (a burst of payment events) coalesce into one store round trip.
func (a *Aggregator) ComputeSystemStats(ctx context.Context) *model.SystemStatsSnapshot {
	v, _, _ := a.group.Do("system", func() (any, error) {
		now := a.now()
		counts, err := a.store.SystemCounts(ctx)
		if err != nil {
			a.logger.Warn("system stats degraded to zero snapshot", "err", err)
			return &model.SystemStatsSnapshot{ComputedAt: now}, nil
		}

		snap := &model.SystemStatsSnapshot{
			TotalUsers:      counts.TotalUsers,
			ActiveUsers:     counts.ActiveUsers,
			TotalVendors:    counts.VendorsWithCustomers,
			TotalCustomers:  counts.TotalCustomers,
			ActiveCustomers: counts.ActiveCustomers,
			TotalRevenue:    counts.PaymentTotal,
			TotalOrders:     counts.PaymentCount,
			ComputedAt:      now,
		}
		if counts.PaymentCount > 0 {
			snap.AverageOrderValue = counts.PaymentTotal / float64(counts.PaymentCount)
		}
		return snap, nil
	})
	return v.(*model.SystemStatsSnapshot)
}

// CustomerBalance recomputes one customer's billed-minus-paid figure from
// full history. Unlike the snapshot routines this returns the error: the
// router treats a failed balance recompute as a failed pipeline, so no
// partial broadcast can follow a successful write.
func (a *Aggregator) CustomerBalance(ctx context.Context, vendorID, customerID string) (*model.CustomerBalance, error) {
	entries, err := a.store.DeliveriesByVendor(ctx, vendorID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	payments, err := a.store.PaymentsByVendor(ctx, vendorID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	bal := &model.CustomerBalance{CustomerID: customerID}
	for _, e := range entries {
		if e.CustomerID == customerID {
			bal.TotalBilled += e.Amount
		}
	}
	for _, p := range payments {
		if p.CustomerID == customerID {
			bal.TotalPaid += p.Amount
		}
	}
	bal.Balance = bal.TotalBilled - bal.TotalPaid
	return bal, nil
}

func (a *Aggregator) degradeUser(vendorID string, now time.Time, err error) *model.UserStatsSnapshot {
	a.logger.Warn("user stats degraded to zero snapshot", "vendor_id", vendorID, "err", err)
	return &model.UserStatsSnapshot{ComputedAt: now}
}
