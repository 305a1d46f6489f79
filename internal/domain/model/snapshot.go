package model

import "time"

// UserStatsSnapshot is the vendor-scoped aggregate view. Recomputed from
// scratch on every trigger; clients must treat it as last-write-wins.
type UserStatsSnapshot struct {
	ActiveCustomerCount         int       `json:"active_customer_count"`
	TodayDeliveredQuantity      float64   `json:"today_delivered_quantity"`
	TodayRevenue                float64   `json:"today_revenue"`
	TodayCollected              float64   `json:"today_collected"`
	PendingPaymentCustomerCount int       `json:"pending_payment_customer_count"`
	TotalOutstandingBalance     float64   `json:"total_outstanding_balance"`
	ComputedAt                  time.Time `json:"computed_at"`
}

// SystemStatsSnapshot is the admin-scoped aggregate view across all
// principals.
type SystemStatsSnapshot struct {
	TotalUsers        int       `json:"total_users"`
	ActiveUsers       int       `json:"active_users"`
	TotalVendors      int       `json:"total_vendors"`
	TotalCustomers    int       `json:"total_customers"`
	ActiveCustomers   int       `json:"active_customers"`
	TotalRevenue      float64   `json:"total_revenue"`
	TotalOrders       int       `json:"total_orders"`
	AverageOrderValue float64   `json:"average_order_value"`
	ComputedAt        time.Time `json:"computed_at"`
}

// SystemCounts is the raw aggregate row the store returns for the system
// snapshot. VendorsWithCustomers counts distinct users owning at least one
// customer.
type SystemCounts struct {
	TotalUsers           int
	ActiveUsers          int
	VendorsWithCustomers int
	TotalCustomers       int
	ActiveCustomers      int
	PaymentCount         int
	PaymentTotal         float64
}
