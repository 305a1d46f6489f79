package model

import "time"

type ActivityKind string

const (
	ActivityConnected       ActivityKind = "connected"
	ActivityDisconnected    ActivityKind = "disconnected"
	ActivityDeliveryUpdated ActivityKind = "delivery_updated"
	ActivityPaymentAdded    ActivityKind = "payment_added"
	ActivityCustomerUpdated ActivityKind = "customer_updated"
)

// ActivityRecord is one audit row, appended fire-and-forget for user-kind
// principals only.
type ActivityRecord struct {
	ID         string       `json:"id"`
	VendorID   string       `json:"vendor_id"`
	Kind       ActivityKind `json:"kind"`
	Detail     string       `json:"detail,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}
