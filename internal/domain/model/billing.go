package model

import "time"

// DeliveryEntry is owned by the persistence collaborator; the realtime
// layer only patches it and broadcasts the result.
type DeliveryEntry struct {
	ID          string     `json:"id"`
	VendorID    string     `json:"vendor_id"`
	CustomerID  string     `json:"customer_id"`
	ProductType string     `json:"product_type"`
	Quantity    float64    `json:"quantity"`
	UnitPrice   float64    `json:"unit_price"`
	Amount      float64    `json:"amount"` // quantity * unit price, server-derived
	EntryDate   time.Time  `json:"entry_date"`
	Notes       string     `json:"notes,omitempty"`
	Edited      bool       `json:"edited"`
	EditedAt    *time.Time `json:"edited_at,omitempty"`
}

// DeliveryPatch carries the mutable fields of a delivery entry. Amount is
// set by the router only, never taken from a client payload.
type DeliveryPatch struct {
	Quantity    *float64
	UnitPrice   *float64
	Amount      *float64
	ProductType *string
	Notes       *string
	EntryDate   *time.Time
	Edited      bool
	EditedAt    time.Time
}

type PaymentRecord struct {
	ID          string    `json:"id"`
	VendorID    string    `json:"vendor_id"`
	CustomerID  string    `json:"customer_id"`
	Amount      float64   `json:"amount"`
	Method      string    `json:"method"`
	Reference   string    `json:"reference,omitempty"`
	PaymentDate time.Time `json:"payment_date"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// PaymentDraft is a not-yet-persisted payment.
type PaymentDraft struct {
	CustomerID  string
	Amount      float64
	Method      string
	Reference   string
	PaymentDate time.Time
	Notes       string
}

type Customer struct {
	ID       string `json:"id"`
	VendorID string `json:"vendor_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Active   bool   `json:"active"`
}

type CustomerPatch struct {
	Name    *string
	Phone   *string
	Address *string
	Active  *bool
}

// CustomerBalance is the derived billed-minus-paid figure for one
// customer. Always recomputed, never persisted by this layer.
type CustomerBalance struct {
	CustomerID  string  `json:"customer_id"`
	TotalBilled float64 `json:"total_billed"`
	TotalPaid   float64 `json:"total_paid"`
	Balance     float64 `json:"balance"`
}
