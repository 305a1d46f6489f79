// Package dto holds the decoded shapes of client-sent events. Fields the
// server derives (delivery amount, edited stamps) are deliberately absent:
// a forged value in the raw payload is dropped at decode time.
package dto

import "time"

type DeliveryUpdate struct {
	ID          string     `json:"id"`
	Quantity    *float64   `json:"quantity,omitempty"`
	UnitPrice   *float64   `json:"unit_price,omitempty"`
	ProductType *string    `json:"product_type,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	EntryDate   *time.Time `json:"entry_date,omitempty"`
}

type PaymentAdd struct {
	CustomerID  string    `json:"customer_id"`
	Amount      float64   `json:"amount"`
	Method      string    `json:"method"`
	Reference   string    `json:"reference,omitempty"`
	PaymentDate time.Time `json:"payment_date"`
	Notes       string    `json:"notes,omitempty"`
}

type CustomerUpdate struct {
	ID      string  `json:"id"`
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Active  *bool   `json:"active,omitempty"`
}

type ActivityRequest struct {
	Limit int `json:"limit,omitempty"`
}
