package bus

import (
	"context"

	"github.com/dairyroute/realtime-service/internal/domain/model"
)

// Bridge DTOs published by the REST layer after a successful write. The
// entity is carried whole; apply already happened on the REST side, so the
// bridge only recomputes and broadcasts.

type PaymentCreatedV1 struct {
	VendorID string              `json:"vendor_id"`
	Payment  model.PaymentRecord `json:"payment"`
}

type DeliveryUpdatedV1 struct {
	VendorID string              `json:"vendor_id"`
	Delivery model.DeliveryEntry `json:"delivery"`
}

type CustomerUpdatedV1 struct {
	VendorID string         `json:"vendor_id"`
	Customer model.Customer `json:"customer"`
}

func (h *BridgeHandler) OnPaymentCreatedV1(ctx context.Context, p *PaymentCreatedV1) error {
	h.router.NotifyPaymentAdded(ctx, p.VendorID, &p.Payment)
	return nil
}

func (h *BridgeHandler) OnDeliveryUpdatedV1(ctx context.Context, p *DeliveryUpdatedV1) error {
	h.router.NotifyDeliveryUpdated(ctx, p.VendorID, &p.Delivery)
	return nil
}

func (h *BridgeHandler) OnCustomerUpdatedV1(ctx context.Context, p *CustomerUpdatedV1) error {
	h.router.NotifyCustomerUpdated(ctx, p.VendorID, &p.Customer)
	return nil
}
