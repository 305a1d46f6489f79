package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dairyroute/realtime-service/internal/adapter/store"
	"github.com/dairyroute/realtime-service/internal/domain/event"
	"github.com/dairyroute/realtime-service/internal/domain/model"
	"github.com/dairyroute/realtime-service/internal/domain/registry"
	"github.com/dairyroute/realtime-service/internal/service/dto"
)

// Inbound event names recognized on the channel.
const (
	InDeliveryUpdate  = "delivery:update"
	InPaymentAdd      = "payment:add"
	InCustomerUpdate  = "customer:update"
	InStatsRequest    = "stats:request"
	InActivityRequest = "activity:request"
	InPing            = "ping"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 50
)

// EventRouter runs the mutation pipeline: validate, apply through the
// store, recompute the acting principal's stats, broadcast to the right
// scope. Every failure becomes a structured error event to the originator
// only; the connection stays open and no partial broadcast occurs.
//
// Mutations for the same principal are not serialized: two in-flight
// events may interleave between apply and recompute, so a snapshot can
// reflect a partially-updated view. The later event's recompute observes
// both writes, which is the accepted eventual-consistency tradeoff.
type EventRouter struct {
	hub      registry.Hubber
	store    store.Store
	stats    *Aggregator
	throttle *Throttle
	notifier Notifier
	logger   *slog.Logger

	now func() time.Time
}

func NewEventRouter(
	hub registry.Hubber,
	st store.Store,
	stats *Aggregator,
	throttle *Throttle,
	notifier Notifier,
	logger *slog.Logger,
) *EventRouter {
	return &EventRouter{
		hub:      hub,
		store:    st,
		stats:    stats,
		throttle: throttle,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Dispatch routes one decoded inbound envelope. Called sequentially per
// connection, preserving the transport's message order.
func (r *EventRouter) Dispatch(ctx context.Context, sess *registry.Session, name string, payload json.RawMessage) {
	r.hub.Touch(sess.ConnID)

	switch name {
	case InPing:
		sess.Deliver(event.NewPong(sess.PrincipalID))
	case InStatsRequest:
		r.handleStatsRequest(ctx, sess)
	case InActivityRequest:
		r.handleActivityRequest(ctx, sess, payload)
	case InDeliveryUpdate:
		r.handleDeliveryUpdate(ctx, sess, payload)
	case InPaymentAdd:
		r.handlePaymentAdd(ctx, sess, payload)
	case InCustomerUpdate:
		r.handleCustomerUpdate(ctx, sess, payload)
	default:
		sess.Deliver(event.NewError(sess.PrincipalID, CodeUnknownEvent,
			fmt.Sprintf("unrecognized event %q", name), nil))
	}
}

// OnConnected pushes the greeting and the initial snapshot for a freshly
// admitted session, and records the connect for user principals.
func (r *EventRouter) OnConnected(ctx context.Context, sess *registry.Session) {
	sess.Deliver(event.NewConnected(sess.PrincipalID, &model.ConnectedPayload{
		ConnID:     sess.ConnID.String(),
		ServerTime: r.now().UnixMilli(),
	}))
	sess.Deliver(event.NewStatsUpdated(sess.PrincipalID, r.snapshotFor(ctx, sess)))
	r.notifier.Connected(ctx, sess.PrincipalID, sess.Kind)
}

func (r *EventRouter) OnDisconnected(ctx context.Context, sess *registry.Session, reason string) {
	r.notifier.Disconnected(ctx, sess.PrincipalID, sess.Kind, reason)
}

// --- PULL HANDLERS ---

func (r *EventRouter) handleStatsRequest(ctx context.Context, sess *registry.Session) {
	if !r.throttle.Allow(sess.ConnID) {
		return
	}
	sess.Deliver(event.NewStatsUpdated(sess.PrincipalID, r.snapshotFor(ctx, sess)))
}

func (r *EventRouter) handleActivityRequest(ctx context.Context, sess *registry.Session, payload json.RawMessage) {
	var req dto.ActivityRequest
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			sess.Deliver(event.NewError(sess.PrincipalID, CodeValidation, "malformed activity request", nil))
			return
		}
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	// Admins have no audit trail to read back.
	if sess.Kind != model.KindUser {
		sess.Deliver(event.NewActivityUpdated(sess.PrincipalID, []model.ActivityRecord{}))
		return
	}

	recs, err := r.store.RecentActivity(ctx, sess.PrincipalID, limit)
	if err != nil {
		r.emitStoreErr(sess, "activity lookup failed", err)
		return
	}
	if recs == nil {
		recs = []model.ActivityRecord{}
	}
	sess.Deliver(event.NewActivityUpdated(sess.PrincipalID, recs))
}

// --- MUTATION HANDLERS ---

func (r *EventRouter) handleDeliveryUpdate(ctx context.Context, sess *registry.Session, payload json.RawMessage) {
	var req dto.DeliveryUpdate
	if err := json.Unmarshal(payload, &req); err != nil {
		sess.Deliver(event.NewError(sess.PrincipalID, CodeValidation, "malformed delivery update", nil))
		return
	}
	if req.ID == "" {
		sess.Deliver(event.NewError(sess.PrincipalID, CodeValidation, "missing delivery entry id", nil))
		return
	}
	if !r.requireUser(sess) {
		return
	}

	patch := model.DeliveryPatch{
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		ProductType: req.ProductType,
		Notes:       req.Notes,
		EntryDate:   req.EntryDate,
		Edited:      true,
		EditedAt:    r.now(),
	}
	// Never trust a client-supplied amount: derive it server-side when both
	// factors are present.
	if req.Quantity != nil && req.UnitPrice != nil {
		amount := *req.Quantity * *req.UnitPrice
		patch.Amount = &amount
	}

	entry, err := r.store.UpdateDelivery(ctx, sess.PrincipalID, req.ID, patch)
	if err != nil {
		r.emitStoreErr(sess, "delivery update failed", err)
		return
	}

	snap := r.stats.ComputeUserStats(ctx, sess.PrincipalID)
	r.hub.BroadcastToPrincipal(sess.PrincipalID, event.NewDeliveryUpdated(sess.PrincipalID, entry))
	r.hub.BroadcastToPrincipal(sess.PrincipalID, event.NewStatsUpdated(sess.PrincipalID, snap))

	r.notifier.MutationApplied(ctx, sess.PrincipalID, sess.Kind, model.ActivityDeliveryUpdated, entry.ID)
}

func (r *EventRouter) handlePaymentAdd(ctx context.Context, sess *registry.Session, payload json.RawMessage) {
	var req dto.PaymentAdd
	if err := json.Unmarshal(payload, &req); err != nil {
		sess.Deliver(event.NewError(sess.PrincipalID, CodeValidation, "malformed payment", nil))
		return
	}
	switch {
	case req.CustomerID == "":
		sess.Deliver(event.NewError(sess.PrincipalID, CodeValidation, "missing customer id", nil))
		return
	case req.Amount <= 0:
		sess.Deliver(event.NewError(sess.PrincipalID, CodeValidation, "payment amount must be positive", nil))
		return
	case req.Method == "":
		sess.Deliver(event.NewError(sess.PrincipalID, CodeValidation, "missing payment method", nil))
		return
	}
	if !r.requireUser(sess) {
		return
	}

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = r.now()
	}

	rec, err := r.store.CreatePayment(ctx, sess.PrincipalID, model.PaymentDraft{
		CustomerID:  req.CustomerID,
		Amount:      req.Amount,
		Method:      req.Method,
		Reference:   req.Reference,
		PaymentDate: paymentDate,
		Notes:       req.Notes,
	})
	if err != nil {
		r.emitStoreErr(sess, "payment create failed", err)
		return
	}

	// All-or-nothing: a failed balance recompute aborts the broadcast and
	// only an error reaches the originator.
	bal, err := r.stats.CustomerBalance(ctx, sess.PrincipalID, rec.CustomerID)
	if err != nil {
		r.emitStoreErr(sess, "balance recompute failed", err)
		return
	}
	snap := r.stats.ComputeUserStats(ctx, sess.PrincipalID)

	r.hub.BroadcastToPrincipal(sess.PrincipalID, event.NewPaymentAdded(sess.PrincipalID, rec))
	r.hub.BroadcastToPrincipal(sess.PrincipalID, event.NewBalanceUpdated(sess.PrincipalID, bal))
	r.hub.BroadcastToPrincipal(sess.PrincipalID, event.NewStatsUpdated(sess.PrincipalID, snap))

	// Payment creation is the one admin-observable trigger: every connected
	// admin gets a refreshed system snapshot, regardless of the vendor.
	r.fanOutSystemStats(ctx)

	r.notifier.MutationApplied(ctx, sess.PrincipalID, sess.Kind, model.ActivityPaymentAdded, rec.ID)
}

func (r *EventRouter) handleCustomerUpdate(ctx context.Context, sess *registry.Session, payload json.RawMessage) {
	var req dto.CustomerUpdate
	if err := json.Unmarshal(payload, &req); err != nil {
		sess.Deliver(event.NewError(sess.PrincipalID, CodeValidation, "malformed customer update", nil))
		return
	}
	if req.ID == "" {
		sess.Deliver(event.NewError(sess.PrincipalID, CodeValidation, "missing customer id", nil))
		return
	}
	if !r.requireUser(sess) {
		return
	}

	cust, err := r.store.UpdateCustomer(ctx, sess.PrincipalID, req.ID, model.CustomerPatch{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		Active:  req.Active,
	})
	if err != nil {
		r.emitStoreErr(sess, "customer update failed", err)
		return
	}

	snap := r.stats.ComputeUserStats(ctx, sess.PrincipalID)
	r.hub.BroadcastToPrincipal(sess.PrincipalID, event.NewCustomerUpdated(sess.PrincipalID, cust))
	r.hub.BroadcastToPrincipal(sess.PrincipalID, event.NewStatsUpdated(sess.PrincipalID, snap))

	r.notifier.MutationApplied(ctx, sess.PrincipalID, sess.Kind, model.ActivityCustomerUpdated, cust.ID)
}

// --- REST BRIDGE ---
// Writes applied by the REST layer re-enter here so realtime clients
// observe them; apply already happened, only recompute and broadcast run.

func (r *EventRouter) NotifyDeliveryUpdated(ctx context.Context, vendorID string, entry *model.DeliveryEntry) {
	snap := r.stats.ComputeUserStats(ctx, vendorID)
	r.hub.BroadcastToPrincipal(vendorID, event.NewDeliveryUpdated(vendorID, entry))
	r.hub.BroadcastToPrincipal(vendorID, event.NewStatsUpdated(vendorID, snap))
}

func (r *EventRouter) NotifyPaymentAdded(ctx context.Context, vendorID string, rec *model.PaymentRecord) {
	bal, err := r.stats.CustomerBalance(ctx, vendorID, rec.CustomerID)
	if err != nil {
		r.logger.Warn("bridge balance recompute failed", "vendor_id", vendorID, "err", err)
	} else {
		r.hub.BroadcastToPrincipal(vendorID, event.NewPaymentAdded(vendorID, rec))
		r.hub.BroadcastToPrincipal(vendorID, event.NewBalanceUpdated(vendorID, bal))
		snap := r.stats.ComputeUserStats(ctx, vendorID)
		r.hub.BroadcastToPrincipal(vendorID, event.NewStatsUpdated(vendorID, snap))
	}
	r.fanOutSystemStats(ctx)
}

func (r *EventRouter) NotifyCustomerUpdated(ctx context.Context, vendorID string, cust *model.Customer) {
	snap := r.stats.ComputeUserStats(ctx, vendorID)
	r.hub.BroadcastToPrincipal(vendorID, event.NewCustomerUpdated(vendorID, cust))
	r.hub.BroadcastToPrincipal(vendorID, event.NewStatsUpdated(vendorID, snap))
}

// --- HELPERS ---

func (r *EventRouter) snapshotFor(ctx context.Context, sess *registry.Session) any {
	switch sess.Kind {
	case model.KindAdmin:
		return r.stats.ComputeSystemStats(ctx)
	default:
		return r.stats.ComputeUserStats(ctx, sess.PrincipalID)
	}
}

func (r *EventRouter) fanOutSystemStats(ctx context.Context) {
	snap := r.stats.ComputeSystemStats(ctx)
	// System snapshots are not addressed to one principal.
	r.hub.BroadcastToAdmins(event.NewStatsUpdated("", snap))
}

func (r *EventRouter) requireUser(sess *registry.Session) bool {
	if sess.Kind == model.KindUser {
		return true
	}
	sess.Deliver(event.NewError(sess.PrincipalID, CodeForbidden, "mutations require a vendor session", nil))
	return false
}

func (r *EventRouter) emitStoreErr(sess *registry.Session, msg string, err error) {
	code := codeForStoreErr(err)
	if code == CodeInternal {
		r.logger.Error("event pipeline failed", "principal_id", sess.PrincipalID, "msg", msg, "err", err)
	}
	sess.Deliver(event.NewError(sess.PrincipalID, code, msg, nil))
}
