package bus

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dairyroute/realtime-service/internal/adapter/pubsub"
	"github.com/dairyroute/realtime-service/internal/adapter/store"
	"github.com/dairyroute/realtime-service/internal/domain/event"
	"github.com/dairyroute/realtime-service/internal/domain/model"
	"github.com/dairyroute/realtime-service/internal/domain/registry"
	"github.com/dairyroute/realtime-service/internal/service"
)

type bridgeFixture struct {
	mem *store.MemoryStore
	hub *registry.Hub
	bus pubsub.EventBus
}

func newBridgeFixture(t *testing.T) *bridgeFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	wmLogger := watermill.NopLogger{}

	mem := store.NewMemoryStore()
	hub := registry.NewHub(registry.WithSweepInterval(time.Hour), registry.WithIdleTimeout(time.Hour))
	t.Cleanup(hub.Shutdown)

	evRouter := service.NewEventRouter(
		hub,
		mem,
		service.NewAggregator(mem, logger),
		service.NewThrottle(time.Minute, logger),
		service.NewActivityNotifier(mem, logger),
		logger,
	)

	eventBus := pubsub.NewGoChannelBus(wmLogger)
	t.Cleanup(func() { _ = eventBus.Close() })

	wmRouter, err := NewBridgeRouter(wmLogger)
	require.NoError(t, err)
	require.NoError(t, NewBridgeHandler(evRouter, logger).RegisterHandlers(wmRouter, eventBus))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = wmRouter.Run(ctx) }()
	select {
	case <-wmRouter.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("bridge router did not start")
	}

	return &bridgeFixture{mem: mem, hub: hub, bus: eventBus}
}

func waitKind(t *testing.T, conn registry.Connector, want event.EventKind) event.Eventer {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-conn.Recv():
			require.True(t, ok, "connector closed while waiting for %v", want)
			if ev.GetKind() == want {
				return ev
			}
			t.Fatalf("expected %v, got %v", want, ev.GetKind())
		case <-deadline:
			t.Fatalf("timed out waiting for %v", want)
		}
	}
}

func TestBridgeReplaysRestPaymentToSockets(t *testing.T) {
	f := newBridgeFixture(t)
	now := time.Now()

	f.mem.SeedCustomer(model.Customer{ID: "c1", VendorID: "v1", Name: "Meera", Active: true})
	f.mem.SeedDelivery(model.DeliveryEntry{ID: "d1", VendorID: "v1", CustomerID: "c1", Amount: 800, EntryDate: now.AddDate(0, 0, -1)})
	// The REST side already persisted the payment; the bridge only
	// recomputes and broadcasts.
	rec := model.PaymentRecord{ID: "p1", VendorID: "v1", CustomerID: "c1", Amount: 500, Method: "UPI", PaymentDate: now}
	f.mem.SeedPayment(rec)

	vendorConn := registry.NewConnector(context.Background(), "v1", 32)
	f.hub.Admit(vendorConn, &model.UserAccount{ID: "v1", Active: true})
	adminConn := registry.NewConnector(context.Background(), "adm1", 32)
	f.hub.Admit(adminConn, &model.AdminAccount{ID: "adm1", Active: true})

	require.NoError(t, f.bus.Publish(context.Background(), TopicPaymentCreated, PaymentCreatedV1{
		VendorID: "v1",
		Payment:  rec,
	}))

	waitKind(t, vendorConn, event.PaymentAdded)
	balEv := waitKind(t, vendorConn, event.BalanceUpdated)
	bal := balEv.GetPayload().(*model.CustomerBalance)
	assert.InDelta(t, 300, bal.Balance, 1e-9)
	waitKind(t, vendorConn, event.StatsUpdated)
	waitKind(t, adminConn, event.StatsUpdated)
}

func TestBridgeReplaysRestCustomerUpdate(t *testing.T) {
	f := newBridgeFixture(t)
	f.mem.SeedCustomer(model.Customer{ID: "c1", VendorID: "v1", Name: "Renamed", Active: true})

	vendorConn := registry.NewConnector(context.Background(), "v1", 32)
	f.hub.Admit(vendorConn, &model.UserAccount{ID: "v1", Active: true})

	require.NoError(t, f.bus.Publish(context.Background(), TopicCustomerUpdated, CustomerUpdatedV1{
		VendorID: "v1",
		Customer: model.Customer{ID: "c1", VendorID: "v1", Name: "Renamed", Active: true},
	}))

	custEv := waitKind(t, vendorConn, event.CustomerUpdated)
	cust := custEv.GetPayload().(*model.Customer)
	assert.Equal(t, "Renamed", cust.Name)
	waitKind(t, vendorConn, event.StatsUpdated)
}
