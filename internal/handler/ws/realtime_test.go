package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dairyroute/realtime-service/internal/adapter/store"
	"github.com/dairyroute/realtime-service/internal/domain/model"
	"github.com/dairyroute/realtime-service/internal/domain/registry"
	"github.com/dairyroute/realtime-service/internal/service"
)

const wsTestSecret = "ws-test-secret"

type wsFixture struct {
	srv *httptest.Server
	mem *store.MemoryStore
	hub *registry.Hub
}

func newWSFixture(t *testing.T) *wsFixture {
	return newWSFixtureWithOrigins(t, nil)
}

func newWSFixtureWithOrigins(t *testing.T, allowedOrigins []string) *wsFixture {
	t.Helper()
	mem := store.NewMemoryStore()
	hub := registry.NewHub(registry.WithSweepInterval(time.Hour), registry.WithIdleTimeout(time.Hour))
	t.Cleanup(hub.Shutdown)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auther := service.NewAuthService([]byte(wsTestSecret), mem, logger)
	router := service.NewEventRouter(
		hub,
		mem,
		service.NewAggregator(mem, logger),
		service.NewThrottle(3*time.Second, logger),
		service.NewActivityNotifier(mem, logger),
		logger,
	)
	handler := NewWSHandler(logger, auther, hub, router, 32, allowedOrigins)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &wsFixture{srv: srv, mem: mem, hub: hub}
}

func (f *wsFixture) wsURL(token string) string {
	u := "ws" + strings.TrimPrefix(f.srv.URL, "http")
	if token != "" {
		u += "?token=" + url.QueryEscape(token)
	}
	return u
}

func mintWSToken(t *testing.T, scope, subject string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"scope": scope,
		"sub":   subject,
		"iat":   time.Now().Add(-time.Minute).Unix(),
		"exp":   time.Now().Add(ttl).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(wsTestSecret))
	require.NoError(t, err)
	return raw
}

type outFrame struct {
	Event   string          `json:"event"`
	ID      string          `json:"id"`
	SentAt  int64           `json:"sent_at"`
	Payload json.RawMessage `json:"payload"`
}

func readFrame(t *testing.T, conn *websocket.Conn) outFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame outFrame
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.NotEmpty(t, frame.ID)
	assert.NotZero(t, frame.SentAt)
	return frame
}

func TestRejectsMissingToken(t *testing.T) {
	f := newWSFixture(t)

	_, resp, err := websocket.DefaultDialer.Dial(f.wsURL(""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Equal(t, 0, f.hub.Count())
}

func TestRejectsExpiredToken(t *testing.T) {
	f := newWSFixture(t)
	f.mem.SeedUser(model.UserAccount{ID: "v1", Active: true})

	token := mintWSToken(t, service.ScopeVendor, "v1", -time.Minute)
	_, resp, err := websocket.DefaultDialer.Dial(f.wsURL(token), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Equal(t, 0, f.hub.Count(), "no session is admitted on auth failure")
}

func TestBearerHeaderAccepted(t *testing.T) {
	f := newWSFixture(t)
	f.mem.SeedUser(model.UserAccount{ID: "v1", Active: true})

	header := map[string][]string{
		"Authorization": {"Bearer " + mintWSToken(t, service.ScopeVendor, "v1", time.Hour)},
	}
	conn, _, err := websocket.DefaultDialer.Dial(f.wsURL(""), header)
	require.NoError(t, err)
	defer conn.Close()

	frame := readFrame(t, conn)
	assert.Equal(t, "connected", frame.Event)
}

func TestSessionLifecycle(t *testing.T) {
	f := newWSFixture(t)
	f.mem.SeedUser(model.UserAccount{ID: "v1", Active: true})
	f.mem.SeedCustomer(model.Customer{ID: "c1", VendorID: "v1", Name: "Meera", Active: true})
	f.mem.SeedDelivery(model.DeliveryEntry{
		ID: "d1", VendorID: "v1", CustomerID: "c1", Amount: 800,
		EntryDate: time.Now().AddDate(0, 0, -2),
	})

	token := mintWSToken(t, service.ScopeVendor, "v1", time.Hour)
	conn, _, err := websocket.DefaultDialer.Dial(f.wsURL(token), nil)
	require.NoError(t, err)
	defer conn.Close()

	// Greeting, then the initial snapshot.
	greet := readFrame(t, conn)
	require.Equal(t, "connected", greet.Event)
	var greetPayload model.ConnectedPayload
	require.NoError(t, json.Unmarshal(greet.Payload, &greetPayload))
	assert.NotEmpty(t, greetPayload.ConnID)

	snap := readFrame(t, conn)
	require.Equal(t, "stats:updated", snap.Event)

	assert.Equal(t, 1, f.hub.Count())

	// Heartbeat round trip.
	require.NoError(t, conn.WriteJSON(Envelope{Event: "ping"}))
	pong := readFrame(t, conn)
	assert.Equal(t, "pong", pong.Event)

	// Full payment pipeline over the wire.
	require.NoError(t, conn.WriteJSON(Envelope{
		Event:   "payment:add",
		Payload: json.RawMessage(`{"customer_id":"c1","amount":500,"method":"CASH"}`),
	}))

	pay := readFrame(t, conn)
	require.Equal(t, "payment:added", pay.Event)
	var rec model.PaymentRecord
	require.NoError(t, json.Unmarshal(pay.Payload, &rec))
	assert.InDelta(t, 500, rec.Amount, 1e-9)

	bal := readFrame(t, conn)
	require.Equal(t, "balance:updated", bal.Event)
	var balance model.CustomerBalance
	require.NoError(t, json.Unmarshal(bal.Payload, &balance))
	assert.InDelta(t, 300, balance.Balance, 1e-9)

	stats := readFrame(t, conn)
	require.Equal(t, "stats:updated", stats.Event)
	var userSnap model.UserStatsSnapshot
	require.NoError(t, json.Unmarshal(stats.Payload, &userSnap))
	assert.InDelta(t, 500, userSnap.TodayCollected, 1e-9)

	// Closing the socket releases the registry slot.
	conn.Close()
	assert.Eventually(t, func() bool { return f.hub.Count() == 0 }, 2*time.Second, 20*time.Millisecond)
}

func TestMalformedEnvelopeYieldsValidationError(t *testing.T) {
	f := newWSFixture(t)
	f.mem.SeedUser(model.UserAccount{ID: "v1", Active: true})

	token := mintWSToken(t, service.ScopeVendor, "v1", time.Hour)
	conn, _, err := websocket.DefaultDialer.Dial(f.wsURL(token), nil)
	require.NoError(t, err)
	defer conn.Close()

	readFrame(t, conn) // connected
	readFrame(t, conn) // stats:updated

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	frame := readFrame(t, conn)
	require.Equal(t, "error", frame.Event)
	var perr struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(frame.Payload, &perr))
	assert.Equal(t, service.CodeValidation, perr.Code)

	// The connection survives malformed input.
	require.NoError(t, conn.WriteJSON(Envelope{Event: "ping"}))
	assert.Equal(t, "pong", readFrame(t, conn).Event)
}

func TestOriginWhitelistEnforced(t *testing.T) {
	f := newWSFixtureWithOrigins(t, []string{"https://app.dairyroute.example"})
	f.mem.SeedUser(model.UserAccount{ID: "v1", Active: true})
	token := mintWSToken(t, service.ScopeVendor, "v1", time.Hour)

	// A foreign browser origin is refused during the handshake.
	_, resp, err := websocket.DefaultDialer.Dial(f.wsURL(token), map[string][]string{
		"Origin": {"https://evil.example"},
	})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 403, resp.StatusCode)
	assert.Equal(t, 0, f.hub.Count())

	// A whitelisted origin connects; the check is case-insensitive.
	conn, _, err := websocket.DefaultDialer.Dial(f.wsURL(token), map[string][]string{
		"Origin": {"HTTPS://APP.DAIRYROUTE.EXAMPLE"},
	})
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, "connected", readFrame(t, conn).Event)
}

func TestOriginlessClientsBypassWhitelist(t *testing.T) {
	f := newWSFixtureWithOrigins(t, []string{"https://app.dairyroute.example"})
	f.mem.SeedUser(model.UserAccount{ID: "v1", Active: true})
	token := mintWSToken(t, service.ScopeVendor, "v1", time.Hour)

	// Non-browser clients send no Origin header; the bearer token remains
	// the credential that matters.
	conn, _, err := websocket.DefaultDialer.Dial(f.wsURL(token), nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, "connected", readFrame(t, conn).Event)
}

func TestReconnectEvictsPriorSession(t *testing.T) {
	f := newWSFixture(t)
	f.mem.SeedUser(model.UserAccount{ID: "v1", Active: true})

	token := mintWSToken(t, service.ScopeVendor, "v1", time.Hour)

	first, _, err := websocket.DefaultDialer.Dial(f.wsURL(token), nil)
	require.NoError(t, err)
	defer first.Close()
	readFrame(t, first) // connected

	second, _, err := websocket.DefaultDialer.Dial(f.wsURL(token), nil)
	require.NoError(t, err)
	defer second.Close()
	readFrame(t, second) // connected

	assert.Eventually(t, func() bool { return f.hub.Count() == 1 }, 2*time.Second, 20*time.Millisecond,
		"last connection wins")

	// The first socket gets closed by the eviction.
	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			return
		}
	}
}
