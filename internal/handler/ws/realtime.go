package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dairyroute/realtime-service/internal/domain/event"
	"github.com/dairyroute/realtime-service/internal/domain/registry"
	wsmarshaller "github.com/dairyroute/realtime-service/internal/handler/marshaller/ws"
	"github.com/dairyroute/realtime-service/internal/service"
)

const writeTimeout = 5 * time.Second

type WSHandler struct {
	logger     *slog.Logger
	auther     service.Auther
	hub        registry.Hubber
	router     *service.EventRouter
	upgrader   websocket.Upgrader
	sendBuffer int
}

func NewWSHandler(logger *slog.Logger, auther service.Auther, hub registry.Hubber, router *service.EventRouter, sendBuffer int, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		logger: logger,
		auther: auther,
		hub:    hub,
		router: router,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
		sendBuffer: sendBuffer,
	}
}

// originChecker builds the handshake origin policy. An empty whitelist
// admits every origin (development default); otherwise only whitelisted
// browser origins pass, while origin-less non-browser clients stay
// admitted because the bearer token is the actual credential.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[strings.ToLower(origin)] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.ToLower(origin)]
		return ok
	}
}

// ServeHTTP is the connection lifecycle: authenticate, upgrade, admit,
// pump. Authentication happens exactly once, before the upgrade; a failed
// credential never reaches the registry or any event handler.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal, err := h.auther.Authenticate(r.Context(), bearerToken(r))
	if err != nil {
		h.logger.Warn("connection rejected", "remote", r.RemoteAddr, "err", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", "err", err)
		return
	}

	ctx := r.Context()
	connector := registry.NewConnector(ctx, principal.PrincipalID(), h.sendBuffer)
	sess := h.hub.Admit(connector, principal)

	h.logger.Info("ws opened",
		"principal_id", sess.PrincipalID,
		"kind", sess.Kind.String(),
		"conn_id", sess.ConnID)

	// Outbound pump. A closed Recv channel (eviction, shutdown, Remove)
	// closes the socket, which in turn unblocks the read loop below.
	go func() {
		defer conn.Close()
		for ev := range connector.Recv() {
			data, err := wsmarshaller.MarshalEvent(ev)
			if err != nil {
				h.logger.Error("failed to marshal ws event", "err", err)
				continue
			}
			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				h.logger.Warn("ws deadline set failed", "conn_id", sess.ConnID, "err", err)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Warn("ws send failed", "conn_id", sess.ConnID, "err", err)
				return
			}
		}
	}()

	h.router.OnConnected(ctx, sess)

	reason := h.readLoop(ctx, conn, sess)

	h.hub.Remove(sess.ConnID)
	h.router.OnDisconnected(ctx, sess, reason)
	h.logger.Info("ws closed", "conn_id", sess.ConnID, "reason", reason)
}

// readLoop processes inbound frames in arrival order until the socket
// dies. Returns the closure reason.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *registry.Session) string {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return "client closed"
			}
			return err.Error()
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			sess.Deliver(event.NewError(sess.PrincipalID, service.CodeValidation, "malformed event envelope", nil))
			continue
		}

		h.router.Dispatch(ctx, sess, env.Event, env.Payload)
	}
}

// bearerToken extracts the credential from the auth query field or an
// Authorization-style header.
func bearerToken(r *http.Request) string {
	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
