package httpsrv

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dairyroute/realtime-service/internal/domain/registry"
	"github.com/dairyroute/realtime-service/internal/handler/ws"
)

// NewRouter mounts the realtime endpoint and the health probe.
func NewRouter(wsHandler *ws.WSHandler, hub registry.Hubber) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/ws", wsHandler.ServeHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"hub":    hub.Stats(),
		})
	})

	return r
}
