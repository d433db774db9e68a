package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sizzlebits/layerlens/collector/internal/bridge"
	"github.com/sizzlebits/layerlens/collector/internal/handlers"
	"github.com/sizzlebits/layerlens/common/middleware"
)

// NewRouter wires the collector's HTTP surface: the capture bridge
// endpoint, the per-tab event API, archive search, metrics, and health.
func NewRouter(h *handlers.EventsHandler, br *bridge.Server) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /bridge", br.HandleBridge)

	mux.HandleFunc("GET /api/v1/tabs/{tab}/events", h.HandleGetEvents)
	mux.HandleFunc("DELETE /api/v1/tabs/{tab}/events", h.HandleClearEvents)
	mux.HandleFunc("GET /api/v1/events/search", h.HandleSearchArchive)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /readyz", h.Health)

	cors := middleware.CORS(middleware.DefaultCORSConfig())
	return middleware.RequestID(cors(mux))
}
