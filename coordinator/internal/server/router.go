package server

import (
	"net/http"

	"github.com/sizzlebits/layerlens/common/middleware"
	"github.com/sizzlebits/layerlens/coordinator/internal/handlers"
)

// NewRouter wires the coordinator's HTTP surface.
func NewRouter(h *handlers.SettingsHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/settings", h.HandleGet)
	mux.HandleFunc("PATCH /api/v1/settings", h.HandleUpdate)
	mux.HandleFunc("GET /api/v1/settings/domains", h.HandleListDomains)
	mux.HandleFunc("DELETE /api/v1/settings/domains/{domain}", h.HandleDeleteDomain)
	mux.HandleFunc("GET /api/v1/settings/export", h.HandleExport)
	mux.HandleFunc("POST /api/v1/settings/import", h.HandleImport)

	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /readyz", h.Health)

	cors := middleware.CORS(middleware.DefaultCORSConfig())
	return middleware.RequestID(cors(mux))
}
