package server

import (
	"net/http"

	"github.com/sizzlebits/layerlens/capture/internal/handlers"
	"github.com/sizzlebits/layerlens/common/middleware"
)

// NewRouter constructs a ServeMux with capture agent routes registered.
func NewRouter(h *handlers.PushHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/queues/{queue}/push", h.HandlePush)

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Health)

	return middleware.RequestID(mux)
}
