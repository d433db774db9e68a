// Package handlers exposes the capture agent's HTTP surface: the push
// endpoint host instrumentation feeds queue entries through, plus health
// probes.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sizzlebits/layerlens/capture/pkg/queue"
	"github.com/sizzlebits/layerlens/common/httputil"
	"github.com/sizzlebits/layerlens/common/logging"
)

// PushHandler accepts queue pushes over HTTP and forwards them into the
// named queue, where the interceptor observes them like any direct push.
type PushHandler struct {
	registry *queue.Registry
	log      *logging.Logger
}

func NewPushHandler(registry *queue.Registry, log *logging.Logger) *PushHandler {
	if log == nil {
		log = logging.Default()
	}
	return &PushHandler{registry: registry, log: log}
}

// HandlePush handles POST /api/v1/queues/{queue}/push. The body is one JSON
// value; a JSON array is treated as multiple push arguments, matching a
// variadic push call.
func (h *PushHandler) HandlePush(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("queue")
	if name == "" {
		httputil.WriteError(w, http.StatusBadRequest, "queue name required")
		return
	}

	var body interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	q := h.registry.Ensure(name)
	var length int
	if items, ok := body.([]interface{}); ok {
		length = q.Push(items...)
	} else {
		length = q.Push(body)
	}

	h.log.DebugContext(r.Context(), "queue push accepted",
		logging.Queue(name), "length", length)

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"length":  length,
	})
}

// Health handles liveness probes.
func (h *PushHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
