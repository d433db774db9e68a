// Package handlers exposes the collector's HTTP API: per-tab event reads
// with filtering and grouping applied server side, event clearing, and
// archive search when an archive backend is configured.
package handlers

import (
	"net/http"

	"github.com/sizzlebits/layerlens/collector/internal/archive"
	"github.com/sizzlebits/layerlens/collector/internal/service"
	"github.com/sizzlebits/layerlens/collector/pkg/filtering"
	"github.com/sizzlebits/layerlens/collector/pkg/grouping"
	"github.com/sizzlebits/layerlens/common/httputil"
	"github.com/sizzlebits/layerlens/common/logging"
	"github.com/sizzlebits/layerlens/common/models"
	"github.com/sizzlebits/layerlens/common/settings"
)

type EventsHandler struct {
	svc     *service.Service
	indexer *archive.Indexer
	log     *logging.Logger
}

// NewEventsHandler builds the handler set. indexer may be nil when no
// archive backend is configured.
func NewEventsHandler(svc *service.Service, indexer *archive.Indexer, log *logging.Logger) *EventsHandler {
	if log == nil {
		log = logging.Default()
	}
	return &EventsHandler{svc: svc, indexer: indexer, log: log}
}

type eventsResponse struct {
	Events []models.CapturedEvent `json:"events"`
	Groups []grouping.Group       `json:"groups,omitempty"`
	Total  int                    `json:"total"`
	Names  []string               `json:"names,omitempty"`
}

// HandleGetEvents handles GET /api/v1/tabs/{tab}/events.
//
// Query parameters: search (substring over names and serialized payloads),
// filters (comma separated event names), mode (include or exclude, default
// exclude), grouped (apply the tab host's grouping settings), names
// (include the distinct event names of the unfiltered buffer).
func (h *EventsHandler) HandleGetEvents(w http.ResponseWriter, r *http.Request) {
	tabID := httputil.ParseIntParam(r.PathValue("tab"), -1)
	if tabID < 0 {
		httputil.WriteError(w, http.StatusBadRequest, "invalid tab id")
		return
	}

	// Reading the event list counts as user activity for this tab.
	h.svc.TouchInteraction(tabID)

	events := h.svc.Events(tabID)
	total := len(events)

	q := filtering.Query{
		SearchText:   r.URL.Query().Get("search"),
		EventFilters: httputil.ParseListParam(r.URL.Query().Get("filters")),
		FilterMode:   r.URL.Query().Get("mode"),
	}
	if q.FilterMode == "" {
		q.FilterMode = settings.FilterModeExclude
	}

	resp := eventsResponse{Total: total}
	if httputil.ParseBoolParam(r.URL.Query().Get("names"), false) {
		resp.Names = filtering.UniqueEventNames(events)
	}

	filtered := filtering.Filter(events, q)
	resp.Events = filtered

	if httputil.ParseBoolParam(r.URL.Query().Get("grouped"), false) {
		host, _ := h.svc.TabHost(tabID)
		eff := h.svc.EffectiveSettings(r.Context(), host)
		// Partition wants chronological input; the store hands out
		// newest first.
		resp.Groups = grouping.Partition(reversed(filtered), eff.Grouping)
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleClearEvents handles DELETE /api/v1/tabs/{tab}/events. Clearing
// drops the in-memory buffer and any persisted snapshot for the tab.
func (h *EventsHandler) HandleClearEvents(w http.ResponseWriter, r *http.Request) {
	tabID := httputil.ParseIntParam(r.PathValue("tab"), -1)
	if tabID < 0 {
		httputil.WriteError(w, http.StatusBadRequest, "invalid tab id")
		return
	}

	h.svc.Clear(r.Context(), tabID)
	h.log.InfoContext(r.Context(), "events cleared", logging.TabID(tabID))
	httputil.WriteSuccess(w)
}

// HandleSearchArchive handles GET /api/v1/events/search over the archive
// index. Returns 503 when no archive backend is configured.
func (h *EventsHandler) HandleSearchArchive(w http.ResponseWriter, r *http.Request) {
	if h.indexer == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "event archive not configured")
		return
	}

	text := r.URL.Query().Get("q")
	if text == "" {
		httputil.WriteError(w, http.StatusBadRequest, "q query parameter required")
		return
	}
	limit := httputil.ParseIntParam(r.URL.Query().Get("limit"), 100)

	docs, err := h.indexer.Search(r.Context(), text, limit)
	if err != nil {
		h.log.ErrorContext(r.Context(), "archive search failed", logging.Error(err))
		httputil.WriteError(w, http.StatusBadGateway, "archive search failed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"results": docs,
		"count":   len(docs),
	})
}

func (h *EventsHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func reversed(events []models.CapturedEvent) []models.CapturedEvent {
	out := make([]models.CapturedEvent, len(events))
	for i, evt := range events {
		out[len(events)-1-i] = evt
	}
	return out
}
