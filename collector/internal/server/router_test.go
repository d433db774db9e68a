package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sizzlebits/layerlens/collector/internal/bridge"
	"github.com/sizzlebits/layerlens/collector/internal/handlers"
	"github.com/sizzlebits/layerlens/collector/internal/service"
	"github.com/sizzlebits/layerlens/collector/internal/store"
	"github.com/sizzlebits/layerlens/common/models"
)

func newTestRouter(t *testing.T) (http.Handler, *service.Service) {
	t.Helper()
	svc := service.New(store.New(100), nil, nil, nil, nil)
	h := handlers.NewEventsHandler(svc, nil, nil)
	return NewRouter(h, bridge.NewServer(svc, nil)), svc
}

func seed(t *testing.T, svc *service.Service, tabID int, names ...string) {
	t.Helper()
	for i, name := range names {
		svc.Ingest(t.Context(), tabID, "shop.example.com",
			models.NewCapturedEvent(name, map[string]interface{}{"n": i}, "dataLayer", i))
	}
}

func TestRouter_GetEvents(t *testing.T) {
	router, svc := newTestRouter(t)
	seed(t, svc, 4, "gtm.js", "page_view", "add_to_cart")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tabs/4/events", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Events []models.CapturedEvent `json:"events"`
		Total  int                    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 3)
	assert.Equal(t, 3, resp.Total)
	// Newest first.
	assert.Equal(t, "add_to_cart", resp.Events[0].EventName)
}

func TestRouter_GetEvents_FilteredAndSearched(t *testing.T) {
	router, svc := newTestRouter(t)
	seed(t, svc, 4, "gtm.js", "gtm.click", "page_view", "add_to_cart")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/tabs/4/events?filters=gtm.js,gtm.click&mode=exclude&search=view", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Events []models.CapturedEvent `json:"events"`
		Total  int                    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "page_view", resp.Events[0].EventName)
	// Total reports the unfiltered buffer size.
	assert.Equal(t, 4, resp.Total)
}

func TestRouter_GetEvents_GroupedAndNames(t *testing.T) {
	router, svc := newTestRouter(t)
	seed(t, svc, 4, "b_event", "a_event")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/tabs/4/events?grouped=true&names=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Groups []json.RawMessage `json:"groups"`
		Names  []string          `json:"names"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// Grouping is off in the default settings, so a grouped read yields
	// a flat list and no groups.
	assert.Empty(t, resp.Groups)
	assert.Equal(t, []string{"a_event", "b_event"}, resp.Names)
}

func TestRouter_GetEvents_InvalidTab(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tabs/abc/events", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_ClearEvents(t *testing.T) {
	router, svc := newTestRouter(t)
	seed(t, svc, 4, "page_view")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/tabs/4/events", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.Events(4))
}

func TestRouter_ArchiveSearchUnconfigured(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/search?q=cart", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_Metrics(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
