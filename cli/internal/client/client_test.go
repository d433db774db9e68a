package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sizzlebits/layerlens/common/models"
	"github.com/sizzlebits/layerlens/common/settings"
)

func TestCollector_EventsQueryParams(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(EventsResult{
			Events: []models.CapturedEvent{models.NewCapturedEvent("page_view", nil, "dataLayer", 0)},
			Total:  1,
		})
	}))
	defer ts.Close()

	res, err := NewCollector(ts.URL).Events(t.Context(), 7, EventsQuery{
		Search:  "view",
		Filters: []string{"gtm.js", "gtm.click"},
		Mode:    "exclude",
		Names:   true,
	})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)

	assert.Equal(t, "/api/v1/tabs/7/events", gotPath)
	assert.Equal(t, []string{"view"}, gotQuery["search"])
	assert.Equal(t, []string{"gtm.js,gtm.click"}, gotQuery["filters"])
	assert.Equal(t, []string{"true"}, gotQuery["names"])
}

func TestCoordinator_UpdateSettings(t *testing.T) {
	var gotMethod string
	var gotBody settings.Override
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(settings.UpdateResponse{Success: true})
	}))
	defer ts.Close()

	maxEvents := 50
	err := NewCoordinator(ts.URL).UpdateSettings(t.Context(), "shop.example.com",
		settings.Override{MaxEvents: &maxEvents}, false)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	require.NotNil(t, gotBody.MaxEvents)
	assert.Equal(t, 50, *gotBody.MaxEvents)
}

func TestErrorBodySurfaced(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "max_events must be positive"})
	}))
	defer ts.Close()

	err := NewCoordinator(ts.URL).UpdateSettings(t.Context(), "", settings.Override{}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_events must be positive")
}

func TestCapture_Push(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/queues/dataLayer/push", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "length": 4})
	}))
	defer ts.Close()

	n, err := NewCapture(ts.URL).Push(t.Context(), "dataLayer",
		map[string]interface{}{"event": "page_view"})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
