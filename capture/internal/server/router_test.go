package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sizzlebits/layerlens/capture/internal/handlers"
	"github.com/sizzlebits/layerlens/capture/pkg/queue"
)

func TestRouter_Push(t *testing.T) {
	reg := queue.NewRegistry()
	router := NewRouter(handlers.NewPushHandler(reg, nil))

	body := `{"event":"page_view","page":"/x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/queues/dataLayer/push", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(1), resp["length"])

	q, ok := reg.Get("dataLayer")
	require.True(t, ok)
	assert.Equal(t, 1, q.Len())
}

func TestRouter_PushArrayBody(t *testing.T) {
	reg := queue.NewRegistry()
	router := NewRouter(handlers.NewPushHandler(reg, nil))

	body := `[{"event":"a"},{"event":"b"}]`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/queues/dataLayer/push", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	q, _ := reg.Get("dataLayer")
	assert.Equal(t, 2, q.Len())
}

func TestRouter_PushInvalidJSON(t *testing.T) {
	reg := queue.NewRegistry()
	router := NewRouter(handlers.NewPushHandler(reg, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/queues/dataLayer/push", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, ok := reg.Get("dataLayer")
	assert.False(t, ok)
}

func TestRouter_Health(t *testing.T) {
	router := NewRouter(handlers.NewPushHandler(queue.NewRegistry(), nil))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
