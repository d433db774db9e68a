package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sizzlebits/layerlens/common/logging"
	"github.com/sizzlebits/layerlens/common/settings"
	"github.com/sizzlebits/layerlens/coordinator/internal/handlers"
	"github.com/sizzlebits/layerlens/coordinator/internal/repository"
	"github.com/sizzlebits/layerlens/coordinator/internal/service"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := service.New(repository.NewMemoryRepository(), nil, nil)
	return NewRouter(handlers.NewSettingsHandler(svc, nil))
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_GetSettingsDefaults(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp settings.GetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 100, resp.Settings.MaxEvents)
	assert.Empty(t, resp.Domain)
}

func TestRouter_UpdateThenGetDomain(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPatch,
		"/api/v1/settings?domain=shop.example.com", `{"max_events":50}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/settings?domain=shop.example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp settings.GetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 50, resp.Settings.MaxEvents)
	assert.Equal(t, "shop.example.com", resp.Domain)

	// Unrelated domains are untouched.
	rec = do(t, router, http.MethodGet, "/api/v1/settings?domain=other.example.com", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 100, resp.Settings.MaxEvents)
}

func TestRouter_UpdateRejectsInvalidBody(t *testing.T) {
	router := newTestRouter(t)

	assert.Equal(t, http.StatusBadRequest,
		do(t, router, http.MethodPatch, "/api/v1/settings", "not json").Code)
	assert.Equal(t, http.StatusBadRequest,
		do(t, router, http.MethodPatch, "/api/v1/settings", `{"max_events":-1}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		do(t, router, http.MethodPatch, "/api/v1/settings", "").Code)
}

func TestRouter_DomainsListAndDelete(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, http.MethodPatch, "/api/v1/settings?domain=shop.example.com", `{"max_events":50}`)

	rec := do(t, router, http.MethodGet, "/api/v1/settings/domains", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp settings.DomainsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.DomainSettings, "shop.example.com")

	assert.Equal(t, http.StatusOK,
		do(t, router, http.MethodDelete, "/api/v1/settings/domains/shop.example.com", "").Code)
	assert.Equal(t, http.StatusNotFound,
		do(t, router, http.MethodDelete, "/api/v1/settings/domains/shop.example.com", "").Code)
}

func TestRouter_ExportImportRoundTrip(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, http.MethodPatch, "/api/v1/settings", `{"max_events":300}`)
	do(t, router, http.MethodPatch, "/api/v1/settings?domain=shop.example.com", `{"persist_events":true}`)

	rec := do(t, router, http.MethodGet, "/api/v1/settings/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	exported := rec.Body.String()

	fresh := newTestRouter(t)
	require.Equal(t, http.StatusOK,
		do(t, fresh, http.MethodPost, "/api/v1/settings/import", exported).Code)

	rec = do(t, fresh, http.MethodGet, "/api/v1/settings?domain=shop.example.com", "")
	var resp settings.GetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 300, resp.Settings.MaxEvents)
	assert.True(t, resp.Settings.PersistEvents)
}

func TestRouter_ImportRejectsForeignBundle(t *testing.T) {
	router := newTestRouter(t)

	assert.Equal(t, http.StatusBadRequest,
		do(t, router, http.MethodPost, "/api/v1/settings/import",
			`{"global":{},"domains":{},"vendor":"other-tool"}`).Code)
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_UpdateLogsClientAddress(t *testing.T) {
	var buf bytes.Buffer
	logger := &logging.Logger{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}
	svc := service.New(repository.NewMemoryRepository(), nil, nil)
	router := NewRouter(handlers.NewSettingsHandler(svc, logger))

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/settings?domain=shop.example",
		strings.NewReader(`{"max_events":50}`))
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), `"client_ip":"203.0.113.9"`)
}
