// Package handlers exposes the coordinator's HTTP API over the settings
// service: scope resolution, partial updates, domain management, and
// bundle export/import.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sizzlebits/layerlens/common/httputil"
	"github.com/sizzlebits/layerlens/common/logging"
	"github.com/sizzlebits/layerlens/common/settings"
	"github.com/sizzlebits/layerlens/coordinator/internal/repository"
	"github.com/sizzlebits/layerlens/coordinator/internal/service"
)

const maxImportBytes = 1 << 20

type SettingsHandler struct {
	svc *service.Service
	log *logging.Logger
}

func NewSettingsHandler(svc *service.Service, log *logging.Logger) *SettingsHandler {
	if log == nil {
		log = logging.Default()
	}
	return &SettingsHandler{svc: svc, log: log}
}

// HandleGet handles GET /api/v1/settings?domain=. Without a domain the
// global scope is resolved.
func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")

	eff, err := h.svc.GetEffective(r.Context(), domain)
	if err != nil {
		h.log.ErrorContext(r.Context(), "settings resolution failed",
			logging.Domain(domain), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to resolve settings")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, settings.GetResponse{Settings: eff, Domain: domain})
}

// HandleUpdate handles PATCH /api/v1/settings?domain=&save_global=. The
// body is a partial record; absent fields keep their stored values.
func (h *SettingsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")
	saveGlobal := httputil.ParseBoolParam(r.URL.Query().Get("save_global"), false)

	var patch settings.Override
	if err := decodeBody(r, &patch); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.svc.Update(r.Context(), domain, patch, saveGlobal); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.log.InfoContext(r.Context(), "settings updated over http",
		logging.Domain(domain), logging.ClientIP(httputil.GetClientIP(r)))
	httputil.WriteJSON(w, http.StatusOK, settings.UpdateResponse{Success: true, Domain: domain})
}

// HandleListDomains handles GET /api/v1/settings/domains.
func (h *SettingsHandler) HandleListDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := h.svc.ListDomains(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "listing domain settings failed", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list domain settings")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, settings.DomainsResponse{DomainSettings: domains})
}

// HandleDeleteDomain handles DELETE /api/v1/settings/domains/{domain}.
func (h *SettingsHandler) HandleDeleteDomain(w http.ResponseWriter, r *http.Request) {
	domain := r.PathValue("domain")

	err := h.svc.DeleteDomain(r.Context(), domain)
	if errors.Is(err, repository.ErrDomainNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "no settings stored for domain")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete domain settings")
		return
	}
	h.log.InfoContext(r.Context(), "domain settings deleted over http",
		logging.Domain(domain), logging.ClientIP(httputil.GetClientIP(r)))
	httputil.WriteSuccess(w)
}

// HandleExport handles GET /api/v1/settings/export.
func (h *SettingsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.svc.Export(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "settings export failed", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to export settings")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="layerlens-settings.json"`)
	httputil.WriteJSON(w, http.StatusOK, bundle)
}

// HandleImport handles POST /api/v1/settings/import. The body must be a
// complete bundle; a bundle that fails validation changes nothing.
func (h *SettingsHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if err := h.svc.Import(r.Context(), data); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.log.InfoContext(r.Context(), "settings bundle imported over http",
		logging.ClientIP(httputil.GetClientIP(r)))
	httputil.WriteSuccess(w)
}

func (h *SettingsHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeBody(r *http.Request, out interface{}) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		return errors.New("failed to read request body")
	}
	if len(data) == 0 {
		return errors.New("request body required")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}
