package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/sizzlebits/layerlens/common/settings"
)

type Coordinator struct {
	httpClient
}

func NewCoordinator(baseURL string) *Coordinator {
	return &Coordinator{newHTTPClient(baseURL)}
}

func (c *Coordinator) GetSettings(ctx context.Context, domain string) (*settings.GetResponse, error) {
	query := url.Values{}
	if domain != "" {
		query.Set("domain", domain)
	}
	var out settings.GetResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/settings", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Coordinator) UpdateSettings(ctx context.Context, domain string, patch settings.Override, saveGlobal bool) error {
	query := url.Values{}
	if domain != "" {
		query.Set("domain", domain)
	}
	if saveGlobal {
		query.Set("save_global", "true")
	}
	return c.doJSON(ctx, http.MethodPatch, "/api/v1/settings", query, patch, nil)
}

func (c *Coordinator) Domains(ctx context.Context) (map[string]settings.Override, error) {
	var out settings.DomainsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/settings/domains", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.DomainSettings, nil
}

func (c *Coordinator) DeleteDomain(ctx context.Context, domain string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/settings/domains/"+url.PathEscape(domain), nil, nil, nil)
}

// Export returns the raw bundle so it can be written to disk unmodified.
func (c *Coordinator) Export(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/settings/export", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Coordinator) Import(ctx context.Context, bundle json.RawMessage) error {
	return c.doJSON(ctx, http.MethodPost, "/api/v1/settings/import", nil, bundle, nil)
}

func (c *Coordinator) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}
