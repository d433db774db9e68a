package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/sizzlebits/layerlens/common/models"
)

type Collector struct {
	httpClient
}

func NewCollector(baseURL string) *Collector {
	return &Collector{newHTTPClient(baseURL)}
}

// EventsQuery narrows an events listing.
type EventsQuery struct {
	Search  string
	Filters []string
	Mode    string
	Names   bool
}

// EventsResult is the collector's listing response.
type EventsResult struct {
	Events []models.CapturedEvent `json:"events"`
	Total  int                    `json:"total"`
	Names  []string               `json:"names,omitempty"`
}

func (c *Collector) Events(ctx context.Context, tabID int, q EventsQuery) (*EventsResult, error) {
	query := url.Values{}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	if len(q.Filters) > 0 {
		query.Set("filters", strings.Join(q.Filters, ","))
	}
	if q.Mode != "" {
		query.Set("mode", q.Mode)
	}
	if q.Names {
		query.Set("names", "true")
	}

	var out EventsResult
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/tabs/"+intQuery(tabID)+"/events", query, nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Collector) ClearEvents(ctx context.Context, tabID int) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/tabs/"+intQuery(tabID)+"/events", nil, nil, nil)
}

// ArchiveResult is one archived event hit.
type ArchiveResult struct {
	models.CapturedEvent
	TabID int    `json:"tab_id"`
	Host  string `json:"host"`
}

func (c *Collector) SearchArchive(ctx context.Context, text string, limit int) ([]ArchiveResult, error) {
	query := url.Values{"q": {text}}
	if limit > 0 {
		query.Set("limit", intQuery(limit))
	}

	var out struct {
		Results []ArchiveResult `json:"results"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/events/search", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Collector) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}
