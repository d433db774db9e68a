package client

import (
	"context"
	"net/http"
	"net/url"
)

type Capture struct {
	httpClient
}

func NewCapture(baseURL string) *Capture {
	return &Capture{newHTTPClient(baseURL)}
}

// Push appends one entry to a monitored queue on the capture agent, as a
// page script would. The seeder drives this endpoint.
func (c *Capture) Push(ctx context.Context, queue string, entry interface{}) (int, error) {
	var out struct {
		Length int `json:"length"`
	}
	err := c.doJSON(ctx, http.MethodPost,
		"/api/v1/queues/"+url.PathEscape(queue)+"/push", nil, entry, &out)
	if err != nil {
		return 0, err
	}
	return out.Length, nil
}

func (c *Capture) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}
