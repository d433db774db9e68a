// Package archive is the optional long-term event sink. When enabled, every
// captured event is also bulk-indexed into OpenSearch, giving free-text
// history search beyond what the rolling tab buffers retain. The rolling
// buffers never depend on it; archive failures are counted and dropped.
package archive

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchutil"

	"github.com/sizzlebits/layerlens/common/logging"
	"github.com/sizzlebits/layerlens/common/models"
)

type Config struct {
	URL      string
	Username string
	Password string
	Insecure bool
	Index    string
}

// Doc is the indexed form of a captured event, annotated with its tab and
// originating host.
type Doc struct {
	models.CapturedEvent
	TabID int    `json:"tab_id"`
	Host  string `json:"host"`
}

// Indexer writes captured events to an OpenSearch index and serves history
// search over it.
type Indexer struct {
	client *opensearch.Client
	index  string
	log    *logging.Logger
}

func New(cfg Config, log *logging.Logger) (*Indexer, error) {
	if log == nil {
		log = logging.Default()
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.Insecure,
			},
		},
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: httpClient.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	info, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to ping opensearch: %w", err)
	}
	defer info.Body.Close()
	if info.IsError() {
		return nil, fmt.Errorf("opensearch returned error: %s", info.Status())
	}

	return &Indexer{client: client, index: cfg.Index, log: log}, nil
}

// IndexEvents bulk-indexes a batch of events. Individual document failures
// are logged; the returned error covers batch-level failures only.
func (ix *Indexer) IndexEvents(ctx context.Context, tabID int, host string, events []models.CapturedEvent) error {
	if len(events) == 0 {
		return nil
	}

	bi, err := opensearchutil.NewBulkIndexer(opensearchutil.BulkIndexerConfig{
		Client: ix.client,
		Index:  ix.index,
	})
	if err != nil {
		return fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	for _, evt := range events {
		data, err := json.Marshal(Doc{CapturedEvent: evt, TabID: tabID, Host: host})
		if err != nil {
			ix.log.Warn("failed to marshal archive doc", logging.EventID(evt.ID), logging.Error(err))
			continue
		}

		err = bi.Add(ctx, opensearchutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: evt.ID,
			Body:       bytes.NewReader(data),
			OnFailure: func(ctx context.Context, item opensearchutil.BulkIndexerItem, res opensearchutil.BulkIndexerResponseItem, err error) {
				if err != nil {
					ix.log.Warn("archive index failure", logging.Error(err))
				} else {
					ix.log.Warn("archive index failure", "type", res.Error.Type, "reason", res.Error.Reason)
				}
			},
		})
		if err != nil {
			ix.log.Warn("failed to add to bulk indexer", logging.Error(err))
		}
	}

	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("bulk indexer close: %w", err)
	}
	return nil
}

// Search runs a case-insensitive free-text query over event names and
// payloads, newest first.
func (ix *Indexer) Search(ctx context.Context, text string, limit int) ([]Doc, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := map[string]interface{}{
		"size": limit,
		"sort": []map[string]interface{}{
			{"timestamp": map[string]string{"order": "desc"}},
		},
		"query": map[string]interface{}{
			"query_string": map[string]interface{}{
				"query":  text,
				"fields": []string{"event_name", "source", "data.*"},
			},
		},
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshaling search query: %w", err)
	}

	res, err := ix.client.Search(
		ix.client.Search.WithContext(ctx),
		ix.client.Search.WithIndex(ix.index),
		ix.client.Search.WithBody(strings.NewReader(string(body))),
	)
	if err != nil {
		return nil, fmt.Errorf("executing archive search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("archive search failed: %s: %s", res.Status(), msg)
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source Doc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	out := make([]Doc, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
