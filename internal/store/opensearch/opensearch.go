// Package opensearch implements the report store against an
// OpenSearch/Elasticsearch-compatible document index over plain HTTP.
package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/loykin/svcmon/internal/status"
	"github.com/loykin/svcmon/internal/store"
)

// DefaultIndex is the index name used when none is configured.
const DefaultIndex = "service-monitoring"

// indexMapping types the four record fields; keyword fields keep term
// queries and terms aggregations exact.
const indexMapping = `{
  "mappings": {
    "properties": {
      "service_name": {"type": "keyword"},
      "service_status": {"type": "keyword"},
      "host_name": {"type": "keyword"},
      "timestamp": {"type": "date", "format": "strict_date_optional_time||epoch_millis"}
    }
  }
}`

// Client talks to one index of an OpenSearch cluster.
type Client struct {
	client  *http.Client
	baseURL string
	index   string
}

// New builds a client for baseURL and index (DefaultIndex when empty).
func New(baseURL, index string) *Client {
	if index == "" {
		index = DefaultIndex
	}
	c := &http.Client{Timeout: 5 * time.Second}
	return &Client{client: c, baseURL: strings.TrimRight(baseURL, "/"), index: index}
}

// EnsureIndex creates the index with its mapping; an already existing index
// is not an error.
func (c *Client) EnsureIndex(ctx context.Context) error {
	u := fmt.Sprintf("%s/%s", c.baseURL, c.index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, strings.NewReader(indexMapping))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusBadRequest && strings.Contains(string(body), "resource_already_exists_exception") {
		return nil
	}
	return fmt.Errorf("opensearch create index status %d", resp.StatusCode)
}

// Ping checks cluster reachability.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("opensearch ping status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// Index stores one record document. refresh=true keeps the latest-status
// queries read-your-writes for the ingest endpoint.
func (c *Client) Index(ctx context.Context, rec status.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	u := fmt.Sprintf("%s/%s/_doc?refresh=true", c.baseURL, c.index)
	b, _ := json.Marshal(rec)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("opensearch index status %d", resp.StatusCode)
	}
	return nil
}

type hit struct {
	Source status.Record `json:"_source"`
}

type hits struct {
	Hits []hit `json:"hits"`
}

type searchResponse struct {
	Hits         hits `json:"hits"`
	Aggregations struct {
		Services struct {
			Buckets []struct {
				Key    string `json:"key"`
				Latest struct {
					Hits hits `json:"hits"`
				} `json:"latest"`
			} `json:"buckets"`
		} `json:"services"`
	} `json:"aggregations"`
}

func (c *Client) search(ctx context.Context, query string) (*searchResponse, error) {
	u := fmt.Sprintf("%s/%s/_search", c.baseURL, c.index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(query))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		// index does not exist yet: no documents
		return &searchResponse{}, nil
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("opensearch search status %d", resp.StatusCode)
	}
	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &sr, nil
}

// Latest returns the newest record for one service.
func (c *Client) Latest(ctx context.Context, name string) (status.Record, error) {
	q, _ := json.Marshal(map[string]any{
		"query": map[string]any{"term": map[string]any{"service_name": name}},
		"sort":  []any{map[string]any{"timestamp": map[string]any{"order": "desc"}}},
		"size":  1,
	})
	sr, err := c.search(ctx, string(q))
	if err != nil {
		return status.Record{}, err
	}
	if len(sr.Hits.Hits) == 0 {
		return status.Record{}, store.ErrNotFound
	}
	return sr.Hits.Hits[0].Source, nil
}

// LatestAll returns the newest status per service via a terms aggregation
// with a one-hit top_hits sub-aggregation.
func (c *Client) LatestAll(ctx context.Context) (map[string]status.Status, error) {
	q, _ := json.Marshal(map[string]any{
		"query": map[string]any{"match_all": map[string]any{}},
		"aggs": map[string]any{
			"services": map[string]any{
				"terms": map[string]any{"field": "service_name"},
				"aggs": map[string]any{
					"latest": map[string]any{
						"top_hits": map[string]any{
							"sort": []any{map[string]any{"timestamp": map[string]any{"order": "desc"}}},
							"size": 1,
						},
					},
				},
			},
		},
		"size": 0,
	})
	sr, err := c.search(ctx, string(q))
	if err != nil {
		return nil, err
	}
	out := make(map[string]status.Status)
	for _, b := range sr.Aggregations.Services.Buckets {
		if len(b.Latest.Hits.Hits) == 0 {
			continue
		}
		doc := b.Latest.Hits.Hits[0].Source
		out[doc.ServiceName] = doc.ServiceStatus
	}
	return out, nil
}
