package conceptnet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aleksaelezovic/trigo-conceptnet/internal/metrics"
	"github.com/aleksaelezovic/trigo-conceptnet/pkg/store"
)

// Client issues edge and count requests against a ConceptNet endpoint
type Client struct {
	endpoint   string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// NewClient creates a client for endpoint. A nil httpClient uses
// http.DefaultClient; a nil m records into an unregistered metric set.
func NewClient(endpoint string, httpClient *http.Client, m *metrics.Metrics) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if m == nil {
		m = metrics.New()
	}
	return &Client{
		endpoint:   NormalizeEndpoint(endpoint),
		httpClient: httpClient,
		metrics:    m,
	}
}

// Endpoint returns the normalized endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// QueryURL returns the edge request URL for a pattern page.
func (c *Client) QueryURL(pattern store.Pattern, offset, limit *int) string {
	return c.endpoint + BuildQuery(pattern, offset, limit)
}

// CountURL returns the count request URL for a pattern.
func (c *Client) CountURL(pattern store.Pattern) string {
	return c.endpoint + "/count" + BuildQuery(pattern, nil, nil)
}

// Edges fetches one page of edges. The boolean result is false when the
// response carries no edge collection.
func (c *Client) Edges(ctx context.Context, pattern store.Pattern, offset, limit *int) ([]Edge, bool, error) {
	body, err := c.get(ctx, "edges", c.QueryURL(pattern, offset, limit))
	if err != nil {
		return nil, false, err
	}

	object, err := decodeObject(body)
	if err != nil {
		return nil, false, err
	}
	if object == nil {
		return nil, false, nil
	}

	var resp edgesResponse
	if err := json.Unmarshal(object, &resp); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return resp.Edges, resp.Edges != nil, nil
}

// Count fetches the number of edges matching a pattern.
func (c *Client) Count(ctx context.Context, pattern store.Pattern) (int64, error) {
	body, err := c.get(ctx, "count", c.CountURL(pattern))
	if err != nil {
		return 0, err
	}

	object, err := decodeObject(body)
	if err != nil {
		return 0, err
	}
	if object == nil {
		return 0, ErrCountFailed
	}

	var resp countResponse
	if err := json.Unmarshal(object, &resp); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if resp.NumberOfEdges == nil {
		return 0, ErrCountFailed
	}
	return *resp.NumberOfEdges, nil
}

// decodeObject checks that body is JSON and returns it when it is an
// object. Other JSON values (arrays, strings, null) yield nil.
func decodeObject(body []byte) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, nil
	}
	return raw, nil
}

func (c *Client) get(ctx context.Context, kind, url string) ([]byte, error) {
	start := time.Now()
	defer func() {
		c.metrics.FetchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrTransport, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrTransport, err)
	}
	return body, nil
}
