// Package submit delivers accepted job records to the downstream
// ingestion API in batches.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/atlasjobs/harvester/pkg/jobs"
)

// apiKeyHeader authenticates every call to the ingestion API.
const apiKeyHeader = "X-API-Key"

// Response is the ingestion API's answer to a batch.
type Response struct {
	Created  int        `json:"created"`
	Skipped  int        `json:"skipped"`
	Rejected []Rejected `json:"rejected"`
}

// Rejected names one record the downstream refused and why.
type Rejected struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

type batchRequest struct {
	Jobs   []jobs.Payload `json:"jobs"`
	Source string         `json:"source"`
}

// Client talks to one ingestion endpoint.
type Client struct {
	endpoint string
	apiKey   string
	source   string
	http     *http.Client
	limiter  *rate.Limiter
}

// ClientConfig configures the ingestion client.
type ClientConfig struct {
	// Endpoint is the API base URL, e.g. "https://board.example.com".
	Endpoint string
	APIKey   string
	// Source tags every batch, e.g. "harvester".
	Source  string
	Timeout time.Duration
	// RateLimit is the maximum batch calls per second. Zero means
	// unlimited.
	RateLimit float64
}

// NewClient returns a Client for the given endpoint.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		source:   cfg.Source,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// SubmitBatch posts one batch of payloads to the batch endpoint and
// decodes the result. Any transport, status, or decode failure is
// returned as an error; the caller decides whether to retry.
func (c *Client) SubmitBatch(ctx context.Context, payloads []jobs.Payload) (*Response, error) {
	return c.post(ctx, "/api/batch/jobs", payloads)
}

// SubmitOne delivers a single record through the webhook endpoint. The
// ingestion API uses the same envelope either way.
func (c *Client) SubmitOne(ctx context.Context, payload jobs.Payload) (*Response, error) {
	return c.post(ctx, "/api/webhook/jobs", []jobs.Payload{payload})
}

func (c *Client) post(ctx context.Context, path string, payloads []jobs.Payload) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(batchRequest{Jobs: payloads, Source: c.source})
	if err != nil {
		return nil, fmt.Errorf("encoding batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("batch rejected with status %d: %s", resp.StatusCode, snippet)
	}

	var result Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding batch response: %w", err)
	}
	return &result, nil
}

// Health probes the ingestion API's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("building health request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
