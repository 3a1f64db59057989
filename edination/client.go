// Package edination is an HTTP client for the EDINation X12 API: parsing
// raw 850 text into structured interchanges, validating them, and
// generating 997 acknowledgments.
//
// The validation rule engine itself lives on the remote service; this
// client only moves documents across the wire.
package edination

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/justapithecus/drayage/interchange"
	"github.com/justapithecus/drayage/iox"
)

// DefaultBaseURL is the production EDINation endpoint.
const DefaultBaseURL = "https://api.edination.com/v2"

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 30 * time.Second

// authHeader carries the subscription key on every request.
const authHeader = "Ocp-Apim-Subscription-Key"

// Config configures the EDINation client.
type Config struct {
	// APIKey is the subscription key (required).
	APIKey string
	// BaseURL overrides the production endpoint (tests, mock servers).
	BaseURL string
	// Timeout is the per-request timeout (default 30s).
	Timeout time.Duration
}

// Client calls the EDINation X12 endpoints.
type Client struct {
	config Config
	client *http.Client
}

// New creates an EDINation client. Returns an error if the API key is empty.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("edination client requires an API key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	Code int
	Op   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("edination %s: unexpected status %d", e.Op, e.Code)
}

// Read parses raw 850 text into structured interchanges.
func (c *Client) Read(ctx context.Context, content string) ([]interchange.Interchange, error) {
	body, err := c.post(ctx, "/x12/read", "text/plain", []byte(content))
	if err != nil {
		return nil, err
	}

	var ics []interchange.Interchange
	if err := json.Unmarshal(body, &ics); err != nil {
		return nil, fmt.Errorf("edination read: decode response: %w", err)
	}
	return ics, nil
}

// Validate runs the remote validation rules against one interchange.
func (c *Client) Validate(ctx context.Context, ic *interchange.Interchange) (*interchange.OperationResult, error) {
	payload, err := json.Marshal(ic)
	if err != nil {
		return nil, fmt.Errorf("edination validate: marshal interchange: %w", err)
	}

	body, err := c.post(ctx, "/x12/validate", "application/json", payload)
	if err != nil {
		return nil, err
	}

	var result interchange.OperationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("edination validate: decode response: %w", err)
	}
	return &result, nil
}

// Ack generates a 997 acknowledgment for the interchange and renders it
// back to raw X12 bytes: /x12/ack produces the acknowledgment interchange,
// /x12/write serializes it.
func (c *Client) Ack(ctx context.Context, ic *interchange.Interchange) ([]byte, error) {
	payload, err := json.Marshal(ic)
	if err != nil {
		return nil, fmt.Errorf("edination ack: marshal interchange: %w", err)
	}

	ackBody, err := c.post(ctx, "/x12/ack", "application/json", payload)
	if err != nil {
		return nil, err
	}

	var acks []json.RawMessage
	if err := json.Unmarshal(ackBody, &acks); err != nil {
		return nil, fmt.Errorf("edination ack: decode response: %w", err)
	}
	if len(acks) == 0 {
		return nil, errors.New("edination ack: empty acknowledgment response")
	}

	raw, err := c.post(ctx, "/x12/write", "application/json", acks[0])
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// post performs one request and returns the response body on 2xx.
func (c *Client) post(ctx context.Context, path, contentType string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("edination %s: create request: %w", path, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(authHeader, c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("edination %s: request failed: %w", path, err)
	}
	defer iox.DiscardClose(resp.Body)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("edination %s: read response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Op: path}
	}
	return data, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
