// Package dispatch forwards completed purchase orders to FlowSync, the
// downstream order integration service, via HTTP POST.
//
// Dispatch is deliberately single-attempt: the poller retries the whole
// document on the next cycle while its remote file stays unmarked, so an
// in-process retry loop here would only multiply deliveries.
package dispatch

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

	"github.com/justapithecus/drayage/iox"
	"github.com/justapithecus/drayage/types"
)

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 10 * time.Second

// Config configures the FlowSync dispatcher.
type Config struct {
	// URL is the FlowSync base URL (required).
	URL string
	// Headers are custom HTTP headers added to each request.
	Headers map[string]string
	// Timeout is the per-request timeout (default 10s).
	Timeout time.Duration
}

// Dispatcher posts purchase orders to FlowSync.
type Dispatcher struct {
	config Config
	client *http.Client
}

// New creates a dispatcher from the given config.
// Returns an error if the URL is empty.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.URL == "" {
		return nil, errors.New("dispatcher requires a URL")
	}
	cfg.URL = strings.TrimSuffix(cfg.URL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Dispatcher{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// ResultError is returned when FlowSync accepts the request but reports a
// processing failure in the response body.
type ResultError struct {
	Status  string
	Message string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("flowsync rejected order: %s: %s", e.Status, e.Message)
}

// result is the FlowSync response envelope.
type result struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Send posts one purchase order to FlowSync's order endpoint.
func (d *Dispatcher) Send(ctx context.Context, po *types.PurchaseOrder) error {
	payload, err := json.Marshal(map[string]any{"order": po})
	if err != nil {
		return fmt.Errorf("dispatch: marshal order %s: %w", po.Header.PONumber, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.URL+"/order", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("dispatch: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range d.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch: request failed: %w", err)
	}
	defer iox.DiscardClose(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("dispatch: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("dispatch order %s: %w", po.Header.PONumber, &StatusError{Code: resp.StatusCode})
	}

	var r result
	if len(body) > 0 {
		if err := json.Unmarshal(body, &r); err != nil {
			return fmt.Errorf("dispatch: decode response: %w", err)
		}
	}
	if r.Status != "" && r.Status != "success" {
		return fmt.Errorf("dispatch order %s: %w", po.Header.PONumber, &ResultError{Status: r.Status, Message: r.Message})
	}
	return nil
}

// Close releases dispatcher resources.
func (d *Dispatcher) Close() error {
	d.client.CloseIdleConnections()
	return nil
}
