// Package transport carries simulation requests to the upstream simulation
// service. Every failure leaves this package as a classified *scenario.Failure
// so the controller never has to inspect raw transport errors.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/axisgrid/concentra/api/scenario"
)

const maxResponseBytes = 1 << 20

// Client carries one simulation request and returns the raw response body.
type Client interface {
	Simulate(ctx context.Context, req scenario.SimulationRequest) ([]byte, error)
}

// Config configures the JSON-over-HTTP simulation client.
type Config struct {
	Endpoint      string
	Method        string
	APIKey        string
	APIKeyHeader  string
	StaticHeaders map[string]string
	Timeout       time.Duration
	HTTPClient    *http.Client
}

// HTTP is the JSON-over-HTTP simulation client.
type HTTP struct {
	cfg    Config
	client *http.Client
}

// NewHTTP constructs an HTTP simulation client.
func NewHTTP(cfg Config) (*HTTP, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("simulation endpoint is required")
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodPost
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &HTTP{cfg: cfg, client: client}, nil
}

// Simulate executes one simulation attempt. The returned error is always a
// classified *scenario.Failure except for caller cancellation, which is
// passed through unchanged.
func (h *HTTP) Simulate(ctx context.Context, req scenario.SimulationRequest) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, scenario.NewFailure(scenario.FailureBadInput, err.Error())
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, scenario.NewFailure(scenario.FailureBadInput, fmt.Sprintf("encode request: %v", err))
	}

	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, h.cfg.Method, h.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, scenario.NewFailure(scenario.FailureBadInput, fmt.Sprintf("build request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if h.cfg.APIKeyHeader != "" && h.cfg.APIKey != "" {
		httpReq.Header.Set(h.cfg.APIKeyHeader, h.cfg.APIKey)
	}
	for key, value := range h.cfg.StaticHeaders {
		httpReq.Header.Set(key, value)
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, normalizeNetworkError(ctx, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, scenario.NewFailure(scenario.FailureTransportBlocked, fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return payload, nil
	}
	return nil, normalizeStatus(resp.StatusCode)
}

func normalizeNetworkError(ctx context.Context, err error) error {
	// Caller cancellation is not a service failure. The controller drops
	// superseded attempts on ctx.Err() without surfacing anything.
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return scenario.NewFailure(scenario.FailureServiceError, "simulation request timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return scenario.NewFailure(scenario.FailureServiceError, "simulation request timed out")
	}
	return scenario.NewFailure(scenario.FailureTransportBlocked, fmt.Sprintf("network failure: %v", err))
}

func normalizeStatus(status int) error {
	var f *scenario.Failure
	switch {
	case status == http.StatusNotFound:
		f = scenario.NewFailure(scenario.FailureRouteMissing, "simulation endpoint not deployed")
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests:
		f = scenario.NewFailure(scenario.FailureServiceError, "simulation service overloaded")
	case status >= 400 && status <= 499:
		f = scenario.NewFailure(scenario.FailureBadInput, "simulation service rejected the request")
	default:
		f = scenario.NewFailure(scenario.FailureServiceError, "simulation service failure")
	}
	f.StatusCode = status
	return f
}
