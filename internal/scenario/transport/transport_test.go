package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/axisgrid/concentra/api/scenario"
	"github.com/axisgrid/concentra/internal/axis"
)

func validRequest() scenario.SimulationRequest {
	adjustments := make(map[axis.Slug]float64, axis.Count)
	for _, slug := range axis.All() {
		adjustments[slug] = 0
	}
	adjustments[axis.Energy] = -0.15
	return scenario.SimulationRequest{EntityCode: "SE", Adjustments: adjustments}
}

func TestSimulateReturnsBodyOnSuccess(t *testing.T) {
	t.Parallel()

	var got scenario.SimulationRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"country":"SE"}`))
	}))
	defer server.Close()

	client, err := NewHTTP(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	body, err := client.Simulate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if string(body) != `{"country":"SE"}` {
		t.Fatalf("unexpected body: %s", body)
	}
	if got.EntityCode != "SE" || len(got.Adjustments) != axis.Count {
		t.Fatalf("request not forwarded intact: %+v", got)
	}
}

func TestSimulateSendsAPIKeyHeader(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get("X-Api-Key"); key != "secret" {
			t.Errorf("expected api key header, got %q", key)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewHTTP(Config{Endpoint: server.URL, APIKey: "secret", APIKeyHeader: "X-Api-Key"})
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	if _, err := client.Simulate(context.Background(), validRequest()); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestSimulateClassifiesStatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		kind   scenario.FailureKind
	}{
		{name: "not_found", status: http.StatusNotFound, kind: scenario.FailureRouteMissing},
		{name: "bad_request", status: http.StatusBadRequest, kind: scenario.FailureBadInput},
		{name: "unprocessable", status: http.StatusUnprocessableEntity, kind: scenario.FailureBadInput},
		{name: "rate_limited", status: http.StatusTooManyRequests, kind: scenario.FailureServiceError},
		{name: "server_error", status: http.StatusInternalServerError, kind: scenario.FailureServiceError},
		{name: "bad_gateway", status: http.StatusBadGateway, kind: scenario.FailureServiceError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client, err := NewHTTP(Config{Endpoint: server.URL})
			if err != nil {
				t.Fatalf("build client: %v", err)
			}
			_, serr := client.Simulate(context.Background(), validRequest())
			f, ok := scenario.AsFailure(serr)
			if !ok {
				t.Fatalf("expected classified failure, got %v", serr)
			}
			if f.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, f.Kind)
			}
			if f.StatusCode != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, f.StatusCode)
			}
		})
	}
}

func TestSimulateClassifiesNetworkFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client, err := NewHTTP(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	_, serr := client.Simulate(context.Background(), validRequest())
	f, ok := scenario.AsFailure(serr)
	if !ok || f.Kind != scenario.FailureTransportBlocked {
		t.Fatalf("expected transport_blocked, got %v", serr)
	}
	if f.StatusCode != 0 {
		t.Fatalf("network failures carry no status code, got %d", f.StatusCode)
	}
}

func TestSimulateRejectsMalformedRequestBeforeNetwork(t *testing.T) {
	t.Parallel()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	client, err := NewHTTP(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("build client: %v", err)
	}

	req := validRequest()
	req.Adjustments[axis.Energy] = 0.5
	_, serr := client.Simulate(context.Background(), req)
	f, ok := scenario.AsFailure(serr)
	if !ok || f.Kind != scenario.FailureBadInput {
		t.Fatalf("expected bad_input, got %v", serr)
	}
	if calls != 0 {
		t.Fatalf("expected no network call for malformed request, got %d", calls)
	}
}

func TestSimulatePassesThroughCallerCancellation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client, err := NewHTTP(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("build client: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, serr := client.Simulate(ctx, validRequest())
	if serr != context.Canceled {
		t.Fatalf("expected context.Canceled passthrough, got %v", serr)
	}
}

func TestNewHTTPRequiresEndpoint(t *testing.T) {
	t.Parallel()

	if _, err := NewHTTP(Config{}); err == nil {
		t.Fatalf("expected endpoint requirement error")
	}
}
