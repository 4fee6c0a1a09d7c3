// Package scenario defines the wire contract with the simulation service and
// the normalized failure taxonomy used at the controller boundary. Raw
// transport errors never cross that boundary; every failure is converted into
// one of the kinds below before the presentation layer sees it.
package scenario

import (
	"errors"
	"fmt"
	"math"

	"github.com/axisgrid/concentra/api/dataset"
	"github.com/axisgrid/concentra/internal/axis"
)

// Adjustment bounds. Every adjustment value on the wire is clamped into
// [AdjustmentMin, AdjustmentMax].
const (
	AdjustmentMin = -0.20
	AdjustmentMax = 0.20
)

// FailureKind is the normalized failure taxonomy.
type FailureKind string

const (
	// FailureBadInput is a malformed or out-of-domain request. Never retried;
	// surfaced before any network call wherever possible.
	FailureBadInput FailureKind = "bad_input"
	// FailureRouteMissing means the simulation endpoint is not deployed
	// (HTTP 404 equivalent). Never retried.
	FailureRouteMissing FailureKind = "route_missing"
	// FailureTransportBlocked is a network-level failure with no HTTP status.
	// Never retried.
	FailureTransportBlocked FailureKind = "transport_blocked"
	// FailureServiceError is an upstream 5xx-equivalent failure. Retried with
	// bounded backoff before being surfaced as service-unavailable.
	FailureServiceError FailureKind = "service_error"
	// FailureValidation is a syntactically successful response that fails the
	// core's own shape check. It signals a contract mismatch, not
	// unavailability, and is never retried.
	FailureValidation FailureKind = "validation_failure"
)

// Validate enforces known failure kinds.
func (k FailureKind) Validate() error {
	switch k {
	case FailureBadInput, FailureRouteMissing, FailureTransportBlocked, FailureServiceError, FailureValidation:
		return nil
	default:
		return fmt.Errorf("unknown failure kind: %q", k)
	}
}

// Retryable reports whether the kind participates in the retry schedule.
func (k FailureKind) Retryable() bool {
	return k == FailureServiceError
}

// Failure is a classified simulation failure.
type Failure struct {
	Kind       FailureKind `json:"kind"`
	Reason     string      `json:"reason"`
	StatusCode int         `json:"status_code,omitempty"`
}

// NewFailure builds a classified failure.
func NewFailure(kind FailureKind, reason string) *Failure {
	return &Failure{Kind: kind, Reason: reason}
}

func (f *Failure) Error() string {
	if f.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d)", f.Kind, f.Reason, f.StatusCode)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Reason)
}

// AsFailure unwraps a classified failure from an error chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// SimulationRequest is the payload sent to the simulation service. The shape
// is constant: all six axes are always present with clamped values.
type SimulationRequest struct {
	EntityCode  string                `json:"entity_code"`
	Adjustments map[axis.Slug]float64 `json:"adjustments"`
}

// Validate enforces the constant wire shape.
func (r SimulationRequest) Validate() error {
	if len(r.EntityCode) != 2 {
		return fmt.Errorf("entity code must be exactly 2 characters, got %q", r.EntityCode)
	}
	if len(r.Adjustments) != axis.Count {
		return fmt.Errorf("expected %d adjustments, got %d", axis.Count, len(r.Adjustments))
	}
	for _, slug := range axis.All() {
		v, ok := r.Adjustments[slug]
		if !ok {
			return fmt.Errorf("missing adjustment for axis %s", slug)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("adjustment for axis %s is not finite", slug)
		}
		if v < AdjustmentMin || v > AdjustmentMax {
			return fmt.Errorf("adjustment for axis %s outside [%v,%v]: %v", slug, AdjustmentMin, AdjustmentMax, v)
		}
	}
	return nil
}

// ScenarioState is one baseline or simulated scoring state.
type ScenarioState struct {
	Composite      float64                `json:"composite"`
	Rank           int                    `json:"rank"`
	Classification dataset.Classification `json:"classification"`
	Axes           map[axis.Slug]float64  `json:"axes"`
}

// Validate enforces the state shape.
func (s ScenarioState) Validate() error {
	if math.IsNaN(s.Composite) || math.IsInf(s.Composite, 0) || s.Composite < 0 || s.Composite > 1 {
		return fmt.Errorf("composite %v outside [0,1]", s.Composite)
	}
	if s.Rank < 1 {
		return fmt.Errorf("rank must be >= 1, got %d", s.Rank)
	}
	if err := s.Classification.Validate(); err != nil {
		return err
	}
	return validateAxes(s.Axes, 0, 1)
}

// ScenarioDelta holds simulated-minus-baseline differences.
type ScenarioDelta struct {
	Composite float64               `json:"composite"`
	Rank      int                   `json:"rank"`
	Axes      map[axis.Slug]float64 `json:"axes"`
}

// Validate enforces the delta shape.
func (d ScenarioDelta) Validate() error {
	if math.IsNaN(d.Composite) || math.IsInf(d.Composite, 0) {
		return fmt.Errorf("delta composite is not finite")
	}
	return validateAxes(d.Axes, -1, 1)
}

// ScenarioResult is the simulation service response.
type ScenarioResult struct {
	Country   string        `json:"country"`
	Baseline  ScenarioState `json:"baseline"`
	Simulated ScenarioState `json:"simulated"`
	Delta     ScenarioDelta `json:"delta"`
}

// Validate is the core's own shape check. Passing it does not imply semantic
// correctness of the upstream classification labels.
func (r ScenarioResult) Validate() error {
	if len(r.Country) != 2 {
		return fmt.Errorf("country must be exactly 2 characters, got %q", r.Country)
	}
	if err := r.Baseline.Validate(); err != nil {
		return fmt.Errorf("baseline: %w", err)
	}
	if err := r.Simulated.Validate(); err != nil {
		return fmt.Errorf("simulated: %w", err)
	}
	if err := r.Delta.Validate(); err != nil {
		return fmt.Errorf("delta: %w", err)
	}
	return nil
}

func validateAxes(values map[axis.Slug]float64, min, max float64) error {
	if len(values) != axis.Count {
		return fmt.Errorf("expected %d axis values, got %d", axis.Count, len(values))
	}
	for _, slug := range axis.All() {
		v, ok := values[slug]
		if !ok {
			return fmt.Errorf("missing axis value for %s", slug)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("axis %s value is not finite", slug)
		}
		if v < min || v > max {
			return fmt.Errorf("axis %s value %v outside [%v,%v]", slug, v, min, max)
		}
	}
	return nil
}
