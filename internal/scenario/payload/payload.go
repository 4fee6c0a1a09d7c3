// Package payload validates proposed adjustment sets and normalizes them into
// network-ready simulation payloads.
package payload

import (
	"fmt"
	"math"
	"strings"

	"github.com/axisgrid/concentra/api/scenario"
	"github.com/axisgrid/concentra/internal/axis"
)

// Mode selects gate strictness for unknown adjustment keys.
type Mode string

const (
	// ModeClient rejects unrecognized adjustment keys before any dispatch.
	ModeClient Mode = "client"
	// ModeServer silently drops unrecognized keys and additionally accepts
	// already-normalized wire-variant keys.
	ModeServer Mode = "server"
)

// CodeSet is the membership set of valid cohort entity codes.
type CodeSet map[string]struct{}

// Validate checks an entity code and adjustment set against the cohort and
// returns a normalized, network-ready request. All failures are classified
// bad_input so they surface before any network call.
func Validate(entityCode string, adjustments map[string]float64, cohort CodeSet, mode Mode) (scenario.SimulationRequest, error) {
	code := strings.TrimSpace(entityCode)
	if len(code) != 2 {
		return scenario.SimulationRequest{}, scenario.NewFailure(scenario.FailureBadInput,
			fmt.Sprintf("entity code must be exactly 2 characters, got %q", entityCode))
	}
	if _, ok := cohort[code]; !ok {
		return scenario.SimulationRequest{}, scenario.NewFailure(scenario.FailureBadInput,
			fmt.Sprintf("unknown entity code %q", code))
	}

	normalized := make(map[axis.Slug]float64, len(adjustments))
	for key, value := range adjustments {
		var slug axis.Slug
		switch mode {
		case ModeServer:
			loose, ok := axis.ParseLoose(key)
			if !ok {
				continue
			}
			slug = loose
		default:
			strict, err := axis.Parse(key)
			if err != nil {
				return scenario.SimulationRequest{}, scenario.NewFailure(scenario.FailureBadInput,
					fmt.Sprintf("unknown adjustment axis %q", key))
			}
			slug = strict
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return scenario.SimulationRequest{}, scenario.NewFailure(scenario.FailureBadInput,
				fmt.Sprintf("adjustment for axis %s is not a finite number", slug))
		}
		normalized[slug] = value
	}

	return Build(code, normalized), nil
}

// Build emits the constant-shape wire payload: all six axes present, unset
// axes defaulting to 0, every value clamped into the adjustment bounds. The
// simulation service never receives a partial payload.
func Build(entityCode string, adjustments map[axis.Slug]float64) scenario.SimulationRequest {
	out := make(map[axis.Slug]float64, axis.Count)
	for _, slug := range axis.All() {
		out[slug] = clamp(adjustments[slug])
	}
	return scenario.SimulationRequest{EntityCode: entityCode, Adjustments: out}
}

func clamp(v float64) float64 {
	switch {
	case v < scenario.AdjustmentMin:
		return scenario.AdjustmentMin
	case v > scenario.AdjustmentMax:
		return scenario.AdjustmentMax
	default:
		return v
	}
}
