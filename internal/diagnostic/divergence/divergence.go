// Package divergence combines per-axis deltas into a scalar structural
// distance and a qualitative divergence level.
package divergence

import "github.com/axisgrid/concentra/internal/axis"

// Level is the qualitative bucket of normalized structural distance.
type Level string

const (
	Low      Level = "low"
	Moderate Level = "moderate"
	High     Level = "high"
)

const (
	// axisSpan is the theoretical per-axis maximum for [0,1]-bounded scores.
	axisSpan         = 1.0
	lowCeiling       = 0.15
	moderateCeiling  = 0.35
	concentatedShare = 0.40
)

// Summary is the aggregate divergence result for one comparison.
type Summary struct {
	StructuralDistance float64   `json:"structural_distance"`
	NormalizedDistance float64   `json:"normalized_distance"`
	Level              Level     `json:"divergence_level"`
	DominantAxis       axis.Slug `json:"dominant_divergence_axis"`
	DominantMagnitude  float64   `json:"dominant_divergence_magnitude"`
	DominantShare      float64   `json:"dominant_axis_divergence_share"`
	Concentrated       bool      `json:"divergence_concentrated"`
}

// Aggregate combines per-axis absolute deltas. A nil delta (axis missing for
// one or both entities) contributes 0 rather than being skipped, so a
// single-axis comparison still normalizes against the full theoretical
// maximum of all six axes.
//
// Ties on the dominant axis break to the first axis in catalog enumeration
// order. The tie-break is arbitrary, not semantically meaningful.
func Aggregate(absDeltas map[axis.Slug]*float64) Summary {
	distance := 0.0
	dominant := axis.All()[0]
	dominantMagnitude := 0.0
	for _, slug := range axis.All() {
		d := 0.0
		if v := absDeltas[slug]; v != nil {
			d = *v
		}
		distance += d
		if d > dominantMagnitude {
			dominant = slug
			dominantMagnitude = d
		}
	}

	theoreticalMax := float64(axis.Count) * axisSpan
	normalized := distance / theoreticalMax

	level := High
	switch {
	case normalized < lowCeiling:
		level = Low
	case normalized < moderateCeiling:
		level = Moderate
	}

	share := 0.0
	if distance > 0 {
		share = dominantMagnitude / distance
	}

	return Summary{
		StructuralDistance: distance,
		NormalizedDistance: normalized,
		Level:              level,
		DominantAxis:       dominant,
		DominantMagnitude:  dominantMagnitude,
		DominantShare:      share,
		Concentrated:       share > concentatedShare,
	}
}
