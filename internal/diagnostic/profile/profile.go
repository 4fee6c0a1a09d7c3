// Package profile classifies a single entity's axis-score vector into one of
// nine named structural profiles.
package profile

import (
	"math"

	"github.com/axisgrid/concentra/internal/axis"
)

// Profile is a qualitative classification of an entity's concentration shape.
type Profile string

const (
	EnergyDominant          Profile = "energy-dominant"
	FinancialDominant       Profile = "financial-dominant"
	DefenseDominant         Profile = "defense-dominant"
	TechnologyDominant      Profile = "technology-dominant"
	CriticalInputsDominant  Profile = "critical-inputs-dominant"
	LogisticsDominant       Profile = "logistics-dominant"
	MultiAxisModerate       Profile = "multi-axis-moderate"
	BalancedLow             Profile = "balanced-low"
	SingleAxisVulnerability Profile = "single-axis-vulnerability"
)

var dominantBySlug = map[axis.Slug]Profile{
	axis.Energy:         EnergyDominant,
	axis.Financial:      FinancialDominant,
	axis.Defense:        DefenseDominant,
	axis.Technology:     TechnologyDominant,
	axis.CriticalInputs: CriticalInputsDominant,
	axis.Logistics:      LogisticsDominant,
}

const (
	lowBand = 0.15
	// vulnerabilityFloor and vulnerabilityRatio gate the single-axis rule:
	// the top score must be at least 0.50 and at least twice the runner-up.
	vulnerabilityFloor = 0.50
	vulnerabilityRatio = 2.0
	// dominanceSigma is the outlier distance for <axis>-dominant, with a
	// stddev guard so near-uniform vectors never classify as dominant.
	dominanceSigma = 1.5
	stddevGuard    = 0.01
)

// Classify applies the profile decision rules in order, first match wins:
//
//  1. fewer than 2 non-null scores -> multi-axis-moderate (degenerate)
//  2. all non-null scores < 0.15 -> balanced-low
//  3. top >= 0.50 and top >= 2x second-highest -> single-axis-vulnerability
//  4. top > mean + 1.5 stddev (population, stddev > 0.01) -> <axis>-dominant
//  5. otherwise -> multi-axis-moderate
func Classify(scores map[axis.Slug]*float64) Profile {
	slugs := make([]axis.Slug, 0, axis.Count)
	values := make([]float64, 0, axis.Count)
	for _, slug := range axis.All() {
		if v := scores[slug]; v != nil {
			slugs = append(slugs, slug)
			values = append(values, *v)
		}
	}

	if len(values) < 2 {
		return MultiAxisModerate
	}

	allLow := true
	for _, v := range values {
		if v >= lowBand {
			allLow = false
			break
		}
	}
	if allLow {
		return BalancedLow
	}

	topIdx := 0
	for i, v := range values {
		if v > values[topIdx] {
			topIdx = i
		}
	}
	top := values[topIdx]
	second := math.Inf(-1)
	for i, v := range values {
		if i != topIdx && v > second {
			second = v
		}
	}

	if top >= vulnerabilityFloor && top >= vulnerabilityRatio*second {
		return SingleAxisVulnerability
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(variance / float64(len(values)))

	if stddev > stddevGuard && top > mean+dominanceSigma*stddev {
		return dominantBySlug[slugs[topIdx]]
	}

	return MultiAxisModerate
}
