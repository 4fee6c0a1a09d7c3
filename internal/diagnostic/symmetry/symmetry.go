// Package symmetry classifies the relationship between two entities'
// axis-score vectors.
package symmetry

import "github.com/axisgrid/concentra/internal/axis"

// Relation is the qualitative relationship between two concentration patterns.
type Relation string

const (
	Symmetric     Relation = "symmetric"
	Asymmetric    Relation = "asymmetric"
	Complementary Relation = "complementary"
)

const (
	highBand = 0.25
	lowBand  = 0.15
	// complementaryMin pairs where one side is high and the other low make
	// the whole relationship complementary.
	complementaryMin = 2
	// similarShare of both-high plus both-low pairs makes it symmetric.
	similarShare = 0.6
)

// Classify pairs the two vectors by axis, considering only pairs where both
// values are present. Fewer than 2 such pairs defaults to symmetric.
func Classify(a, b map[axis.Slug]*float64) Relation {
	pairs := 0
	bothHigh := 0
	bothLow := 0
	complementary := 0

	for _, slug := range axis.All() {
		va, vb := a[slug], b[slug]
		if va == nil || vb == nil {
			continue
		}
		pairs++
		highA, lowA := *va >= highBand, *va < lowBand
		highB, lowB := *vb >= highBand, *vb < lowBand
		switch {
		case highA && highB:
			bothHigh++
		case lowA && lowB:
			bothLow++
		case (highA && lowB) || (lowA && highB):
			complementary++
		}
	}

	if pairs < 2 {
		return Symmetric
	}
	if complementary >= complementaryMin {
		return Complementary
	}
	if float64(bothHigh+bothLow) >= similarShare*float64(pairs) {
		return Symmetric
	}
	return Asymmetric
}
