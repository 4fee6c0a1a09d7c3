// Package engine derives one comparative structural diagnostic for an ordered
// pair of entities within a cohort. Compute is a pure function: no caching,
// no I/O, and bit-identical output for identical input.
package engine

import (
	"fmt"
	"math"

	"github.com/axisgrid/concentra/api/dataset"
	"github.com/axisgrid/concentra/internal/axis"
	"github.com/axisgrid/concentra/internal/diagnostic/contribution"
	"github.com/axisgrid/concentra/internal/diagnostic/divergence"
	"github.com/axisgrid/concentra/internal/diagnostic/profile"
	"github.com/axisgrid/concentra/internal/diagnostic/stats"
	"github.com/axisgrid/concentra/internal/diagnostic/symmetry"
)

// Side names the more concentrated entity of a pair on one axis.
type Side string

const (
	SideA     Side = "A"
	SideB     Side = "B"
	SideEqual Side = "equal"
)

// AxisComparison is the per-axis result of comparing two entities. Fields are
// nil when the underlying axis value is unavailable for the relevant entity.
type AxisComparison struct {
	Slug               axis.Slug `json:"slug"`
	ScoreA             *float64  `json:"score_a"`
	ScoreB             *float64  `json:"score_b"`
	Delta              *float64  `json:"delta"`
	AbsDelta           *float64  `json:"abs_delta"`
	MoreConcentrated   *Side     `json:"more_concentrated"`
	PercentileA        *int      `json:"percentile_a"`
	PercentileB        *int      `json:"percentile_b"`
	ContributionShareA *float64  `json:"contribution_share_a"`
	ContributionShareB *float64  `json:"contribution_share_b"`
}

// Diagnostic is the aggregate comparison result. It is a derived value,
// recomputed on every request and never persisted.
type Diagnostic struct {
	StructuralDistance          float64           `json:"structural_distance"`
	NormalizedDistance          float64           `json:"normalized_distance"`
	DivergenceLevel             divergence.Level  `json:"divergence_level"`
	DominantDivergenceAxis      axis.Slug         `json:"dominant_divergence_axis"`
	DominantDivergenceMagnitude float64           `json:"dominant_divergence_magnitude"`
	DominantAxisDivergenceShare float64           `json:"dominant_axis_divergence_share"`
	DivergenceConcentrated      bool              `json:"divergence_concentrated"`
	Symmetry                    symmetry.Relation `json:"symmetry"`
	ProfileA                    profile.Profile   `json:"profile_a"`
	ProfileB                    profile.Profile   `json:"profile_b"`
	Axes                        []AxisComparison  `json:"axes"`
}

// Compute builds the structural diagnostic for the ordered pair (a, b) within
// cohort. Missing axis data degrades to nil fields; only a malformed profile
// shape is an error.
func Compute(a, b dataset.EntityProfile, cohort dataset.Cohort) (Diagnostic, error) {
	if err := a.Validate(); err != nil {
		return Diagnostic{}, fmt.Errorf("entity A: %w", err)
	}
	if err := b.Validate(); err != nil {
		return Diagnostic{}, fmt.Errorf("entity B: %w", err)
	}
	if err := cohort.Validate(); err != nil {
		return Diagnostic{}, fmt.Errorf("cohort: %w", err)
	}

	scoresA := a.AxisValues()
	scoresB := b.AxisValues()
	sharesA := contribution.Shares(scoresA)
	sharesB := contribution.Shares(scoresB)

	axes := make([]AxisComparison, 0, axis.Count)
	absDeltas := make(map[axis.Slug]*float64, axis.Count)
	for _, slug := range axis.All() {
		cmp := AxisComparison{
			Slug:               slug,
			ScoreA:             scoresA[slug],
			ScoreB:             scoresB[slug],
			ContributionShareA: sharesA[slug],
			ContributionShareB: sharesB[slug],
		}

		cohortValues := stats.AxisValues(cohort, slug)
		if cmp.ScoreA != nil {
			p := stats.Percentile(*cmp.ScoreA, cohortValues)
			cmp.PercentileA = &p
		}
		if cmp.ScoreB != nil {
			p := stats.Percentile(*cmp.ScoreB, cohortValues)
			cmp.PercentileB = &p
		}

		if cmp.ScoreA != nil && cmp.ScoreB != nil {
			delta := *cmp.ScoreA - *cmp.ScoreB
			abs := math.Abs(delta)
			cmp.Delta = &delta
			cmp.AbsDelta = &abs
			side := SideEqual
			switch {
			case delta > 0:
				side = SideA
			case delta < 0:
				side = SideB
			}
			cmp.MoreConcentrated = &side
			absDeltas[slug] = &abs
		}

		axes = append(axes, cmp)
	}

	agg := divergence.Aggregate(absDeltas)

	return Diagnostic{
		StructuralDistance:          agg.StructuralDistance,
		NormalizedDistance:          agg.NormalizedDistance,
		DivergenceLevel:             agg.Level,
		DominantDivergenceAxis:      agg.DominantAxis,
		DominantDivergenceMagnitude: agg.DominantMagnitude,
		DominantAxisDivergenceShare: agg.DominantShare,
		DivergenceConcentrated:      agg.Concentrated,
		Symmetry:                    symmetry.Classify(scoresA, scoresB),
		ProfileA:                    profile.Classify(scoresA),
		ProfileB:                    profile.Classify(scoresB),
		Axes:                        axes,
	}, nil
}
