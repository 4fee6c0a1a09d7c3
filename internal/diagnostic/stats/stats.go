// Package stats computes cohort statistics: percentile, mean, and 1-based
// descending rank over a cohort's score values.
package stats

import (
	"math"

	"github.com/axisgrid/concentra/api/dataset"
	"github.com/axisgrid/concentra/internal/axis"
)

// Percentile returns the fraction of cohort values strictly below score,
// rounded to the nearest integer percentage. An empty cohort yields 0.
//
// This is deliberately not an interpolated percentile rank: ties receive no
// credit, so the cohort minimum scores 0 even when duplicated.
func Percentile(score float64, cohort []float64) int {
	if len(cohort) == 0 {
		return 0
	}
	below := 0
	for _, v := range cohort {
		if v < score {
			below++
		}
	}
	return int(math.Round(float64(below) / float64(len(cohort)) * 100))
}

// Mean returns the arithmetic mean of values. The second return is false for
// empty input, where no mean exists.
func Mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// Rank returns the 1-based descending rank of score within cohort, where rank
// 1 is the most concentrated. The second return is false when score is not a
// member of the cohort by exact equality.
func Rank(score float64, cohort []float64) (int, bool) {
	present := false
	higher := 0
	for _, v := range cohort {
		if v == score {
			present = true
		}
		if v > score {
			higher++
		}
	}
	if !present {
		return 0, false
	}
	return higher + 1, true
}

// AxisValues extracts the non-null values for one axis across a cohort, in
// cohort order.
func AxisValues(cohort dataset.Cohort, slug axis.Slug) []float64 {
	out := make([]float64, 0, len(cohort))
	for _, p := range cohort {
		if v := p.AxisValue(slug); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// CompositeValues extracts the non-null composite scores across a cohort.
func CompositeValues(cohort dataset.Cohort) []float64 {
	out := make([]float64, 0, len(cohort))
	for _, p := range cohort {
		if p.CompositeScore != nil {
			out = append(out, *p.CompositeScore)
		}
	}
	return out
}
