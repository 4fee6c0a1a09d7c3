// Package contribution computes each axis's share of an entity's own total
// concentration score.
package contribution

import "github.com/axisgrid/concentra/internal/axis"

// Shares returns, per axis, the axis score divided by the sum of the entity's
// non-null axis scores. The share for a null axis is nil. When the non-null
// total is 0 every share is nil, so no division by zero can occur.
func Shares(scores map[axis.Slug]*float64) map[axis.Slug]*float64 {
	total := 0.0
	for _, slug := range axis.All() {
		if v := scores[slug]; v != nil {
			total += *v
		}
	}

	out := make(map[axis.Slug]*float64, axis.Count)
	for _, slug := range axis.All() {
		v := scores[slug]
		if v == nil || total == 0 {
			out[slug] = nil
			continue
		}
		share := *v / total
		out[slug] = &share
	}
	return out
}

// Share returns a single axis's contribution share.
func Share(scores map[axis.Slug]*float64, slug axis.Slug) *float64 {
	return Shares(scores)[slug]
}
