// Package dataset defines the wire contract consumed from the dataset source:
// entity score profiles, the cohort snapshot shape, and the classification
// bands derived from composite scores. The core treats a cohort as an
// immutable snapshot per page view and recomputes classification bands rather
// than trusting upstream labels.
package dataset

import (
	"fmt"
	"math"

	"github.com/axisgrid/concentra/internal/axis"
)

// Classification is a named concentration band derived from a score.
type Classification string

const (
	HighlyConcentrated     Classification = "highly_concentrated"
	ModeratelyConcentrated Classification = "moderately_concentrated"
	MildlyConcentrated     Classification = "mildly_concentrated"
	Unconcentrated         Classification = "unconcentrated"
)

// Band thresholds. Each lower bound is inclusive: a score of exactly 0.15
// classifies as mildly concentrated, 0.25 as moderately, 0.50 as highly.
const (
	HighlyThreshold     = 0.50
	ModeratelyThreshold = 0.25
	MildlyThreshold     = 0.15
)

// CompositeTolerance bounds the allowed drift between a reported composite
// score and the mean of the non-null axis scores.
const CompositeTolerance = 1e-9

// Classify derives the concentration band for a score.
func Classify(score float64) Classification {
	switch {
	case score >= HighlyThreshold:
		return HighlyConcentrated
	case score >= ModeratelyThreshold:
		return ModeratelyConcentrated
	case score >= MildlyThreshold:
		return MildlyConcentrated
	default:
		return Unconcentrated
	}
}

// Validate enforces known classification values.
func (c Classification) Validate() error {
	switch c {
	case HighlyConcentrated, ModeratelyConcentrated, MildlyConcentrated, Unconcentrated:
		return nil
	default:
		return fmt.Errorf("unknown classification: %q", c)
	}
}

// AxisScore carries one axis value for an entity. A nil value means the axis
// is not available for this entity, which is distinct from a score of 0.
type AxisScore struct {
	Slug  axis.Slug `json:"slug"`
	Value *float64  `json:"value"`
}

// EntityProfile is one reporting entity's score record.
type EntityProfile struct {
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	CompositeScore *float64        `json:"composite_score"`
	Classification *Classification `json:"classification"`
	AxisScores     []AxisScore     `json:"axis_scores"`
}

// Validate enforces profile shape: a stable 2-letter code, exactly one score
// per catalog axis, and values inside the axis bounds when present.
func (p EntityProfile) Validate() error {
	if len(p.Code) != 2 {
		return fmt.Errorf("entity code must be exactly 2 characters, got %q", p.Code)
	}
	if len(p.AxisScores) != axis.Count {
		return fmt.Errorf("entity %s: expected %d axis scores, got %d", p.Code, axis.Count, len(p.AxisScores))
	}
	seen := make(map[axis.Slug]struct{}, axis.Count)
	for _, score := range p.AxisScores {
		info, ok := axis.Lookup(score.Slug)
		if !ok {
			return fmt.Errorf("entity %s: unknown axis slug %q", p.Code, score.Slug)
		}
		if _, dup := seen[score.Slug]; dup {
			return fmt.Errorf("entity %s: duplicate axis score for %s", p.Code, score.Slug)
		}
		seen[score.Slug] = struct{}{}
		if score.Value != nil {
			v := *score.Value
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("entity %s: axis %s value is not finite", p.Code, score.Slug)
			}
			if v < info.Min || v > info.Max {
				return fmt.Errorf("entity %s: axis %s value %v outside [%v,%v]", p.Code, score.Slug, v, info.Min, info.Max)
			}
		}
	}
	if p.CompositeScore != nil {
		v := *p.CompositeScore
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
			return fmt.Errorf("entity %s: composite score %v outside [0,1]", p.Code, v)
		}
	}
	if p.Classification != nil {
		if err := p.Classification.Validate(); err != nil {
			return fmt.Errorf("entity %s: %w", p.Code, err)
		}
	}
	return nil
}

// CheckComposite enforces the composite invariant: a non-null composite score
// equals the arithmetic mean of the non-null axis scores, unweighted.
func (p EntityProfile) CheckComposite() error {
	if p.CompositeScore == nil {
		return nil
	}
	sum := 0.0
	n := 0
	for _, score := range p.AxisScores {
		if score.Value != nil {
			sum += *score.Value
			n++
		}
	}
	if n == 0 {
		return fmt.Errorf("entity %s: composite score present but no axis scores available", p.Code)
	}
	mean := sum / float64(n)
	if math.Abs(mean-*p.CompositeScore) > CompositeTolerance {
		return fmt.Errorf("entity %s: composite score %v does not match axis mean %v", p.Code, *p.CompositeScore, mean)
	}
	return nil
}

// AxisValue returns the value for one axis, nil when unavailable.
func (p EntityProfile) AxisValue(slug axis.Slug) *float64 {
	for _, score := range p.AxisScores {
		if score.Slug == slug {
			return score.Value
		}
	}
	return nil
}

// AxisValues returns the per-axis values keyed by slug.
func (p EntityProfile) AxisValues() map[axis.Slug]*float64 {
	out := make(map[axis.Slug]*float64, axis.Count)
	for _, slug := range axis.All() {
		out[slug] = p.AxisValue(slug)
	}
	return out
}

// Cohort is the full set of entities compared against for statistics.
// Order carries no meaning and the core never mutates it.
type Cohort []EntityProfile

// Validate enforces per-profile shape and unique entity codes.
func (c Cohort) Validate() error {
	seen := make(map[string]struct{}, len(c))
	for _, p := range c {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, dup := seen[p.Code]; dup {
			return fmt.Errorf("duplicate entity code %q in cohort", p.Code)
		}
		seen[p.Code] = struct{}{}
	}
	return nil
}

// Codes returns the cohort's entity-code membership set.
func (c Cohort) Codes() map[string]struct{} {
	out := make(map[string]struct{}, len(c))
	for _, p := range c {
		out[p.Code] = struct{}{}
	}
	return out
}

// Find returns the profile for a code.
func (c Cohort) Find(code string) (EntityProfile, bool) {
	for _, p := range c {
		if p.Code == code {
			return p, true
		}
	}
	return EntityProfile{}, false
}
