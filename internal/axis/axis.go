// Package axis defines the closed catalog of the six concentration axes.
// Adding an axis is a schema change, never a runtime operation.
package axis

import (
	"fmt"
	"strings"
)

// Slug identifies one concentration axis.
type Slug string

const (
	Energy         Slug = "energy"
	Financial      Slug = "financial"
	Defense        Slug = "defense"
	Technology     Slug = "technology"
	CriticalInputs Slug = "critical_inputs"
	Logistics      Slug = "logistics"
)

// Count is the fixed number of axes in the catalog.
const Count = 6

// Info describes one catalog entry, with inclusive score bounds.
type Info struct {
	Slug  Slug
	Short string
	Label string
	Min   float64
	Max   float64
}

// catalog order is the canonical enumeration order used for tie-breaks.
var catalog = [Count]Info{
	{Slug: Energy, Short: "Energy", Label: "Energy supply concentration", Min: 0, Max: 1},
	{Slug: Financial, Short: "Financial", Label: "Financial exposure concentration", Min: 0, Max: 1},
	{Slug: Defense, Short: "Defense", Label: "Defense procurement concentration", Min: 0, Max: 1},
	{Slug: Technology, Short: "Technology", Label: "Technology dependency concentration", Min: 0, Max: 1},
	{Slug: CriticalInputs, Short: "Critical inputs", Label: "Critical raw-input concentration", Min: 0, Max: 1},
	{Slug: Logistics, Short: "Logistics", Label: "Logistics corridor concentration", Min: 0, Max: 1},
}

var bySlug = func() map[Slug]Info {
	m := make(map[Slug]Info, Count)
	for _, info := range catalog {
		m[info.Slug] = info
	}
	return m
}()

// All returns the six axis slugs in catalog enumeration order.
func All() []Slug {
	out := make([]Slug, 0, Count)
	for _, info := range catalog {
		out = append(out, info.Slug)
	}
	return out
}

// Catalog returns the full catalog in enumeration order.
func Catalog() []Info {
	out := make([]Info, Count)
	copy(out[:], catalog[:])
	return out
}

// Lookup returns the catalog entry for a slug.
func Lookup(s Slug) (Info, bool) {
	info, ok := bySlug[s]
	return info, ok
}

// Validate enforces catalog membership.
func (s Slug) Validate() error {
	if _, ok := bySlug[s]; !ok {
		return fmt.Errorf("unknown axis slug: %q", s)
	}
	return nil
}

// Parse resolves a raw identifier to a catalog slug, rejecting unknown values.
func Parse(raw string) (Slug, error) {
	s := Slug(strings.TrimSpace(raw))
	if err := s.Validate(); err != nil {
		return "", err
	}
	return s, nil
}

// ParseLoose resolves a raw identifier tolerating hyphenated and camel-case
// wire variants (critical-inputs, criticalInputs). Unknown identifiers return
// false instead of an error so callers can drop them silently.
func ParseLoose(raw string) (Slug, bool) {
	s := Slug(normalize(raw))
	_, ok := bySlug[s]
	return s, ok
}

func normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
