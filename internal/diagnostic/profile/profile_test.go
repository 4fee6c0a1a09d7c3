package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/axisgrid/concentra/internal/axis"
)

func f(v float64) *float64 { return &v }

func vector(values ...float64) map[axis.Slug]*float64 {
	out := make(map[axis.Slug]*float64, axis.Count)
	for i, slug := range axis.All() {
		if i < len(values) {
			out[slug] = f(values[i])
		}
	}
	return out
}

func TestDegenerateVectorIsMultiAxisModerate(t *testing.T) {
	assert.Equal(t, MultiAxisModerate, Classify(nil))
	assert.Equal(t, MultiAxisModerate, Classify(vector(0.9)))
}

func TestAllLowIsBalancedLow(t *testing.T) {
	assert.Equal(t, BalancedLow, Classify(vector(0.05, 0.10, 0.14, 0.02, 0.08, 0.11)))
	// 0.15 is not "below the low band".
	assert.Equal(t, MultiAxisModerate, Classify(vector(0.05, 0.15, 0.14, 0.02, 0.08, 0.11)))
}

func TestSingleAxisVulnerability(t *testing.T) {
	// energy, financial, defense, technology, critical_inputs, logistics
	assert.Equal(t, SingleAxisVulnerability, Classify(vector(0.25, 0.05, 0.60, 0.10, 0.05, 0.05)))

	// Top below the 0.50 floor never qualifies, however dominant.
	assert.NotEqual(t, SingleAxisVulnerability, Classify(vector(0.45, 0.05, 0.10, 0.10, 0.05, 0.05)))

	// Top at 0.50 but under 2x the runner-up falls through.
	assert.NotEqual(t, SingleAxisVulnerability, Classify(vector(0.30, 0.05, 0.50, 0.10, 0.05, 0.05)))
}

func TestDominantAxisNaming(t *testing.T) {
	// Top is an outlier beyond mean + 1.5 stddev but under the
	// single-axis-vulnerability floor.
	assert.Equal(t, EnergyDominant, Classify(vector(0.45, 0.30, 0.28, 0.27, 0.29, 0.31)))
	assert.Equal(t, CriticalInputsDominant, Classify(vector(0.30, 0.28, 0.27, 0.29, 0.45, 0.31)))
	assert.Equal(t, LogisticsDominant, Classify(vector(0.30, 0.28, 0.27, 0.29, 0.31, 0.45)))
}

func TestStddevGuardBlocksNearUniformVectors(t *testing.T) {
	// Top exceeds mean + 1.5 stddev arithmetically, but stddev is under the
	// 0.01 guard so the vector stays moderate.
	assert.Equal(t, MultiAxisModerate, Classify(vector(0.30, 0.31, 0.29, 0.30, 0.30, 0.30)))
}

func TestSpreadModerateVectorFallsThrough(t *testing.T) {
	assert.Equal(t, MultiAxisModerate, Classify(vector(0.30, 0.28, 0.32, 0.31, 0.27, 0.29)))
}
