package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModelStats(t *testing.T) {
	t.Run("published evaluation", func(t *testing.T) {
		s := New(DefaultCounts)

		assert.Equal(t, 676, s.Total())
		assert.Equal(t, 91.5, Percent(s.Accuracy()))
		assert.Equal(t, 93.3, Percent(s.Sensitivity()))
		assert.Equal(t, 87.2, Percent(s.Specificity()))
		assert.InDelta(t, 619.0/676.0, s.Accuracy(), 1e-12)
	})

	t.Run("percent truncates", func(t *testing.T) {
		assert.Equal(t, 99.9, Percent(0.99999))
		assert.Equal(t, 80.0, Percent(0.8))
	})

	t.Run("matrix layout", func(t *testing.T) {
		s := New(DefaultCounts)

		assert.Equal(t, [2][2]int{{448, 32}, {25, 171}}, s.Matrix())
	})

	t.Run("zero counts do not divide by zero", func(t *testing.T) {
		s := New(Counts{})

		assert.Equal(t, 0, s.Total())
		assert.Zero(t, s.Accuracy())
		assert.Zero(t, s.Sensitivity())
		assert.Zero(t, s.Specificity())
	})

	t.Run("summary mirrors accessors", func(t *testing.T) {
		s := New(Counts{TruePositives: 9, FalseNegatives: 1, TrueNegatives: 8, FalsePositives: 2})
		sum := s.Summary()

		assert.Equal(t, 20, sum.Total)
		assert.InDelta(t, 0.85, sum.Accuracy, 1e-12)
		assert.InDelta(t, 0.9, sum.Sensitivity, 1e-12)
		assert.InDelta(t, 0.8, sum.Specificity, 1e-12)
	})
}
