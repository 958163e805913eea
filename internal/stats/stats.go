// Package stats derives the published evaluation metrics of the classifier
// from its binary confusion matrix.
package stats

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Counts are the evaluation outcomes, with pneumonia as the positive class.
type Counts struct {
	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	FalseNegatives int `json:"false_negatives"`
	TrueNegatives  int `json:"true_negatives"`
}

// DefaultCounts is the held-out evaluation of the shipped model.
var DefaultCounts = Counts{
	TruePositives:  448,
	FalsePositives: 25,
	FalseNegatives: 32,
	TrueNegatives:  171,
}

type ModelStats struct {
	counts Counts
	// rows are the actual class, columns the predicted class; index 0 is
	// the positive class.
	matrix *mat.Dense
}

func New(c Counts) *ModelStats {
	return &ModelStats{
		counts: c,
		matrix: mat.NewDense(2, 2, []float64{
			float64(c.TruePositives), float64(c.FalseNegatives),
			float64(c.FalsePositives), float64(c.TrueNegatives),
		}),
	}
}

func (s *ModelStats) Counts() Counts {
	return s.counts
}

func (s *ModelStats) Total() int {
	return int(mat.Sum(s.matrix))
}

func (s *ModelStats) Accuracy() float64 {
	return ratio(mat.Trace(s.matrix), mat.Sum(s.matrix))
}

// Sensitivity is the true positive rate.
func (s *ModelStats) Sensitivity() float64 {
	return ratio(s.matrix.At(0, 0), mat.Sum(s.matrix.RowView(0)))
}

// Specificity is the true negative rate.
func (s *ModelStats) Specificity() float64 {
	return ratio(s.matrix.At(1, 1), mat.Sum(s.matrix.RowView(1)))
}

// Matrix returns the confusion matrix rows as integers.
func (s *ModelStats) Matrix() [2][2]int {
	var m [2][2]int
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			m[i][j] = int(s.matrix.At(i, j))
		}
	}
	return m
}

type Summary struct {
	Counts      Counts  `json:"counts"`
	Total       int     `json:"total"`
	Accuracy    float64 `json:"accuracy"`
	Sensitivity float64 `json:"sensitivity"`
	Specificity float64 `json:"specificity"`
}

func (s *ModelStats) Summary() Summary {
	return Summary{
		Counts:      s.counts,
		Total:       s.Total(),
		Accuracy:    s.Accuracy(),
		Sensitivity: s.Sensitivity(),
		Specificity: s.Specificity(),
	}
}

// Percent converts a fraction to a percentage truncated to one decimal.
func Percent(f float64) float64 {
	return math.Trunc(f*1000) / 10
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
