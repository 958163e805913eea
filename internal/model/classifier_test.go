package model

import (
	"bytes"
	"errors"
	"image/color"
	"image/gif"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPredictor struct {
	scores []float32
	err    error
	calls  int
	last   Tensor
}

func (s *stubPredictor) Predict(input Tensor) ([]float32, error) {
	s.calls++
	s.last = input
	if s.err != nil {
		return nil, s.err
	}
	return append([]float32(nil), s.scores...), nil
}

func loadTestLabels(t *testing.T) []string {
	t.Helper()
	labels, err := ParseLabels(strings.NewReader("0 Normal\n1 Pneumonia\n"))
	require.NoError(t, err)
	return labels
}

func TestClassify(t *testing.T) {
	labels := loadTestLabels(t)

	t.Run("returns the arg-max label and its raw score", func(t *testing.T) {
		stub := &stubPredictor{scores: []float32{0.2, 0.8}}

		pred, err := Classify(noiseImage(512, 380), stub, labels)

		require.NoError(t, err)
		assert.Equal(t, "Pneumonia", pred.Label)
		assert.Equal(t, float32(0.8), pred.Confidence)
		assert.Equal(t, 1, pred.Index)
		assert.Equal(t, 1, stub.calls)
		assert.Equal(t, []int64{1, 224, 224, 3}, stub.last.Shape)
	})

	t.Run("does not renormalize scores", func(t *testing.T) {
		stub := &stubPredictor{scores: []float32{0.9, 0.7}}

		pred, err := Classify(noiseImage(64, 64), stub, labels)

		require.NoError(t, err)
		assert.Equal(t, "Normal", pred.Label)
		assert.Equal(t, float32(0.9), pred.Confidence)
		assert.Equal(t, []float32{0.9, 0.7}, pred.Scores)
	})

	t.Run("is deterministic", func(t *testing.T) {
		stub := &stubPredictor{scores: []float32{0.35, 0.65}}
		img := noiseImage(333, 250)

		first, err := Classify(img, stub, labels)
		require.NoError(t, err)
		firstInput := stub.last

		second, err := Classify(img, stub, labels)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, firstInput.Data, stub.last.Data)
	})

	t.Run("wraps predictor failures", func(t *testing.T) {
		stub := &stubPredictor{err: errors.New("session closed")}

		_, err := Classify(noiseImage(10, 10), stub, labels)

		assert.ErrorIs(t, err, ErrInference)
		assert.Contains(t, err.Error(), "session closed")
	})

	t.Run("detects label count mismatch", func(t *testing.T) {
		stub := &stubPredictor{scores: []float32{0.1, 0.2, 0.7}}

		_, err := Classify(noiseImage(10, 10), stub, labels)

		assert.ErrorIs(t, err, ErrLabelMismatch)
	})
}

func TestTop(t *testing.T) {
	labels := []string{"a", "b", "c"}

	t.Run("first maximum wins a tie", func(t *testing.T) {
		pred, err := Top([]float32{0.4, 0.4, 0.2}, labels)

		require.NoError(t, err)
		assert.Equal(t, "a", pred.Label)
		assert.Equal(t, 0, pred.Index)
	})

	t.Run("handles negative logits", func(t *testing.T) {
		pred, err := Top([]float32{-3, -0.5, -1}, labels)

		require.NoError(t, err)
		assert.Equal(t, "b", pred.Label)
		assert.Equal(t, float32(-0.5), pred.Confidence)
	})

	t.Run("empty output", func(t *testing.T) {
		_, err := Top(nil, labels)

		assert.ErrorIs(t, err, ErrEmptyOutput)
	})
}

func TestRun(t *testing.T) {
	t.Run("rejects a tensor of the wrong shape", func(t *testing.T) {
		stub := &stubPredictor{scores: []float32{0.5, 0.5}}

		_, err := Run(Tensor{Shape: []int64{1, 28, 28, 1}, Data: make([]float32, 784)}, stub, []string{"x", "y"})

		assert.ErrorIs(t, err, ErrShape)
		assert.Zero(t, stub.calls)
	})

	t.Run("rejects data that does not fill the shape", func(t *testing.T) {
		stub := &stubPredictor{scores: []float32{0.5, 0.5}}

		_, err := Run(Tensor{Shape: InputShape, Data: make([]float32, 10)}, stub, []string{"x", "y"})

		assert.ErrorIs(t, err, ErrShape)
	})
}

func TestClassifier(t *testing.T) {
	labels := loadTestLabels(t)

	t.Run("classifies an encoded png", func(t *testing.T) {
		c, err := NewClassifier(&stubPredictor{scores: []float32{0.2, 0.8}}, labels)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, solidImage(40, 30, color.White)))

		pred, img, err := c.ClassifyReader(&buf)

		require.NoError(t, err)
		assert.NotNil(t, img)
		assert.Equal(t, "Pneumonia", pred.Label)
		assert.Equal(t, float32(0.8), pred.Confidence)
	})

	t.Run("rejects bytes that are not an image", func(t *testing.T) {
		c, err := NewClassifier(&stubPredictor{scores: []float32{0.2, 0.8}}, labels)
		require.NoError(t, err)

		_, _, err = c.ClassifyReader(strings.NewReader("definitely not an image"))

		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("rejects formats other than jpeg and png", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, gif.Encode(&buf, solidImage(8, 8, color.White), nil))

		_, err := Decode(&buf)

		assert.ErrorIs(t, err, ErrDecode)
		assert.Contains(t, err.Error(), "gif")
	})

	t.Run("requires a predictor and labels", func(t *testing.T) {
		_, err := NewClassifier(nil, labels)
		assert.Error(t, err)

		_, err = NewClassifier(&stubPredictor{}, nil)
		assert.ErrorIs(t, err, ErrInvalidLabels)
	})

	t.Run("labels are copied", func(t *testing.T) {
		c, err := NewClassifier(&stubPredictor{}, labels)
		require.NoError(t, err)

		got := c.Labels()
		got[0] = "changed"

		assert.Equal(t, "Normal", c.Labels()[0])
	})
}
