package model

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"gonum.org/v1/gonum/floats"
)

// Classify preprocesses img, runs it through p and returns the label at
// the arg-max of the raw scores. The confidence is the raw score at that
// index; it is not renormalized.
func Classify(img image.Image, p Predictor, labels []string) (Prediction, error) {
	input, err := Preprocess(img)
	if err != nil {
		return Prediction{}, err
	}
	return Run(input, p, labels)
}

// Run invokes p on an already preprocessed batch and picks the top class.
func Run(input Tensor, p Predictor, labels []string) (Prediction, error) {
	if err := checkShape(input); err != nil {
		return Prediction{}, err
	}

	scores, err := p.Predict(input)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: %v", ErrInference, err)
	}
	return Top(scores, labels)
}

// Top returns the first index holding the maximum score together with its
// label and raw value.
func Top(scores []float32, labels []string) (Prediction, error) {
	if len(scores) == 0 {
		return Prediction{}, ErrEmptyOutput
	}
	if len(scores) != len(labels) {
		return Prediction{}, fmt.Errorf("%w: %d scores, %d labels", ErrLabelMismatch, len(scores), len(labels))
	}

	wide := make([]float64, len(scores))
	for i, s := range scores {
		wide[i] = float64(s)
	}
	idx := floats.MaxIdx(wide)

	return Prediction{
		Label:      labels[idx],
		Confidence: scores[idx],
		Index:      idx,
		Scores:     append([]float32(nil), scores...),
	}, nil
}

// Classifier binds a loaded model to its label set.
type Classifier struct {
	predictor Predictor
	labels    []string
}

func NewClassifier(p Predictor, labels []string) (*Classifier, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: predictor is nil", ErrInference)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no labels", ErrInvalidLabels)
	}
	return &Classifier{
		predictor: p,
		labels:    append([]string(nil), labels...),
	}, nil
}

func (c *Classifier) Labels() []string {
	return append([]string(nil), c.labels...)
}

func (c *Classifier) Classify(img image.Image) (Prediction, error) {
	return Classify(img, c.predictor, c.labels)
}

func (c *Classifier) Run(input Tensor) (Prediction, error) {
	return Run(input, c.predictor, c.labels)
}

// ClassifyReader decodes a JPEG or PNG from r and classifies it.
func (c *Classifier) ClassifyReader(r io.Reader) (Prediction, image.Image, error) {
	img, err := Decode(r)
	if err != nil {
		return Prediction{}, nil, err
	}

	pred, err := c.Classify(img)
	if err != nil {
		return Prediction{}, img, err
	}
	return pred, img, nil
}

// Decode reads a JPEG or PNG image. Other registered formats are rejected.
func Decode(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if format != "jpeg" && format != "png" {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrDecode, format)
	}
	return img, nil
}
