package model

// Input geometry of the exported classifier: one NHWC RGB image.
const (
	ImageSize = 224
	Channels  = 3
)

// InputShape is the batch shape fed to the model.
var InputShape = []int64{1, ImageSize, ImageSize, Channels}

// Tensor is a dense float32 tensor in row-major order.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// Size returns the number of elements described by the shape.
func (t Tensor) Size() int {
	if len(t.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range t.Shape {
		n *= int(d)
	}
	return n
}

// Predictor runs inference on a preprocessed batch and returns the raw
// per-class scores of its single element.
type Predictor interface {
	Predict(input Tensor) ([]float32, error)
}

type ModelInfo struct {
	Path       string   `json:"path"`
	InputName  string   `json:"input_name"`
	OutputName string   `json:"output_name"`
	InputShape []int64  `json:"input_shape"`
	Classes    []string `json:"classes"`
}

type PredictionRequest struct {
	Tensor []float32 `json:"tensor" binding:"required"`
}

type Prediction struct {
	Label      string    `json:"label"`
	Confidence float32   `json:"confidence"`
	Index      int       `json:"index"`
	Scores     []float32 `json:"scores"`
}
