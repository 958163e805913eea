package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Brownie44l1/xray-api/internal/metrics"
	"github.com/Brownie44l1/xray-api/internal/model"
	"github.com/Brownie44l1/xray-api/internal/stats"
)

const (
	formField             = "image"
	DefaultMaxUploadBytes = 10 << 20
)

var errNoModel = fmt.Errorf("%w: model not loaded", model.ErrInference)

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
}

type Options struct {
	Classifier     *model.Classifier
	Info           model.ModelInfo
	Stats          *stats.ModelStats
	Animation      json.RawMessage
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
	MaxUploadBytes int64
}

type Handler struct {
	classifier *model.Classifier
	info       model.ModelInfo
	stats      *stats.ModelStats
	animation  json.RawMessage
	metrics    *metrics.Metrics
	logger     *zap.Logger
	maxUpload  int64
}

func NewHandler(opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Stats == nil {
		opts.Stats = stats.New(stats.DefaultCounts)
	}
	return &Handler{
		classifier: opts.Classifier,
		info:       opts.Info,
		stats:      opts.Stats,
		animation:  opts.Animation,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		maxUpload:  opts.MaxUploadBytes,
	}
}

type HealthStatus struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	components := map[string]string{"model": "ok"}
	status, code := "healthy", http.StatusOK
	if h.classifier == nil {
		components["model"] = "not loaded"
		status, code = "unhealthy", http.StatusServiceUnavailable
	} else {
		components["labels"] = fmt.Sprintf("%d classes", len(h.classifier.Labels()))
	}

	c.JSON(code, HealthStatus{Status: status, Components: components})
}

// Ready handles GET /ready
func (h *Handler) Ready(c *gin.Context) {
	if h.classifier == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "model not loaded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

type ModelResponse struct {
	Model model.ModelInfo `json:"model"`
	Stats stats.Summary   `json:"stats"`
}

// ModelInfo handles GET /api/v1/model
func (h *Handler) ModelInfo(c *gin.Context) {
	respondSuccess(c, http.StatusOK, ModelResponse{
		Model: h.info,
		Stats: h.stats.Summary(),
	})
}

// Predict handles POST /api/v1/predict with an already normalized tensor.
func (h *Handler) Predict(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	var req model.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		h.fail(c, err)
		HandleClassifyError(c, err)
		return
	}

	if h.classifier == nil {
		h.fail(c, errNoModel)
		HandleClassifyError(c, errNoModel)
		return
	}

	start := time.Now()
	result, err := h.classifier.Run(model.Tensor{
		Shape: append([]int64(nil), model.InputShape...),
		Data:  req.Tensor,
	})
	if err != nil {
		h.fail(c, err)
		HandleClassifyError(c, err)
		return
	}
	h.observe(result, time.Since(start))

	respondSuccess(c, http.StatusOK, result)
}

// PredictFromImage handles POST /api/v1/predict/image
func (h *Handler) PredictFromImage(c *gin.Context) {
	result, _, err := h.classifyUpload(c)
	if err != nil {
		HandleClassifyError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, result)
}

// classifyUpload reads the "image" form file, decodes it and classifies it.
func (h *Handler) classifyUpload(c *gin.Context) (model.Prediction, image.Image, error) {
	if h.classifier == nil {
		h.fail(c, errNoModel)
		return model.Prediction{}, nil, errNoModel
	}
	if c.Request.ContentLength > h.maxUpload {
		h.fail(c, ErrImageTooLarge)
		return model.Prediction{}, nil, ErrImageTooLarge
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	file, err := c.FormFile(formField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = ErrImageTooLarge
		} else {
			err = fmt.Errorf("%w: %v", ErrMissingImage, err)
		}
		h.fail(c, err)
		return model.Prediction{}, nil, err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		err := fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
		h.fail(c, err)
		return model.Prediction{}, nil, err
	}

	f, err := file.Open()
	if err != nil {
		h.fail(c, err)
		return model.Prediction{}, nil, err
	}
	defer f.Close()

	h.logger.Debug("Received file",
		zap.String("request_id", c.GetString("request_id")),
		zap.String("filename", file.Filename),
		zap.Int64("size", file.Size),
	)

	start := time.Now()
	result, img, err := h.classifier.ClassifyReader(f)
	if err != nil {
		h.fail(c, err)
		return model.Prediction{}, img, err
	}
	h.observe(result, time.Since(start))

	return result, img, nil
}

func (h *Handler) observe(result model.Prediction, elapsed time.Duration) {
	if h.metrics != nil {
		h.metrics.ObservePrediction(result.Label, elapsed)
	}
	h.logger.Info("Image classified",
		zap.String("label", result.Label),
		zap.Float32("confidence", result.Confidence),
		zap.Duration("elapsed", elapsed),
	)
}

func (h *Handler) fail(c *gin.Context, err error) {
	resp := MapClassifyError(err)
	if h.metrics != nil {
		h.metrics.ObserveError(resp.Code)
	}
	_ = c.Error(err)
	if resp.StatusCode >= http.StatusInternalServerError {
		h.logger.Error("Prediction failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
	}
}
