package handlers

import (
	"bytes"
	"embed"
	"encoding/base64"
	"html/template"
	"image"
	"image/png"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nfnt/resize"

	"github.com/Brownie44l1/xray-api/internal/stats"
)

const (
	pageTemplate = "index.html"
	previewSize  = 480
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded HTML page templates.
func Templates() (*template.Template, error) {
	return template.New("").ParseFS(templateFS, "templates/*.html")
}

type pageResult struct {
	Label      string
	Confidence float64
	Preview    template.URL
}

type pageStats struct {
	Accuracy    float64
	Sensitivity float64
	Specificity float64
	Total       int
	Counts      stats.Counts
	Matrix      [2][2]int
}

type pageData struct {
	Result    *pageResult
	Error     string
	Stats     pageStats
	Animation template.JS
}

func (h *Handler) page() pageData {
	data := pageData{
		Stats: pageStats{
			Accuracy:    stats.Percent(h.stats.Accuracy()),
			Sensitivity: stats.Percent(h.stats.Sensitivity()),
			Specificity: stats.Percent(h.stats.Specificity()),
			Total:       h.stats.Total(),
			Counts:      h.stats.Counts(),
			Matrix:      h.stats.Matrix(),
		},
	}
	if len(h.animation) > 0 {
		data.Animation = template.JS(h.animation)
	}
	return data
}

// Index handles GET /
func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, pageTemplate, h.page())
}

// Upload handles POST / from the page's upload form.
func (h *Handler) Upload(c *gin.Context) {
	data := h.page()

	result, img, err := h.classifyUpload(c)
	if err != nil {
		resp := MapClassifyError(err)
		data.Error = resp.Message
		c.HTML(resp.StatusCode, pageTemplate, data)
		return
	}

	data.Result = &pageResult{
		Label:      result.Label,
		Confidence: FormatConfidence(result.Confidence),
		Preview:    preview(img),
	}
	c.HTML(http.StatusOK, pageTemplate, data)
}

// FormatConfidence renders a raw score as a percentage truncated to one
// decimal place. The scaling stays in float32 so 0.9 shows as 90.0.
func FormatConfidence(score float32) float64 {
	return math.Trunc(float64(score*1000)) / 10
}

// preview shrinks the upload for display and returns it as a data URL.
// An empty URL means the preview could not be produced.
func preview(img image.Image) template.URL {
	if img == nil {
		return ""
	}

	thumb := resize.Thumbnail(previewSize, previewSize, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return ""
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()))
}
