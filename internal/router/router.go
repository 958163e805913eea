package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Brownie44l1/xray-api/internal/handlers"
	"github.com/Brownie44l1/xray-api/internal/metrics"
	"github.com/Brownie44l1/xray-api/internal/middleware"
)

// Setup creates the gin engine serving the page, the prediction API and
// the operational endpoints.
func Setup(h *handlers.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) (*gin.Engine, error) {
	tmpl, err := handlers.Templates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.MaxMultipartMemory = 10 << 20

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics(m))

	router.GET("/", h.Index)
	router.POST("/", h.Upload)

	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/model", h.ModelInfo)
		v1.POST("/predict", h.Predict)
		v1.POST("/predict/image", h.PredictFromImage)
	}

	return router, nil
}
