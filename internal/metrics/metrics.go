package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Predictions      *prometheus.CounterVec
	PredictionErrors *prometheus.CounterVec
	InferenceSeconds prometheus.Histogram
	HTTPRequests     *prometheus.CounterVec
	HTTPSeconds      *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Predictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xray",
			Name:      "predictions_total",
			Help:      "Classified images by predicted label.",
		}, []string{"label"}),
		PredictionErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xray",
			Name:      "prediction_errors_total",
			Help:      "Failed classifications by error code.",
		}, []string{"code"}),
		InferenceSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "xray",
			Name:      "inference_duration_seconds",
			Help:      "Time spent preprocessing and running the model.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xray",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "xray",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) ObservePrediction(label string, elapsed time.Duration) {
	m.Predictions.WithLabelValues(label).Inc()
	m.InferenceSeconds.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveError(code string) {
	m.PredictionErrors.WithLabelValues(code).Inc()
}
