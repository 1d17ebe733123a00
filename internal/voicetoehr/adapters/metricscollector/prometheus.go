package metricscollector

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
)

const namespace = "voicetoehr"

// PrometheusCollector exposes transcription and HTTP metrics
type PrometheusCollector struct {
	transcriptionsTotal   *prometheus.CounterVec
	transcriptionDuration *prometheus.HistogramVec
	audioBytes            prometheus.Histogram

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewPrometheusCollector registers its metrics on registerer
func NewPrometheusCollector(registerer prometheus.Registerer) (*PrometheusCollector, error) {
	pc := &PrometheusCollector{
		transcriptionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_total",
			Help:      "Total transcription requests by outcome.",
		}, []string{"success", "error_type"}),

		transcriptionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_duration_seconds",
			Help:      "Time spent serving a transcription request.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"success"}),

		audioBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_audio_bytes",
			Help:      "Decoded audio size per transcription request.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8), // 1KB → 16MB
		}),

		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed.",
		}, []string{"method", "path_pattern", "status_code"}),

		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),
	}

	for _, c := range []prometheus.Collector{
		pc.transcriptionsTotal,
		pc.transcriptionDuration,
		pc.audioBytes,
		pc.httpRequestsTotal,
		pc.httpRequestDuration,
	} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}

	return pc, nil
}

// RecordTranscription never fails
func (pc *PrometheusCollector) RecordTranscription(ctx context.Context, metrics core.TranscriptionMetrics) error {
	success := strconv.FormatBool(metrics.Success)

	pc.transcriptionsTotal.WithLabelValues(success, metrics.ErrorType).Inc()
	pc.transcriptionDuration.WithLabelValues(success).Observe(metrics.ExecutionTime.Seconds())
	if metrics.AudioBytes > 0 {
		pc.audioBytes.Observe(float64(metrics.AudioBytes))
	}

	return nil
}

// ObserveHTTPRequest records one served request. pathPattern must be the
// route template, not the raw path.
func (pc *PrometheusCollector) ObserveHTTPRequest(method, pathPattern string, statusCode int, duration time.Duration) {
	if pathPattern == "" {
		pathPattern = "unknown"
	}
	pc.httpRequestsTotal.WithLabelValues(method, pathPattern, strconv.Itoa(statusCode)).Inc()
	pc.httpRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
}
