package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/themecheck/internal/model"
)

const namespace = "themecheck"

// Metrics holds the themecheck collectors on a private registry.
// Every method is safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	themesTotal          *prometheus.CounterVec
	evidenceTotal        *prometheus.CounterVec
	recommendedTotal     *prometheus.CounterVec
	destinationDuration  prometheus.Histogram
	confidenceAdjustment prometheus.Histogram
	similarityRequests   *prometheus.CounterVec

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors
func New() *Metrics {
	registry := prometheus.NewRegistry()

	themesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "themes_total",
			Help:      "Validated themes by validation status.",
		},
		[]string{"status"},
	)
	evidenceTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evidence_total",
			Help:      "Evidence records by curation outcome.",
		},
		[]string{"outcome"},
	)
	recommendedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommended_total",
			Help:      "Themes by inclusion recommendation.",
		},
		[]string{"included"},
	)
	destinationDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "destination_duration_seconds",
			Help:      "Time to validate one destination.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	confidenceAdjustment := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confidence_adjustment",
			Help:      "Distribution of per-theme confidence adjustments.",
			Buckets:   []float64{-0.3, -0.2, -0.1, -0.05, 0, 0.05, 0.1, 0.2, 0.3},
		},
	)
	similarityRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "similarity_requests_total",
			Help:      "Embedding lookups by result.",
		},
		[]string{"result"},
	)
	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(
		themesTotal,
		evidenceTotal,
		recommendedTotal,
		destinationDuration,
		confidenceAdjustment,
		similarityRequests,
		requestTotal,
		requestDuration,
	)

	return &Metrics{
		registry:             registry,
		themesTotal:          themesTotal,
		evidenceTotal:        evidenceTotal,
		recommendedTotal:     recommendedTotal,
		destinationDuration:  destinationDuration,
		confidenceAdjustment: confidenceAdjustment,
		similarityRequests:   similarityRequests,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
	}
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordTheme records one validated theme
func (m *Metrics) RecordTheme(theme model.ValidatedTheme) {
	if m == nil {
		return
	}
	m.themesTotal.WithLabelValues(string(theme.Status)).Inc()
	m.recommendedTotal.WithLabelValues(strconv.FormatBool(theme.RecommendedForInclusion)).Inc()
	m.confidenceAdjustment.Observe(theme.Adjustment)

	if theme.Evidence != nil {
		m.evidenceTotal.WithLabelValues("kept").Add(float64(theme.Evidence.TotalCount))
		m.evidenceTotal.WithLabelValues("rejected").Add(float64(len(theme.Evidence.Rejections)))
	}
}

// RecordDestination records the time spent on one destination
func (m *Metrics) RecordDestination(duration time.Duration) {
	if m == nil {
		return
	}
	m.destinationDuration.Observe(duration.Seconds())
}

// RecordSimilarity records one embedding lookup by result label
func (m *Metrics) RecordSimilarity(result string) {
	if m == nil {
		return
	}
	if result == "" {
		result = "unknown"
	}
	m.similarityRequests.WithLabelValues(result).Inc()
}

// Middleware records request counts and latency
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &StatusRecorder{
			ResponseWriter: w,
			StatusCode:     http.StatusOK,
		}

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(recorder.StatusCode)).Inc()
		m.requestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// StatusRecorder captures the status code written by a handler
type StatusRecorder struct {
	http.ResponseWriter
	StatusCode int
}

func (w *StatusRecorder) WriteHeader(statusCode int) {
	w.StatusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *StatusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *StatusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
