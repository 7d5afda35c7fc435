// Package metrics provides Prometheus metrics for the resume relevance service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the relevance service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Analysis metrics
	analysesTotal   *prometheus.CounterVec
	analysisLatency prometheus.Histogram
	analysisErrors  *prometheus.CounterVec
	lexicalLatency  prometheus.Histogram
	semanticLatency prometheus.Histogram
	keywordsMissing prometheus.Histogram
	finalScore      prometheus.Histogram

	// Embedding and vector cache metrics
	embeddingsComputed *prometheus.CounterVec
	embeddingLatency   prometheus.Histogram
	vectorCacheHits    prometheus.Counter
	vectorCacheMisses  prometheus.Counter
	vectorStoreLatency *prometheus.HistogramVec

	// Result store metrics
	resultRecordsTotal prometheus.Gauge
	resultStoreLatency *prometheus.HistogramVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "resumatch",
		subsystem:        "relevance",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}
	if !m.enabled {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

// Enabled reports whether the collectors are exposed on the configured registry.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval returns how often gauge metrics should be sampled.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	counterVec := func(name, help string, keys ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		}, keys)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	histogram := func(name, help string, buckets []float64) prometheus.Histogram {
		return auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels, Buckets: buckets,
		})
	}
	histogramVec := func(name, help string, keys ...string) *prometheus.HistogramVec {
		return auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels, Buckets: m.histogramBuckets,
		}, keys)
	}

	m.analysesTotal = counterVec("analyses_total", "Total number of completed analyses by verdict", "verdict")
	m.analysisLatency = histogram("analysis_latency_milliseconds", "End-to-end relevance computation latency in milliseconds", m.histogramBuckets)
	m.analysisErrors = counterVec("analysis_errors_total", "Total number of failed analyses by error kind", "kind")
	m.lexicalLatency = histogram("lexical_latency_milliseconds", "Keyword matching latency in milliseconds", m.histogramBuckets)
	m.semanticLatency = histogram("semantic_latency_milliseconds", "Semantic similarity latency in milliseconds", m.histogramBuckets)
	m.keywordsMissing = histogram("keywords_missing", "Number of missing keywords per analysis", []float64{0, 1, 2, 3, 5, 8, 13, 21})
	m.finalScore = histogram("final_score", "Distribution of final relevance scores", []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1})

	m.embeddingsComputed = counterVec("embeddings_total", "Total number of embeddings computed by kind", "kind")
	m.embeddingLatency = histogram("embedding_latency_milliseconds", "Embedding latency in milliseconds", m.histogramBuckets)
	m.vectorCacheHits = counter("vector_cache_hits_total", "Total number of job description vectors served from the vector store")
	m.vectorCacheMisses = counter("vector_cache_misses_total", "Total number of job description vectors computed and stored")
	m.vectorStoreLatency = histogramVec("vector_store_latency_milliseconds", "Vector store operation latency in milliseconds", "operation")

	m.resultRecordsTotal = gauge("result_records_total", "Total number of stored analysis results")
	m.resultStoreLatency = histogramVec("result_store_latency_milliseconds", "Result store operation latency in milliseconds", "operation")

	m.httpRequests = counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
	m.errorRateByType = counterVec("errors_by_type_total", "Total number of errors by type", "error_type", "severity")
	m.errorRateByEndpoint = counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = histogramVec("error_latency_milliseconds", "Latency of operations that resulted in errors", "component", "error_type")

	m.systemMemoryUsage = gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Analysis Metrics Functions.

// RecordAnalysis counts a completed analysis by verdict.
func RecordAnalysis(verdict string) {
	globalManager.analysesTotal.WithLabelValues(verdict).Inc()
}

// RecordAnalysisLatency records relevance computation latency in milliseconds.
func RecordAnalysisLatency(latencyMs float64) {
	globalManager.analysisLatency.Observe(latencyMs)
}

// RecordAnalysisError counts a failed analysis by error kind.
func RecordAnalysisError(kind string) {
	globalManager.analysisErrors.WithLabelValues(kind).Inc()
}

// RecordLexicalLatency records keyword matching latency in milliseconds.
func RecordLexicalLatency(latencyMs float64) {
	globalManager.lexicalLatency.Observe(latencyMs)
}

// RecordSemanticLatency records semantic similarity latency in milliseconds.
func RecordSemanticLatency(latencyMs float64) {
	globalManager.semanticLatency.Observe(latencyMs)
}

// RecordMissingKeywords records how many keywords an analysis missed.
func RecordMissingKeywords(count int) {
	globalManager.keywordsMissing.Observe(float64(count))
}

// RecordFinalScore records a final relevance score in [0, 1].
func RecordFinalScore(score float64) {
	globalManager.finalScore.Observe(score)
}

// Embedding Metrics Functions.

// RecordEmbedding counts an embedding computation; kind is "resume" or "jd".
func RecordEmbedding(kind string) {
	globalManager.embeddingsComputed.WithLabelValues(kind).Inc()
}

// RecordEmbeddingLatency records embedding latency in milliseconds.
func RecordEmbeddingLatency(latencyMs float64) {
	globalManager.embeddingLatency.Observe(latencyMs)
}

// RecordVectorCacheHit increments the vector cache hit counter.
func RecordVectorCacheHit() {
	globalManager.vectorCacheHits.Inc()
}

// RecordVectorCacheMiss increments the vector cache miss counter.
func RecordVectorCacheMiss() {
	globalManager.vectorCacheMisses.Inc()
}

// RecordVectorStoreLatency records a vector store operation latency in milliseconds.
func RecordVectorStoreLatency(operation string, latencyMs float64) {
	globalManager.vectorStoreLatency.WithLabelValues(operation).Observe(latencyMs)
}

// Result Store Metrics Functions.

// UpdateResultRecordsTotal sets the number of stored analysis results.
func UpdateResultRecordsTotal(count int) {
	globalManager.resultRecordsTotal.Set(float64(count))
}

// RecordResultStoreLatency records a result store operation latency in milliseconds.
func RecordResultStoreLatency(operation string, latencyMs float64) {
	globalManager.resultStoreLatency.WithLabelValues(operation).Observe(latencyMs)
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error by endpoint, method, and type.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records latency for operations that resulted in errors.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RefreshInterval returns how often gauges fed by background updaters are refreshed.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}
