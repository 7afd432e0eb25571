// Package metrics provides Prometheus metrics for the placer allocation service.
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

// Manager manages all Prometheus metrics for the placer service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Allocation run metrics
	runsStarted   *prometheus.CounterVec
	runsCompleted *prometheus.CounterVec
	runsFailed    prometheus.Counter
	runsEmpty     prometheus.Counter
	runDuration   *prometheus.HistogramVec

	// Scoring metrics
	pairsScored          prometheus.Counter
	pairsGated           prometheus.Counter
	scoringLatency       prometheus.Histogram
	validationRejections prometheus.Counter
	embeddingFallbacks   *prometheus.CounterVec

	// Solver metrics
	solverDuration *prometheus.HistogramVec
	matchesFound   prometheus.Counter

	// Resolver gauges
	eligibleCandidates prometheus.Gauge
	frozenCandidates   prometheus.Gauge
	openSlots          prometheus.Gauge

	// Store metrics
	storeErrors        *prometheus.CounterVec
	recordRunLatency   prometheus.Histogram
	matchesRecorded    prometheus.Counter
	runsStored         prometheus.Gauge
	embeddingVocabSize prometheus.Gauge
	embeddingLoadTime  prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
	errorLatency      *prometheus.HistogramVec

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
		namespace:        "placer",
		subsystem:        "allocation",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.runsStarted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "runs_started_total",
			Help:      "Total number of allocation runs started, by algorithm",
		},
		[]string{"algorithm"},
	)

	m.runsCompleted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "runs_completed_total",
			Help:      "Total number of allocation runs recorded successfully, by algorithm",
		},
		[]string{"algorithm"},
	)

	m.runsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_failed_total",
		Help:      "Total number of allocation runs aborted by a data-layer failure",
	})

	m.runsEmpty = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_empty_total",
		Help:      "Total number of runs that terminated successfully with zero matches",
	})

	m.runDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "run_duration_milliseconds",
			Help:      "End-to-end allocation run duration in milliseconds, by algorithm",
			Buckets:   m.histogramBuckets,
		},
		[]string{"algorithm"},
	)

	m.pairsScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pairs_scored_total",
		Help:      "Total number of candidate-position pairs scored",
	})

	m.pairsGated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pairs_gated_total",
		Help:      "Total number of pairs excluded by the academic eligibility gate",
	})

	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_latency_milliseconds",
		Help:      "Histogram of per-pair scoring latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.validationRejections = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "validation_rejections_total",
		Help:      "Total number of pairs rejected by component or aggregate floors",
	})

	m.embeddingFallbacks = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "embedding_fallbacks_total",
			Help:      "Total number of out-of-vocabulary token fallbacks, by strategy",
		},
		[]string{"strategy"},
	)

	m.solverDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "solver_duration_milliseconds",
			Help:      "Assignment solver duration in milliseconds, by algorithm",
			Buckets:   m.histogramBuckets,
		},
		[]string{"algorithm"},
	)

	m.matchesFound = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_found_total",
		Help:      "Total number of matches selected by the solver",
	})

	m.eligibleCandidates = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "eligible_candidates",
		Help:      "Eligible candidate count observed by the most recent run",
	})

	m.frozenCandidates = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frozen_candidates",
		Help:      "Frozen candidate count observed by the most recent incremental run",
	})

	m.openSlots = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "open_slots",
		Help:      "Open capacity slots observed by the most recent run",
	})

	m.storeErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_errors_total",
			Help:      "Total number of record store errors, by operation",
		},
		[]string{"operation"},
	)

	m.recordRunLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "record_run_latency_milliseconds",
		Help:      "Latency of the atomic run+matches write in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.matchesRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_recorded_total",
		Help:      "Total number of match rows persisted",
	})

	m.runsStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_stored",
		Help:      "Number of allocation runs currently in the store",
	})

	m.embeddingVocabSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "embedding_vocab_size",
		Help:      "Number of word vectors in the loaded embedding table",
	})

	m.embeddingLoadTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "embedding_load_duration_milliseconds",
		Help:      "Embedding table load duration in milliseconds",
		Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 30000},
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total errors by component and error type",
		},
		[]string{"component", "error_type"},
	)

	m.errorsByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_type_total",
			Help:      "Total errors by type and severity",
		},
		[]string{"error_type", "severity"},
	)

	m.errorsByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total errors by endpoint, method, and error type",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "error_latency_milliseconds",
			Help:      "Latency of operations that resulted in an error",
			Buckets:   m.histogramBuckets,
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Run metrics functions.

// RecordRunStarted increments the runs started counter for an algorithm.
func RecordRunStarted(algorithm string) {
	globalManager.runsStarted.WithLabelValues(algorithm).Inc()
}

// RecordRunCompleted increments the runs completed counter for an algorithm.
func RecordRunCompleted(algorithm string) {
	globalManager.runsCompleted.WithLabelValues(algorithm).Inc()
}

// RecordRunFailed increments the failed runs counter.
func RecordRunFailed() {
	globalManager.runsFailed.Inc()
}

// RecordRunEmpty increments the empty (zero-match SUCCESS) runs counter.
func RecordRunEmpty() {
	globalManager.runsEmpty.Inc()
}

// RecordRunDuration records end-to-end run duration in milliseconds.
func RecordRunDuration(algorithm string, durationMs float64) {
	globalManager.runDuration.WithLabelValues(algorithm).Observe(durationMs)
}

// Scoring metrics functions.

// RecordPairScored increments the scored pairs counter.
func RecordPairScored() {
	globalManager.pairsScored.Inc()
}

// RecordPairGated increments the academically-gated pairs counter.
func RecordPairGated() {
	globalManager.pairsGated.Inc()
}

// RecordScoringLatency records per-pair scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordValidationRejection increments the validation rejections counter.
func RecordValidationRejection() {
	globalManager.validationRejections.Inc()
}

// RecordEmbeddingFallback counts an out-of-vocabulary fallback by strategy.
func RecordEmbeddingFallback(strategy string) {
	globalManager.embeddingFallbacks.WithLabelValues(strategy).Inc()
}

// Solver metrics functions.

// RecordSolverDuration records solver duration in milliseconds for an algorithm.
func RecordSolverDuration(algorithm string, durationMs float64) {
	globalManager.solverDuration.WithLabelValues(algorithm).Observe(durationMs)
}

// RecordMatchesFound adds to the matches found counter.
func RecordMatchesFound(count int) {
	globalManager.matchesFound.Add(float64(count))
}

// Resolver metrics functions.

// UpdateEligibleCandidates sets the eligible candidate gauge.
func UpdateEligibleCandidates(count int) {
	globalManager.eligibleCandidates.Set(float64(count))
}

// UpdateFrozenCandidates sets the frozen candidate gauge.
func UpdateFrozenCandidates(count int) {
	globalManager.frozenCandidates.Set(float64(count))
}

// UpdateOpenSlots sets the open slots gauge.
func UpdateOpenSlots(count int) {
	globalManager.openSlots.Set(float64(count))
}

// Store metrics functions.

// RecordStoreError increments the store error counter for an operation.
func RecordStoreError(operation string) {
	globalManager.storeErrors.WithLabelValues(operation).Inc()
}

// RecordRunWriteLatency records the atomic run write latency in milliseconds.
func RecordRunWriteLatency(latencyMs float64) {
	globalManager.recordRunLatency.Observe(latencyMs)
}

// RecordMatchesRecorded adds to the persisted match rows counter.
func RecordMatchesRecorded(count int) {
	globalManager.matchesRecorded.Add(float64(count))
}

// UpdateRunsStored sets the stored runs gauge.
func UpdateRunsStored(count int) {
	globalManager.runsStored.Set(float64(count))
}

// Embedding metrics functions.

// UpdateEmbeddingVocabSize sets the loaded vocabulary size gauge.
func UpdateEmbeddingVocabSize(size int) {
	globalManager.embeddingVocabSize.Set(float64(size))
}

// RecordEmbeddingLoadDuration records the table load duration in milliseconds.
func RecordEmbeddingLoadDuration(durationMs float64) {
	globalManager.embeddingLoadTime.Observe(durationMs)
}

// HTTP metrics functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics functions.

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
