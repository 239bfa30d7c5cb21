// Package metrics provides Prometheus metrics for the membership service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Recommendation engine
	recommendations       *prometheus.CounterVec
	recommendationLatency prometheus.Histogram
	slotsFilled           *prometheus.CounterVec
	validationFailures    *prometheus.CounterVec

	// Catalog
	catalogLevels       prometheus.Gauge
	catalogActiveLevels prometheus.Gauge
	catalogLoads        *prometheus.CounterVec

	// Matrix builder
	matrixRows *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "memberships",
		subsystem:        "advisor",
		histogramBuckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	m.recommendations = m.counterVec("recommendations_total",
		"Recommendations computed, by match type (Exact, Best, None)", "match_type")
	m.recommendationLatency = m.histogram("recommendation_latency_milliseconds",
		"Time spent in the recommendation engine in milliseconds", m.histogramBuckets)
	m.slotsFilled = m.counterVec("recommendation_slots_filled_total",
		"Alternative slots populated, by slot", "slot")
	m.validationFailures = m.counterVec("validation_failures_total",
		"Rejected selector inputs, by field", "field")

	m.catalogLevels = m.gauge("catalog_levels", "Membership levels in the catalog")
	m.catalogActiveLevels = m.gauge("catalog_active_levels", "Active membership levels in the catalog")
	m.catalogLoads = m.counterVec("catalog_loads_total", "Catalog load attempts, by result", "result")

	m.matrixRows = m.counterVec("matrix_rows_total", "Matrix rows built, by validity", "valid")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// matchLabel maps the engine's empty match type to a readable label.
func matchLabel(matchType string) string {
	if matchType == "" {
		return "None"
	}
	return matchType
}

// RecordRecommendation counts one engine call by match type.
func (m *Manager) RecordRecommendation(matchType string) {
	m.recommendations.WithLabelValues(matchLabel(matchType)).Inc()
}

// RecordRecommendationLatency observes engine latency in milliseconds.
func (m *Manager) RecordRecommendationLatency(latencyMs float64) {
	m.recommendationLatency.Observe(latencyMs)
}

// RecordSlotFilled counts a populated alternative slot.
func (m *Manager) RecordSlotFilled(slot string) {
	m.slotsFilled.WithLabelValues(slot).Inc()
}

// RecordValidationFailure counts a rejected input field.
func (m *Manager) RecordValidationFailure(field string) {
	m.validationFailures.WithLabelValues(field).Inc()
}

// UpdateCatalogLevels sets the catalog size gauges.
func (m *Manager) UpdateCatalogLevels(total, active int) {
	m.catalogLevels.Set(float64(total))
	m.catalogActiveLevels.Set(float64(active))
}

// RecordCatalogLoad counts a catalog load attempt.
func (m *Manager) RecordCatalogLoad(ok bool) {
	result := "error"
	if ok {
		result = "ok"
	}
	m.catalogLoads.WithLabelValues(result).Inc()
}

// RecordMatrixRows counts valid and invalid matrix rows.
func (m *Manager) RecordMatrixRows(valid, invalid int) {
	m.matrixRows.WithLabelValues(strconv.FormatBool(true)).Add(float64(valid))
	m.matrixRows.WithLabelValues(strconv.FormatBool(false)).Add(float64(invalid))
}

// RecordHTTPRequest records an HTTP request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records a failed HTTP request.
func (m *Manager) RecordHTTPError(endpoint, method, errorType, severity string) {
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystem sets the memory and goroutine gauges.
func (m *Manager) UpdateSystem(memBytes uint64, goroutines int) {
	m.systemMemoryUsage.Set(float64(memBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func (m *Manager) RecordSystemGCPauseTime(pauseMs float64) {
	m.systemGCPauseTime.Observe(pauseMs)
}

// Package-level helpers record on the global manager.

func RecordRecommendation(matchType string) { globalManager.RecordRecommendation(matchType) }

func RecordRecommendationLatency(latencyMs float64) {
	globalManager.RecordRecommendationLatency(latencyMs)
}

func RecordSlotFilled(slot string) { globalManager.RecordSlotFilled(slot) }

func RecordValidationFailure(field string) { globalManager.RecordValidationFailure(field) }

func UpdateCatalogLevels(total, active int) { globalManager.UpdateCatalogLevels(total, active) }

func RecordCatalogLoad(ok bool) { globalManager.RecordCatalogLoad(ok) }

func RecordMatrixRows(valid, invalid int) { globalManager.RecordMatrixRows(valid, invalid) }

func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

func RecordHTTPError(endpoint, method, errorType, severity string) {
	globalManager.RecordHTTPError(endpoint, method, errorType, severity)
}

func UpdateSystem(memBytes uint64, goroutines int) { globalManager.UpdateSystem(memBytes, goroutines) }

func RecordSystemGCPauseTime(pauseMs float64) { globalManager.RecordSystemGCPauseTime(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
