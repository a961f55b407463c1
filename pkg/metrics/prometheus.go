// Package metrics provides Prometheus metrics for the evalboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the evalboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Intake
	submissionsAccepted  prometheus.Counter
	submissionsDuplicate prometheus.Counter
	submissionsRejected  *prometheus.CounterVec
	recordsPersisted     prometheus.Counter
	approvals            *prometheus.CounterVec

	// Analytics
	analyticsLatency *prometheus.HistogramVec
	inspectorsTotal  prometheus.Gauge
	recordsTotal     prometheus.Gauge
	riskInspectors   *prometheus.GaugeVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Store
	storeLatency *prometheus.HistogramVec

	// Scheduler and collaborators
	notifications  *prometheus.CounterVec
	digestRuns     *prometheus.CounterVec
	analystCalls   *prometheus.CounterVec
	errorsByOrigin *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "evalboard",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.submissionsAccepted = auto.NewCounter(m.counterOpts("submissions_accepted_total",
		"Submissions accepted onto the intake queue"))
	m.submissionsDuplicate = auto.NewCounter(m.counterOpts("submissions_duplicate_total",
		"Submissions ignored because their id was already seen"))
	m.submissionsRejected = auto.NewCounterVec(m.counterOpts("submissions_rejected_total",
		"Submissions rejected by intake or by the worker"), []string{"reason"})
	m.recordsPersisted = auto.NewCounter(m.counterOpts("records_persisted_total",
		"Evaluation records written to the store"))
	m.approvals = auto.NewCounterVec(m.counterOpts("approvals_total",
		"Approvals by entity kind"), []string{"kind"})

	m.analyticsLatency = auto.NewHistogramVec(m.histogramOpts("analytics_latency_milliseconds",
		"Latency of analytics computations"), []string{"operation"})
	m.inspectorsTotal = auto.NewGauge(m.gaugeOpts("inspectors_total",
		"Inspectors in the roster"))
	m.recordsTotal = auto.NewGauge(m.gaugeOpts("records_total",
		"Evaluation records in the store"))
	m.riskInspectors = auto.NewGaugeVec(m.gaugeOpts("risk_inspectors",
		"Inspectors per risk tier at the last evaluation"), []string{"level"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size",
		"Submissions waiting in the intake queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity",
		"Capacity of the intake queue"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio",
		"Intake queue fill ratio"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total",
		"Submissions enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeued_total",
		"Submissions dequeued by workers"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total",
		"Enqueue attempts refused by the intake queue"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count",
		"Intake workers running"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds",
		"Time a worker spends persisting one submission"))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total",
		"Submissions a worker failed to persist"))

	m.storeLatency = auto.NewHistogramVec(m.histogramOpts("store_latency_milliseconds",
		"Latency of store operations"), []string{"operation"})

	m.notifications = auto.NewCounterVec(m.counterOpts("notifications_total",
		"Notifications written by kind"), []string{"kind"})
	m.digestRuns = auto.NewCounterVec(m.counterOpts("digest_runs_total",
		"Scheduled risk digest runs by outcome"), []string{"outcome"})
	m.analystCalls = auto.NewCounterVec(m.counterOpts("analyst_requests_total",
		"Requests to the analyst service by outcome"), []string{"outcome"})
	m.errorsByOrigin = auto.NewCounterVec(m.counterOpts("errors_total",
		"Errors by component and type"), []string{"component", "type"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes",
		"Heap bytes in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count",
		"Number of goroutines"))
}

// Intake

// RecordSubmissionAccepted counts a submission placed on the queue.
func RecordSubmissionAccepted() {
	if globalManager.enabled {
		globalManager.submissionsAccepted.Inc()
	}
}

// RecordSubmissionDuplicate counts a submission whose id was already seen.
func RecordSubmissionDuplicate() {
	if globalManager.enabled {
		globalManager.submissionsDuplicate.Inc()
	}
}

// RecordSubmissionRejected counts a rejected submission.
func RecordSubmissionRejected(reason string) {
	if globalManager.enabled {
		globalManager.submissionsRejected.WithLabelValues(reason).Inc()
	}
}

// RecordRecordPersisted counts a record written to the store.
func RecordRecordPersisted() {
	if globalManager.enabled {
		globalManager.recordsPersisted.Inc()
	}
}

// RecordApproval counts an approval of a record or an item.
func RecordApproval(kind string) {
	if globalManager.enabled {
		globalManager.approvals.WithLabelValues(kind).Inc()
	}
}

// Analytics

// RecordAnalyticsLatency observes how long an analytics operation took.
func RecordAnalyticsLatency(operation string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.analyticsLatency.WithLabelValues(operation).Observe(latencyMs)
	}
}

// UpdateInspectorsTotal sets the roster size.
func UpdateInspectorsTotal(count int) {
	if globalManager.enabled {
		globalManager.inspectorsTotal.Set(float64(count))
	}
}

// UpdateRecordsTotal sets the number of stored records.
func UpdateRecordsTotal(count int) {
	if globalManager.enabled {
		globalManager.recordsTotal.Set(float64(count))
	}
}

// UpdateRiskInspectors sets the number of inspectors in a risk tier.
func UpdateRiskInspectors(level string, count int) {
	if globalManager.enabled {
		globalManager.riskInspectors.WithLabelValues(level).Set(float64(count))
	}
}

// Queue

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// UpdateQueueUtilization sets the queue fill ratio.
func UpdateQueueUtilization(utilization float64) {
	if globalManager.enabled {
		globalManager.queueUtilization.Set(utilization)
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if globalManager.enabled {
		globalManager.queueEnqueued.Inc()
	}
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if globalManager.enabled {
		globalManager.queueDequeued.Inc()
	}
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if globalManager.enabled {
		globalManager.queueEnqueueErrors.Inc()
	}
}

// Worker

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if globalManager.enabled {
		globalManager.workerErrors.Inc()
	}
}

// Store

// RecordStoreLatency observes the latency of a store operation.
func RecordStoreLatency(operation string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
	}
}

// Scheduler and collaborators

// RecordNotification counts a notification written to an inspector.
func RecordNotification(kind string) {
	if globalManager.enabled {
		globalManager.notifications.WithLabelValues(kind).Inc()
	}
}

// RecordDigestRun counts a scheduled digest run.
func RecordDigestRun(outcome string) {
	if globalManager.enabled {
		globalManager.digestRuns.WithLabelValues(outcome).Inc()
	}
}

// RecordAnalystRequest counts a call to the analyst service.
func RecordAnalystRequest(outcome string) {
	if globalManager.enabled {
		globalManager.analystCalls.WithLabelValues(outcome).Inc()
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByOrigin.WithLabelValues(component, errorType).Inc()
	}
}

// HTTP

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// System

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
