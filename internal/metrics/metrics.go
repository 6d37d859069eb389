package metrics

import (
	"runtime"
	"sync"
	"time"
)

// Metrics holds all application metrics. A nil *Metrics is valid and
// records nothing, so components can run without instrumentation in tests.
type Metrics struct {
	// Pipeline metrics
	Queries         *CounterVec // labels: language, outcome
	QueriesRejected *Counter
	QueryDuration   *Histogram

	// Search metrics
	SearchProviderRequests *CounterVec   // labels: provider
	SearchProviderFailures *CounterVec   // labels: provider, error_type
	SearchProviderLatency  *HistogramVec // labels: provider
	SearchEmpty            *Counter

	// Generation metrics
	GenerationAttempts  *Counter
	GenerationFallbacks *Counter
	GenerationLatency   *Histogram

	// Query log metrics
	LogSinkWrites   *Counter
	LogSinkFailures *Counter

	// Bus metrics
	BusEventsPublished *CounterVec // labels: topic
	BusErrors          *CounterVec // labels: topic

	// HTTP metrics
	HTTPRequests         *CounterVec   // labels: method, path, status
	HTTPDuration         *HistogramVec // labels: method, path
	HTTPRequestsInFlight *Gauge

	// System metrics
	GoroutineCount *Gauge
	MemoryUsage    *Gauge // in bytes

	startTime time.Time
	stop      chan struct{}
	stopOnce  sync.Once
}

// New creates a new metrics instance with all metrics initialized.
func New() *Metrics {
	return &Metrics{
		Queries: NewCounterVec(
			"govai_queries_total",
			"Total number of processed queries",
			[]string{"language", "outcome"},
		),
		QueriesRejected: NewCounter(
			"govai_query_rejected_total",
			"Queries rejected before processing",
			nil,
		),
		QueryDuration: NewHistogram(
			"govai_query_duration_ms",
			"End-to-end query processing time in milliseconds",
			DefaultLatencyBuckets,
		),
		SearchProviderRequests: NewCounterVec(
			"govai_search_provider_requests_total",
			"Search provider calls",
			[]string{"provider"},
		),
		SearchProviderFailures: NewCounterVec(
			"govai_search_provider_failures_total",
			"Failed search provider calls",
			[]string{"provider", "error_type"},
		),
		SearchProviderLatency: NewHistogramVec(
			"govai_search_provider_latency_ms",
			"Search provider latency in milliseconds",
			[]string{"provider"},
			DefaultLatencyBuckets,
		),
		SearchEmpty: NewCounter(
			"govai_search_empty_total",
			"Searches where every provider failed or returned nothing",
			nil,
		),
		GenerationAttempts: NewCounter(
			"govai_generation_attempts_total",
			"LLM generation attempts including retries",
			nil,
		),
		GenerationFallbacks: NewCounter(
			"govai_generation_fallbacks_total",
			"Answers served from the static fallback",
			nil,
		),
		GenerationLatency: NewHistogram(
			"govai_generation_latency_ms",
			"Answer generation time in milliseconds, retries included",
			DefaultLatencyBuckets,
		),
		LogSinkWrites: NewCounter(
			"govai_log_sink_writes_total",
			"Query log records written",
			nil,
		),
		LogSinkFailures: NewCounter(
			"govai_log_sink_failures_total",
			"Query log records that could not be written",
			nil,
		),
		BusEventsPublished: NewCounterVec(
			"govai_bus_events_published_total",
			"Events published to the bus",
			[]string{"topic"},
		),
		BusErrors: NewCounterVec(
			"govai_bus_errors_total",
			"Bus publish failures",
			[]string{"topic"},
		),
		HTTPRequests: NewCounterVec(
			"govai_http_requests_total",
			"HTTP requests",
			[]string{"method", "path", "status"},
		),
		HTTPDuration: NewHistogramVec(
			"govai_http_request_duration_ms",
			"HTTP request duration in milliseconds",
			[]string{"method", "path"},
			DefaultLatencyBuckets,
		),
		HTTPRequestsInFlight: NewGauge(
			"govai_http_requests_in_flight",
			"HTTP requests currently being served",
		),
		GoroutineCount: NewGauge(
			"govai_goroutines",
			"Number of goroutines",
		),
		MemoryUsage: NewGauge(
			"govai_memory_alloc_bytes",
			"Allocated heap memory in bytes",
		),
		startTime: time.Now(),
		stop:      make(chan struct{}),
	}
}

// StartSystemCollector samples runtime metrics every interval until Close.
func (m *Metrics) StartSystemCollector(interval time.Duration) {
	if m == nil {
		return
	}
	m.collectSystem()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				m.collectSystem()
			}
		}
	}()
}

func (m *Metrics) collectSystem() {
	m.GoroutineCount.Set(float64(runtime.NumGoroutine()))

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	m.MemoryUsage.Set(float64(memStats.Alloc))
}

// Uptime returns the time since the metrics were created.
func (m *Metrics) Uptime() time.Duration {
	if m == nil {
		return 0
	}
	return time.Since(m.startTime)
}

// RecordQuery records a completed query.
func (m *Metrics) RecordQuery(language string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "degraded"
	}
	m.Queries.WithLabels(language, outcome).Inc()
	m.QueryDuration.Observe(float64(duration.Milliseconds()))
}

// RecordRejected records a query rejected as invalid.
func (m *Metrics) RecordRejected() {
	if m == nil {
		return
	}
	m.QueriesRejected.Inc()
}

// RecordProviderCall records one search provider attempt.
// errType is empty on success.
func (m *Metrics) RecordProviderCall(provider string, latency time.Duration, errType string) {
	if m == nil {
		return
	}
	m.SearchProviderRequests.WithLabels(provider).Inc()
	m.SearchProviderLatency.WithLabels(provider).Observe(float64(latency.Milliseconds()))
	if errType != "" {
		m.SearchProviderFailures.WithLabels(provider, errType).Inc()
	}
}

// RecordSearchEmpty records a search that produced no results.
func (m *Metrics) RecordSearchEmpty() {
	if m == nil {
		return
	}
	m.SearchEmpty.Inc()
}

// RecordGeneration records one answer generation run.
func (m *Metrics) RecordGeneration(attempts int, fallback bool, latency time.Duration) {
	if m == nil {
		return
	}
	m.GenerationAttempts.Add(int64(attempts))
	if fallback {
		m.GenerationFallbacks.Inc()
	}
	m.GenerationLatency.Observe(float64(latency.Milliseconds()))
}

// RecordLogWrite records the result of a query log write.
func (m *Metrics) RecordLogWrite(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.LogSinkFailures.Inc()
		return
	}
	m.LogSinkWrites.Inc()
}

// RecordBusPublish records event bus publish metrics.
func (m *Metrics) RecordBusPublish(topic string, err error) {
	if m == nil {
		return
	}
	m.BusEventsPublished.WithLabels(topic).Inc()
	if err != nil {
		m.BusErrors.WithLabels(topic).Inc()
	}
}

// RecordHTTP records HTTP request metrics.
// This is called by the HTTP middleware.
func (m *Metrics) RecordHTTP(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	normalized := normalizePath(path)
	m.HTTPRequests.WithLabels(method, normalized, statusCode(status)).Inc()
	m.HTTPDuration.WithLabels(method, normalized).Observe(float64(duration.Milliseconds()))
}

// Close stops the system collector.
func (m *Metrics) Close() error {
	if m == nil {
		return nil
	}
	m.stopOnce.Do(func() { close(m.stop) })
	return nil
}
