package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCounter(t *testing.T) {
	c := NewCounter("test_counter", "A test counter", nil)

	if c.Value() != 0 {
		t.Errorf("expected initial value 0, got %d", c.Value())
	}

	c.Inc()
	c.Add(5)
	if c.Value() != 6 {
		t.Errorf("expected value 6, got %d", c.Value())
	}

	// Counters can't decrease
	c.Add(-10)
	if c.Value() != 6 {
		t.Errorf("expected value 6 after Add(-10), got %d", c.Value())
	}

	c.Reset()
	if c.Value() != 0 {
		t.Errorf("expected value 0 after Reset(), got %d", c.Value())
	}
}

func TestGauge(t *testing.T) {
	g := NewGauge("test_gauge", "A test gauge")

	g.Set(42.5)
	if g.Value() != 42.5 {
		t.Errorf("expected value 42.5, got %f", g.Value())
	}

	g.Inc()
	g.Dec()
	g.Add(-2.5)
	if g.Value() != 40 {
		t.Errorf("expected value 40, got %f", g.Value())
	}
}

func TestGauge_Concurrent(t *testing.T) {
	g := NewGauge("test_gauge", "A test gauge")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Inc()
		}()
	}
	wg.Wait()

	if g.Value() != 50 {
		t.Errorf("expected 50, got %f", g.Value())
	}
}

func TestHistogram(t *testing.T) {
	h := NewHistogram("test_histogram", "A test histogram", []float64{10, 100, 1000})

	for _, v := range []float64{5, 10, 50, 500, 5000} {
		h.Observe(v)
	}

	if h.Count() != 5 {
		t.Errorf("expected count 5, got %d", h.Count())
	}
	if h.Sum() != 5565 {
		t.Errorf("expected sum 5565, got %f", h.Sum())
	}

	want := []int64{2, 3, 4, 5}
	got := h.Cumulative()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bucket %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestCounterVec(t *testing.T) {
	cv := NewCounterVec("test_vec", "A test vector", []string{"provider"})

	cv.WithLabels("tavily").Inc()
	cv.WithLabels("tavily").Inc()
	cv.WithLabels("serpapi").Inc()

	if got := cv.WithLabels("tavily").Value(); got != 2 {
		t.Errorf("tavily = %d, want 2", got)
	}
	if got := cv.Total(); got != 3 {
		t.Errorf("Total() = %d, want 3", got)
	}
}

func TestCounterVec_WrongLabelCount(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for wrong label count")
		}
	}()
	NewCounterVec("x", "x", []string{"a", "b"}).WithLabels("only-one")
}

func TestRecordHelpers(t *testing.T) {
	m := New()
	defer m.Close()

	m.RecordQuery("bn", true, 120*time.Millisecond)
	m.RecordQuery("banglish", false, 2*time.Second)
	m.RecordRejected()
	m.RecordProviderCall("tavily", 300*time.Millisecond, "")
	m.RecordProviderCall("tavily", time.Second, "TIMEOUT")
	m.RecordSearchEmpty()
	m.RecordGeneration(3, true, 4*time.Second)
	m.RecordLogWrite(nil)
	m.RecordLogWrite(errors.New("disk full"))

	if got := m.Queries.Total(); got != 2 {
		t.Errorf("queries = %d, want 2", got)
	}
	if got := m.Queries.WithLabels("banglish", "degraded").Value(); got != 1 {
		t.Errorf("banglish degraded = %d, want 1", got)
	}
	if got := m.SearchProviderFailures.WithLabels("tavily", "TIMEOUT").Value(); got != 1 {
		t.Errorf("tavily timeouts = %d, want 1", got)
	}
	if got := m.SearchProviderRequests.WithLabels("tavily").Value(); got != 2 {
		t.Errorf("tavily requests = %d, want 2", got)
	}
	if m.GenerationAttempts.Value() != 3 || m.GenerationFallbacks.Value() != 1 {
		t.Errorf("generation attempts/fallbacks = %d/%d, want 3/1",
			m.GenerationAttempts.Value(), m.GenerationFallbacks.Value())
	}
	if m.LogSinkWrites.Value() != 1 || m.LogSinkFailures.Value() != 1 {
		t.Errorf("log writes/failures = %d/%d, want 1/1",
			m.LogSinkWrites.Value(), m.LogSinkFailures.Value())
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	m.RecordQuery("en", true, time.Second)
	m.RecordRejected()
	m.RecordProviderCall("serpapi", time.Second, "UNAUTHORIZED")
	m.RecordSearchEmpty()
	m.RecordGeneration(1, false, time.Second)
	m.RecordLogWrite(nil)
	m.RecordBusPublish("topic", nil)
	m.RecordHTTP("GET", "/", 200, time.Millisecond)
	m.StartSystemCollector(time.Second)

	if err := m.Close(); err != nil {
		t.Errorf("Close() on nil = %v", err)
	}
}

func TestPrometheusFormat(t *testing.T) {
	m := New()
	defer m.Close()

	m.RecordQuery("bn", true, 80*time.Millisecond)
	m.RecordProviderCall("serpapi", 40*time.Millisecond, "RATE_LIMITED")

	out := m.PrometheusFormat()

	wants := []string{
		"# TYPE govai_queries_total counter",
		`govai_queries_total{language="bn",outcome="success"} 1`,
		"govai_query_rejected_total 0",
		`govai_query_duration_ms_bucket{le="100"} 1`,
		`govai_query_duration_ms_bucket{le="+Inf"} 1`,
		"govai_query_duration_ms_count 1",
		`govai_search_provider_failures_total{error_type="RATE_LIMITED",provider="serpapi"} 1`,
		`govai_search_provider_latency_ms_bucket{provider="serpapi",le="50"} 1`,
		"# TYPE govai_log_sink_failures_total counter",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestHandler(t *testing.T) {
	m := New()
	defer m.Close()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}

	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}

func TestStartSystemCollector(t *testing.T) {
	m := New()
	m.StartSystemCollector(time.Hour)
	defer m.Close()

	if m.GoroutineCount.Value() <= 0 {
		t.Errorf("goroutines = %f, want > 0", m.GoroutineCount.Value())
	}
	if m.MemoryUsage.Value() <= 0 {
		t.Errorf("memory = %f, want > 0", m.MemoryUsage.Value())
	}
}
