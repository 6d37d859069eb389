// Package metrics provides Prometheus-compatible metrics for the GovAI pipeline.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// Counter represents a monotonically increasing counter.
type Counter struct {
	name   string
	help   string
	value  atomic.Int64
	labels map[string]string
}

// NewCounter creates a new counter.
func NewCounter(name, help string, labels map[string]string) *Counter {
	return &Counter{name: name, help: help, labels: labels}
}

// Inc increments the counter by 1.
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Add adds the given value to the counter.
func (c *Counter) Add(delta int64) {
	if delta < 0 {
		return // Counters can't decrease
	}
	c.value.Add(delta)
}

// Value returns the current counter value.
func (c *Counter) Value() int64 {
	return c.value.Load()
}

// Reset resets the counter to 0.
func (c *Counter) Reset() {
	c.value.Store(0)
}

// Gauge represents a value that can go up and down.
type Gauge struct {
	name string
	help string
	bits atomic.Uint64
}

// NewGauge creates a new gauge.
func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help}
}

// Set sets the gauge to the given value.
func (g *Gauge) Set(value float64) {
	g.bits.Store(math.Float64bits(value))
}

// Add adds delta to the gauge.
func (g *Gauge) Add(delta float64) {
	for {
		old := g.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if g.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Inc increments the gauge by 1.
func (g *Gauge) Inc() { g.Add(1) }

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() { g.Add(-1) }

// Value returns the current gauge value.
func (g *Gauge) Value() float64 {
	return math.Float64frombits(g.bits.Load())
}

// Histogram counts observations into cumulative buckets.
type Histogram struct {
	name    string
	help    string
	buckets []float64
	labels  map[string]string

	mu     sync.Mutex
	counts []int64 // len(buckets)+1, last is +Inf
	sum    float64
	count  int64
}

// DefaultLatencyBuckets are millisecond buckets sized for external API calls.
var DefaultLatencyBuckets = []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000}

// NewHistogram creates a new histogram with the given buckets.
func NewHistogram(name, help string, buckets []float64) *Histogram {
	if len(buckets) == 0 {
		buckets = DefaultLatencyBuckets
	}
	b := append([]float64(nil), buckets...)
	sort.Float64s(b)

	return &Histogram{
		name:    name,
		help:    help,
		buckets: b,
		counts:  make([]int64, len(b)+1),
	}
}

// Observe adds a single observation.
func (h *Histogram) Observe(value float64) {
	idx := sort.SearchFloat64s(h.buckets, value)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.sum += value
	h.count++
	h.counts[idx]++
}

// Count returns the total count of observations.
func (h *Histogram) Count() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Sum returns the sum of all observed values.
func (h *Histogram) Sum() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sum
}

// Cumulative returns the cumulative count for each bucket, +Inf last.
func (h *Histogram) Cumulative() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int64, len(h.counts))
	var running int64
	for i, c := range h.counts {
		running += c
		out[i] = running
	}
	return out
}

// vec holds one child metric per distinct label set.
type vec[T any] struct {
	name       string
	help       string
	labelNames []string
	newChild   func(labels map[string]string) T

	mu       sync.RWMutex
	children map[string]T
}

func (v *vec[T]) with(labelValues ...string) T {
	if len(labelValues) != len(v.labelNames) {
		panic(fmt.Sprintf("%s: expected %d label values, got %d", v.name, len(v.labelNames), len(labelValues)))
	}
	key := strings.Join(labelValues, "\xff")

	v.mu.RLock()
	child, ok := v.children[key]
	v.mu.RUnlock()
	if ok {
		return child
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if child, ok := v.children[key]; ok {
		return child
	}
	labels := make(map[string]string, len(v.labelNames))
	for i, name := range v.labelNames {
		labels[name] = labelValues[i]
	}
	child = v.newChild(labels)
	v.children[key] = child
	return child
}

// all returns children ordered by label key for stable export.
func (v *vec[T]) all() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	keys := make([]string, 0, len(v.children))
	for k := range v.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, v.children[k])
	}
	return out
}

// CounterVec represents a counter with labels.
type CounterVec struct {
	vec[*Counter]
}

// NewCounterVec creates a new counter vector.
func NewCounterVec(name, help string, labelNames []string) *CounterVec {
	cv := &CounterVec{vec[*Counter]{
		name:       name,
		help:       help,
		labelNames: labelNames,
		children:   make(map[string]*Counter),
	}}
	cv.newChild = func(labels map[string]string) *Counter {
		return NewCounter(name, help, labels)
	}
	return cv
}

// WithLabels returns the counter for the given label values.
func (cv *CounterVec) WithLabels(labelValues ...string) *Counter {
	return cv.with(labelValues...)
}

// Total sums all children.
func (cv *CounterVec) Total() int64 {
	var n int64
	for _, c := range cv.all() {
		n += c.Value()
	}
	return n
}

// HistogramVec represents a histogram with labels.
type HistogramVec struct {
	vec[*Histogram]
}

// NewHistogramVec creates a new histogram vector.
func NewHistogramVec(name, help string, labelNames []string, buckets []float64) *HistogramVec {
	hv := &HistogramVec{vec[*Histogram]{
		name:       name,
		help:       help,
		labelNames: labelNames,
		children:   make(map[string]*Histogram),
	}}
	hv.newChild = func(labels map[string]string) *Histogram {
		h := NewHistogram(name, help, buckets)
		h.labels = labels
		return h
	}
	return hv
}

// WithLabels returns the histogram for the given label values.
func (hv *HistogramVec) WithLabels(labelValues ...string) *Histogram {
	return hv.with(labelValues...)
}
