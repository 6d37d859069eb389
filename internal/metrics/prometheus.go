package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PrometheusFormat exports all metrics in Prometheus text exposition format.
// See: https://prometheus.io/docs/instrumenting/exposition_formats/
func (m *Metrics) PrometheusFormat() string {
	var sb strings.Builder

	writeCounterVec(&sb, m.Queries)
	writeCounter(&sb, m.QueriesRejected)
	writeHistogram(&sb, m.QueryDuration)

	writeCounterVec(&sb, m.SearchProviderRequests)
	writeCounterVec(&sb, m.SearchProviderFailures)
	writeHistogramVec(&sb, m.SearchProviderLatency)
	writeCounter(&sb, m.SearchEmpty)

	writeCounter(&sb, m.GenerationAttempts)
	writeCounter(&sb, m.GenerationFallbacks)
	writeHistogram(&sb, m.GenerationLatency)

	writeCounter(&sb, m.LogSinkWrites)
	writeCounter(&sb, m.LogSinkFailures)

	writeCounterVec(&sb, m.BusEventsPublished)
	writeCounterVec(&sb, m.BusErrors)

	writeCounterVec(&sb, m.HTTPRequests)
	writeHistogramVec(&sb, m.HTTPDuration)
	writeGauge(&sb, m.HTTPRequestsInFlight)

	writeGauge(&sb, m.GoroutineCount)
	writeGauge(&sb, m.MemoryUsage)

	return sb.String()
}

func writeHeader(sb *strings.Builder, name, help, kind string) {
	fmt.Fprintf(sb, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}

func writeCounter(sb *strings.Builder, c *Counter) {
	writeHeader(sb, c.name, c.help, "counter")
	writeSample(sb, c)
}

func writeSample(sb *strings.Builder, c *Counter) {
	sb.WriteString(c.name)
	writeLabels(sb, c.labels, "", "")
	fmt.Fprintf(sb, " %d\n", c.Value())
}

func writeGauge(sb *strings.Builder, g *Gauge) {
	writeHeader(sb, g.name, g.help, "gauge")
	fmt.Fprintf(sb, "%s %s\n", g.name, formatFloat(g.Value()))
}

func writeHistogram(sb *strings.Builder, h *Histogram) {
	writeHeader(sb, h.name, h.help, "histogram")
	writeHistogramSamples(sb, h)
}

func writeHistogramSamples(sb *strings.Builder, h *Histogram) {
	counts := h.Cumulative()
	for i, bound := range h.buckets {
		sb.WriteString(h.name)
		sb.WriteString("_bucket")
		writeLabels(sb, h.labels, "le", formatFloat(bound))
		fmt.Fprintf(sb, " %d\n", counts[i])
	}
	sb.WriteString(h.name)
	sb.WriteString("_bucket")
	writeLabels(sb, h.labels, "le", "+Inf")
	fmt.Fprintf(sb, " %d\n", counts[len(counts)-1])

	sb.WriteString(h.name)
	sb.WriteString("_sum")
	writeLabels(sb, h.labels, "", "")
	fmt.Fprintf(sb, " %s\n", formatFloat(h.Sum()))

	sb.WriteString(h.name)
	sb.WriteString("_count")
	writeLabels(sb, h.labels, "", "")
	fmt.Fprintf(sb, " %d\n", h.Count())
}

// writeCounterVec skips vectors with no children yet.
func writeCounterVec(sb *strings.Builder, cv *CounterVec) {
	counters := cv.all()
	if len(counters) == 0 {
		return
	}
	writeHeader(sb, cv.name, cv.help, "counter")
	for _, c := range counters {
		writeSample(sb, c)
	}
}

func writeHistogramVec(sb *strings.Builder, hv *HistogramVec) {
	histograms := hv.all()
	if len(histograms) == 0 {
		return
	}
	writeHeader(sb, hv.name, hv.help, "histogram")
	for _, h := range histograms {
		writeHistogramSamples(sb, h)
	}
}

// writeLabels writes {key="value",...} in key order, with an optional
// extra label appended (used for histogram "le").
func writeLabels(sb *strings.Builder, labels map[string]string, extraKey, extraValue string) {
	if len(labels) == 0 && extraKey == "" {
		return
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sb.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(sb, "%s=\"%s\"", k, escapeString(labels[k]))
	}
	if extraKey != "" {
		if len(keys) > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(sb, "%s=\"%s\"", extraKey, extraValue)
	}
	sb.WriteString("}")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// escapeString escapes special characters in label values.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
