package querylog

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/govai-bd/govai/internal/language"
	"github.com/govai-bd/govai/internal/pkg/logger"
)

// DefaultTopK is the number of top queries reported when none is requested.
const DefaultTopK = 10

// Stats is a point-in-time summary of the query log.
type Stats struct {
	Window      string    `json:"window"`
	GeneratedAt time.Time `json:"generated_at"`

	TotalQueries int `json:"total_queries"`

	// Languages counts records per language tag. The three known tags are
	// always present.
	Languages map[string]int `json:"queries_by_language"`

	TopQueries []QueryCount `json:"top_queries"`

	Duration DurationStats `json:"duration_ms"`

	SuccessCount int     `json:"success_count"`
	FailureCount int     `json:"failure_count"`
	SuccessRate  float64 `json:"success_rate"`

	// QueriesToday counts records dated today (UTC) inside the window.
	QueriesToday int `json:"queries_today"`

	// QueriesByHour holds 24 hourly buckets ending now, oldest first.
	QueriesByHour []HourCount `json:"queries_by_hour"`

	// Skipped counts log entries that could not be parsed.
	Skipped int `json:"skipped_records"`
}

// QueryCount is a normalized query and how often it was asked.
type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// HourCount is the number of queries in a one-hour bucket.
type HourCount struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

// DurationStats summarizes processing time in milliseconds. Percentiles use
// the nearest-rank method.
type DurationStats struct {
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

// DefaultReadTimeout bounds a shared stats read.
const DefaultReadTimeout = 30 * time.Second

// Aggregator computes Stats from a Store.
type Aggregator struct {
	store       Store
	log         *logger.Logger
	group       singleflight.Group
	now         func() time.Time
	readTimeout time.Duration
}

// NewAggregator creates an aggregator reading from store.
func NewAggregator(store Store, log *logger.Logger) *Aggregator {
	if log == nil {
		log = logger.Default()
	}
	return &Aggregator{
		store:       store,
		log:         log.WithComponent("stats"),
		now:         time.Now,
		readTimeout: DefaultReadTimeout,
	}
}

// Stats summarizes the records inside w. Concurrent calls for the same
// window and topK share one read; the result must be treated as read-only.
// The shared read is detached from any single caller, so a caller that goes
// away only stops waiting for it.
func (a *Aggregator) Stats(ctx context.Context, w Window, topK int) (*Stats, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	key := fmt.Sprintf("%s/%d", w, topK)

	ch := a.group.DoChan(key, func() (any, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.readTimeout)
		defer cancel()

		res, err := a.store.ReadAll(readCtx, w)
		if err != nil {
			return nil, err
		}
		if res.Skipped > 0 {
			a.log.Warn("Skipped malformed query log entries", "skipped", res.Skipped)
		}
		return Summarize(res, w, topK, a.now()), nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			a.log.Debug("Stats request coalesced", "window", w.String())
		}
		return r.Val.(*Stats), nil
	}
}

// RecentLogs returns up to limit records, newest first.
func (a *Aggregator) RecentLogs(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	res, err := a.store.ReadAll(ctx, All())
	if err != nil {
		return nil, err
	}

	records := res.Records
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Summarize computes Stats over an already read result.
func Summarize(res ReadResult, w Window, topK int, now time.Time) *Stats {
	now = now.UTC()
	s := &Stats{
		Window:        w.String(),
		GeneratedAt:   now,
		TotalQueries:  len(res.Records),
		Languages:     make(map[string]int),
		TopQueries:    []QueryCount{},
		QueriesByHour: make([]HourCount, 24),
		Skipped:       res.Skipped,
	}
	for _, lang := range language.All() {
		s.Languages[string(lang)] = 0
	}

	hourEnd := now
	for i := 23; i >= 0; i-- {
		s.QueriesByHour[i].Hour = hourEnd.Add(-time.Hour).Format("15:00")
		hourEnd = hourEnd.Add(-time.Hour)
	}

	if len(res.Records) == 0 {
		return s
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	durations := make([]float64, 0, len(res.Records))
	var total float64
	today := now.Format(time.DateOnly)

	for i, r := range res.Records {
		s.Languages[r.Language]++

		q := NormalizeQuery(r.Query)
		if _, ok := counts[q]; !ok {
			firstSeen[q] = i
		}
		counts[q]++

		durations = append(durations, r.DurationMs)
		total += r.DurationMs

		if r.Success {
			s.SuccessCount++
		} else {
			s.FailureCount++
		}

		ts := r.Timestamp.UTC()
		if ts.Format(time.DateOnly) == today {
			s.QueriesToday++
		}
		if age := now.Sub(ts); age >= 0 && age < 24*time.Hour {
			s.QueriesByHour[23-int(age/time.Hour)].Count++
		}
	}

	s.SuccessRate = round2(float64(s.SuccessCount) / float64(s.TotalQueries) * 100)

	sort.Float64s(durations)
	s.Duration = DurationStats{
		Avg: round2(total / float64(len(durations))),
		P50: percentile(durations, 50),
		P90: percentile(durations, 90),
		P95: percentile(durations, 95),
		P99: percentile(durations, 99),
		Max: durations[len(durations)-1],
	}

	for q, c := range counts {
		s.TopQueries = append(s.TopQueries, QueryCount{Query: q, Count: c})
	}
	sort.Slice(s.TopQueries, func(i, j int) bool {
		a, b := s.TopQueries[i], s.TopQueries[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return firstSeen[a.Query] < firstSeen[b.Query]
	})
	if len(s.TopQueries) > topK {
		s.TopQueries = s.TopQueries[:topK]
	}

	return s
}

// NormalizeQuery folds case and whitespace so equivalent queries group.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// percentile returns the nearest-rank percentile of sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
