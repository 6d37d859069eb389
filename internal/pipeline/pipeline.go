// Package pipeline is the query entry point. A query is sanitized, its
// language detected, web results fetched, an answer generated and exactly
// one query log record written. Only invalid queries are rejected; every
// downstream failure degrades into a well-formed response.
package pipeline

import (
	"context"
	"math"
	"time"

	"github.com/govai-bd/govai/internal/answer"
	"github.com/govai-bd/govai/internal/language"
	"github.com/govai-bd/govai/internal/metrics"
	appctx "github.com/govai-bd/govai/internal/pkg/context"
	apperrors "github.com/govai-bd/govai/internal/pkg/errors"
	"github.com/govai-bd/govai/internal/pkg/logger"
	"github.com/govai-bd/govai/internal/pkg/security"
	"github.com/govai-bd/govai/internal/querylog"
	"github.com/govai-bd/govai/internal/search"
)

// Config holds request limits.
type Config struct {
	// MaxQueryChars rejects longer sanitized queries.
	MaxQueryChars int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{MaxQueryChars: security.DefaultMaxQueryChars}
}

// Components are the stages a Pipeline runs. Detector, Search, Generator
// and QueryLog are required.
type Components struct {
	Detector  *language.Detector
	Search    *search.Orchestrator
	Generator *answer.Generator
	QueryLog  *querylog.QueryLogger

	// Stats is optional; it defaults to an aggregator over the query log store.
	Stats *querylog.Aggregator
}

// Request is one user query.
type Request struct {
	Query          string
	UserID         string
	ClientAddr     string
	IncludeSources bool
}

// Response is the answer returned to the user.
type Response struct {
	Query    string `json:"query"`
	Language string `json:"language"`
	Answer   string `json:"answer"`

	// Sources is nil unless requested, and encodes as [] when requested
	// but nothing was found.
	Sources []search.Result `json:"sources,omitzero"`

	// ProcessingTime is in seconds, rounded to two decimals.
	ProcessingTime float64   `json:"processing_time"`
	Timestamp      time.Time `json:"timestamp"`

	// Degraded is set when the answer is the fallback reply.
	Degraded bool `json:"degraded,omitempty"`
}

// Pipeline processes queries and serves statistics over the query log.
type Pipeline struct {
	cfg       Config
	detector  *language.Detector
	search    *search.Orchestrator
	generator *answer.Generator
	querylog  *querylog.QueryLogger
	stats     *querylog.Aggregator
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// New creates a pipeline. m may be nil.
func New(cfg Config, c Components, log *logger.Logger, m *metrics.Metrics) *Pipeline {
	if cfg.MaxQueryChars <= 0 {
		cfg.MaxQueryChars = DefaultConfig().MaxQueryChars
	}
	if log == nil {
		log = logger.Default()
	}
	if c.Detector == nil {
		c.Detector = language.NewDetector()
	}
	if c.Stats == nil {
		c.Stats = querylog.NewAggregator(c.QueryLog.Store(), log)
	}

	return &Pipeline{
		cfg:       cfg,
		detector:  c.Detector,
		search:    c.Search,
		generator: c.Generator,
		querylog:  c.QueryLog,
		stats:     c.Stats,
		log:       log.WithComponent("pipeline"),
		metrics:   m,
	}
}

// Process answers one query. The only error it returns is INVALID_QUERY,
// raised before any stage runs and without writing a log record. Search
// and generation failures produce a degraded response instead.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	log := p.log.WithContext(ctx)

	query := language.Sanitize(security.StripControl(req.Query))
	if err := security.ValidateQuery(query, language.EmptyQueryMessage, p.cfg.MaxQueryChars); err != nil {
		p.metrics.RecordRejected()
		log.Info("Query rejected", "reason", apperrors.Code(err), "query", security.SanitizeForLog(req.Query))
		return nil, err
	}

	lang, err := p.detector.Detect(query)
	if err != nil {
		p.metrics.RecordRejected()
		return nil, err
	}

	rec := querylog.Record{
		Query:      query,
		Language:   string(lang),
		UserID:     req.UserID,
		ClientAddr: req.ClientAddr,
		RequestID:  appctx.RequestID(ctx),
		GovRelated: language.IsGovernmentRelated(query),
		Error:      "processing interrupted",
	}

	// The record is written even if a stage panics.
	defer func() {
		elapsed := time.Since(start)
		rec.DurationMs = float64(elapsed.Microseconds()) / 1000
		p.querylog.Log(ctx, rec)
		p.metrics.RecordQuery(rec.Language, rec.Success, elapsed)
	}()

	log.Info("Processing query",
		"query", security.SanitizeForLog(query),
		"language", lang,
	)
	log.Debug("Government context check", "gov_related", rec.GovRelated)

	outcome := p.search.Search(ctx, query)
	rec.Provider = outcome.Provider
	rec.SourceCount = len(outcome.Results)

	ans := p.generator.Generate(ctx, query, outcome)
	rec.Attempts = ans.Attempts
	rec.Success = ans.Success
	rec.Error = ""
	if ans.Err != nil {
		rec.Error = apperrors.Code(ans.Err)
		if ctx.Err() != nil {
			rec.Error = "request cancelled"
		}
	}

	resp := &Response{
		Query:          query,
		Language:       string(lang),
		Answer:         ans.Text,
		ProcessingTime: seconds(time.Since(start)),
		Timestamp:      time.Now().UTC(),
		Degraded:       !ans.Success,
	}
	if req.IncludeSources {
		resp.Sources = outcome.Results
	}

	log.Info("Query processed",
		"language", lang,
		"provider", outcome.Provider,
		"sources", len(outcome.Results),
		"success", ans.Success,
		"attempts", ans.Attempts,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

// Stats summarizes the query log over w.
func (p *Pipeline) Stats(ctx context.Context, w querylog.Window, topK int) (*querylog.Stats, error) {
	return p.stats.Stats(ctx, w, topK)
}

// RecentLogs returns up to limit records, newest first.
func (p *Pipeline) RecentLogs(ctx context.Context, limit int) ([]querylog.Record, error) {
	return p.stats.RecentLogs(ctx, limit)
}

// Info describes the configured backends.
type Info struct {
	SearchProviders []string `json:"search_providers"`
	LLM             string   `json:"llm"`
	MaxResults      int      `json:"max_results"`
}

// Info reports which providers and LLM backend are wired in.
func (p *Pipeline) Info() Info {
	return Info{
		SearchProviders: p.search.Providers(),
		LLM:             p.generator.Backend(),
		MaxResults:      p.search.MaxResults(),
	}
}

func seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
