package search

import (
	"context"
	"strings"
	"time"

	"github.com/govai-bd/govai/internal/metrics"
	apperrors "github.com/govai-bd/govai/internal/pkg/errors"
	"github.com/govai-bd/govai/internal/pkg/logger"
	"github.com/govai-bd/govai/internal/pkg/retry"
)

// Config configures the orchestrator.
type Config struct {
	// MaxResults caps the number of results returned.
	MaxResults int

	// Timeout bounds each individual provider call.
	Timeout time.Duration

	// Retries is the number of extra calls made to a provider after a
	// transient failure before moving on to the next one.
	Retries int

	// RetryBackoff is the delay before the first retry.
	RetryBackoff time.Duration

	// QuerySuffix is appended to every provider query.
	QuerySuffix string
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxResults:   5,
		Timeout:      10 * time.Second,
		RetryBackoff: 250 * time.Millisecond,
	}
}

// Orchestrator runs providers in priority order.
type Orchestrator struct {
	providers []Provider
	cfg       Config
	policy    retry.Policy
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// NewOrchestrator creates an orchestrator over providers, highest priority first.
func NewOrchestrator(cfg Config, log *logger.Logger, m *metrics.Metrics, providers ...Provider) *Orchestrator {
	def := DefaultConfig()
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}
	if log == nil {
		log = logger.Default()
	}

	return &Orchestrator{
		providers: providers,
		cfg:       cfg,
		policy: retry.Policy{
			MaxRetries: cfg.Retries,
			MinBackoff: cfg.RetryBackoff,
			MaxBackoff: 4 * cfg.RetryBackoff,
			Jitter:     0.2,
			Retryable:  apperrors.IsTransient,
		},
		log:     log.WithComponent("search"),
		metrics: m,
	}
}

// Providers returns the provider names in priority order.
func (o *Orchestrator) Providers() []string {
	names := make([]string, len(o.providers))
	for i, p := range o.providers {
		names[i] = p.Name()
	}
	return names
}

// MaxResults returns the configured result cap.
func (o *Orchestrator) MaxResults() int {
	return o.cfg.MaxResults
}

// Search runs the chain with the configured result cap.
func (o *Orchestrator) Search(ctx context.Context, query string) Outcome {
	return o.SearchN(ctx, query, o.cfg.MaxResults)
}

// SearchN runs the chain for up to maxResults hits. It never returns an
// error: provider failures are recorded in Outcome.Attempts.
func (o *Orchestrator) SearchN(ctx context.Context, query string, maxResults int) Outcome {
	if maxResults <= 0 || maxResults > o.cfg.MaxResults {
		maxResults = o.cfg.MaxResults
	}
	log := o.log.WithContext(ctx)
	q := o.enhance(query)

	outcome := Outcome{Results: []Result{}}
	for _, p := range o.providers {
		if ctx.Err() != nil {
			log.Warn("Search abandoned", "error", ctx.Err())
			break
		}

		attempt, results := o.try(ctx, p, q, maxResults)
		outcome.Attempts = append(outcome.Attempts, attempt)

		if !attempt.OK() {
			log.Warn("Search provider failed",
				"provider", attempt.Provider,
				"calls", attempt.Calls,
				"error_code", attempt.ErrorCode(),
				"error", attempt.Err,
				"duration_ms", attempt.Duration.Milliseconds(),
			)
			continue
		}
		if len(results) == 0 {
			log.Info("Search provider returned no results", "provider", attempt.Provider)
			continue
		}

		outcome.Results = results
		outcome.Provider = attempt.Provider
		log.Debug("Search completed",
			"provider", attempt.Provider,
			"results", len(results),
			"duration_ms", attempt.Duration.Milliseconds(),
		)
		return outcome
	}

	o.metrics.RecordSearchEmpty()
	log.Warn("All search providers failed or returned nothing",
		"providers", len(o.providers),
		"failures", outcome.Failures(),
	)
	return outcome
}

// try calls one provider, retrying transient failures, each call bounded
// by the per-provider timeout.
func (o *Orchestrator) try(ctx context.Context, p Provider, query string, maxResults int) (Attempt, []Result) {
	start := time.Now()
	raw, res := retry.Do(ctx, o.policy, func(ctx context.Context, _ int) ([]Result, error) {
		callCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()

		results, err := p.Search(callCtx, query, maxResults)
		if err != nil && ctx.Err() == nil && callCtx.Err() != nil {
			err = apperrors.TimeoutError(p.Name(), err)
		}
		return results, err
	})

	attempt := Attempt{
		Provider: p.Name(),
		Calls:    res.Attempts,
		Duration: time.Since(start),
		Err:      res.Err,
	}
	o.metrics.RecordProviderCall(attempt.Provider, attempt.Duration, attempt.ErrorCode())
	if res.Err != nil {
		return attempt, nil
	}

	results, dropped := normalize(raw, p.Name(), maxResults)
	if dropped > 0 {
		o.log.WithContext(ctx).Debug("Dropped malformed search results",
			"provider", attempt.Provider, "dropped", dropped)
	}
	attempt.Results = len(results)
	return attempt, results
}

func (o *Orchestrator) enhance(query string) string {
	if o.cfg.QuerySuffix == "" {
		return query
	}
	return strings.TrimSpace(query + " " + o.cfg.QuerySuffix)
}
