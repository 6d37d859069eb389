package answer

import (
	"context"
	"strings"
	"time"

	"github.com/govai-bd/govai/internal/metrics"
	apperrors "github.com/govai-bd/govai/internal/pkg/errors"
	"github.com/govai-bd/govai/internal/pkg/logger"
	"github.com/govai-bd/govai/internal/pkg/retry"
	"github.com/govai-bd/govai/internal/search"
)

// Config holds the fixed generation parameters.
type Config struct {
	MaxTokens   int
	Temperature float64

	// Timeout bounds every individual LLM call.
	Timeout time.Duration

	// MaxRetries is the number of extra calls after a transient failure.
	MaxRetries int
	MinBackoff time.Duration
	MaxBackoff time.Duration

	// MaxSnippets caps the search results embedded in the prompt.
	MaxSnippets int
	// SnippetChars is the per-snippet rune budget.
	SnippetChars int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:    3000,
		Temperature:  0.2,
		Timeout:      60 * time.Second,
		MaxRetries:   2,
		MinBackoff:   500 * time.Millisecond,
		MaxBackoff:   4 * time.Second,
		MaxSnippets:  5,
		SnippetChars: 300,
	}
}

// Result is the outcome of one generation. It is always well formed: on
// failure Text holds the fallback reply and Citations is empty.
type Result struct {
	Text string

	// Citations are the search results embedded in the prompt.
	Citations []search.Result

	Latency time.Duration

	// Success is false when Text is the fallback reply.
	Success bool

	// Attempts is the number of LLM calls made.
	Attempts int

	// Backend names the LLM that was called.
	Backend string

	// Err is the last generation error. It is kept for logging and is never
	// shown to the user.
	Err error
}

// Generator produces grounded answers with retry and fallback.
type Generator struct {
	llm     LLM
	cfg     Config
	policy  retry.Policy
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewGenerator creates a generator over llm. A nil llm makes every call
// return the fallback reply.
func NewGenerator(llm LLM, cfg Config, log *logger.Logger, m *metrics.Metrics) *Generator {
	def := DefaultConfig()
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Temperature < 0 {
		cfg.Temperature = def.Temperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MaxSnippets <= 0 {
		cfg.MaxSnippets = def.MaxSnippets
	}
	if cfg.SnippetChars <= 0 {
		cfg.SnippetChars = def.SnippetChars
	}
	if log == nil {
		log = logger.Default()
	}

	return &Generator{
		llm: llm,
		cfg: cfg,
		policy: retry.Policy{
			MaxRetries: cfg.MaxRetries,
			MinBackoff: cfg.MinBackoff,
			MaxBackoff: cfg.MaxBackoff,
			Jitter:     0.1,
			Retryable:  apperrors.IsTransient,
		},
		log:     log.WithComponent("answer"),
		metrics: m,
	}
}

// Backend returns the configured LLM name, or "" when none is set.
func (g *Generator) Backend() string {
	if g.llm == nil {
		return ""
	}
	return g.llm.Name()
}

// Generate answers query using the results of outcome as context. It never
// returns an error; failures yield the fallback reply with Success false.
func (g *Generator) Generate(ctx context.Context, query string, outcome search.Outcome) Result {
	start := time.Now()
	log := g.log.WithContext(ctx)

	grounding, cited := FormatContext(outcome.Results, g.cfg.MaxSnippets, g.cfg.SnippetChars)
	if cited == nil {
		cited = []search.Result{}
	}
	req := Request{
		System:      systemPrompt,
		Prompt:      UserPrompt(query, grounding),
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	}

	if g.llm == nil {
		res := g.fallback(query, start, 0, apperrors.New(apperrors.CodeGeneration, "no LLM backend configured"))
		log.Warn("Answer generation skipped", "error", res.Err)
		return res
	}

	text, rr := retry.Do(ctx, g.policy, func(ctx context.Context, attempt int) (string, error) {
		if attempt > 0 {
			log.Info("Retrying answer generation", "attempt", attempt+1, "backend", g.llm.Name())
		}
		return g.call(ctx, req)
	})

	if rr.Err != nil {
		res := g.fallback(query, start, rr.Attempts, rr.Err)
		log.Warn("Answer generation failed, using fallback",
			"backend", g.llm.Name(),
			"attempts", rr.Attempts,
			"error_code", apperrors.Code(rr.Err),
			"error", rr.Err,
		)
		return res
	}

	res := Result{
		Text:      Humanize(text),
		Citations: cited,
		Latency:   time.Since(start),
		Success:   true,
		Attempts:  rr.Attempts,
		Backend:   g.llm.Name(),
	}
	g.metrics.RecordGeneration(res.Attempts, false, res.Latency)
	log.Debug("Answer generated",
		"backend", res.Backend,
		"attempts", res.Attempts,
		"citations", len(res.Citations),
		"duration_ms", res.Latency.Milliseconds(),
	)
	return res
}

// call makes one LLM request under its own deadline.
func (g *Generator) call(ctx context.Context, req Request) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	text, err := g.llm.Generate(callCtx, req)
	if err != nil {
		if ctx.Err() == nil && callCtx.Err() != nil {
			return "", apperrors.TimeoutError(g.llm.Name(), err)
		}
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", apperrors.New(apperrors.CodeBadResponse, "LLM returned empty text")
	}
	return text, nil
}

func (g *Generator) fallback(query string, start time.Time, attempts int, err error) Result {
	res := Result{
		Text:      FallbackText(query),
		Citations: []search.Result{},
		Latency:   time.Since(start),
		Attempts:  attempts,
		Backend:   g.Backend(),
		Err:       apperrors.Wrap(apperrors.CodeGeneration, "answer generation failed", err),
	}
	g.metrics.RecordGeneration(attempts, true, res.Latency)
	return res
}
