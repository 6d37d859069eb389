package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/govai-bd/govai/internal/answer"
	"github.com/govai-bd/govai/internal/bus"
	"github.com/govai-bd/govai/internal/config"
	"github.com/govai-bd/govai/internal/language"
	"github.com/govai-bd/govai/internal/metrics"
	"github.com/govai-bd/govai/internal/pipeline"
	"github.com/govai-bd/govai/internal/pkg/httpjson"
	"github.com/govai-bd/govai/internal/pkg/logger"
	"github.com/govai-bd/govai/internal/querylog"
	"github.com/govai-bd/govai/internal/search"
)

// app holds the wired services and everything that must be closed.
type app struct {
	pipeline *pipeline.Pipeline
	metrics  *metrics.Metrics
	closers  []func() error
	log      *logger.Logger
}

// Close releases resources in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("Error during shutdown", "error", err)
		}
	}
}

func buildApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{metrics: metrics.New(), log: log}

	orch := search.NewOrchestrator(search.Config{
		MaxResults:   cfg.Search.MaxResults,
		Timeout:      cfg.Search.Timeout,
		Retries:      cfg.Search.Retries,
		RetryBackoff: cfg.Search.RetryBackoff,
		QuerySuffix:  cfg.Search.QuerySuffix,
	}, log, a.metrics, searchProviders(cfg, log)...)

	llm, err := newLLM(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	gen := answer.NewGenerator(llm, answer.Config{
		MaxTokens:    cfg.LLM.MaxTokens,
		Temperature:  cfg.LLM.Temperature,
		Timeout:      cfg.LLM.Timeout,
		MaxRetries:   cfg.LLM.MaxRetries,
		MinBackoff:   cfg.LLM.MinBackoff,
		MaxBackoff:   cfg.LLM.MaxBackoff,
		MaxSnippets:  cfg.LLM.MaxSnippets,
		SnippetChars: cfg.LLM.SnippetChars,
	}, log, a.metrics)

	store, err := querylog.NewStore(cfg.QueryLog)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open query log store: %w", err)
	}
	a.closers = append(a.closers, store.Close)

	sink := querylog.Store(store)
	if cfg.QueryLog.Ship {
		b, err := newBus(cfg, log, a.metrics)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, b.Close)

		// With an in-process bus nobody else can consume, so forward here.
		if strings.EqualFold(cfg.Bus.Type, "memory") {
			if err := querylog.NewForwarder(store, log).Start(ctx, b, cfg.Bus.Topic); err != nil {
				a.Close()
				return nil, fmt.Errorf("failed to start query log forwarder: %w", err)
			}
		}
		sink = querylog.NewShipper(b, cfg.Bus.Topic, "govai-server", store)
		log.Info("Shipping query records over the bus", "bus", cfg.Bus.Type, "topic", cfg.Bus.Topic)
	}

	ql := querylog.NewQueryLogger(sink, log, a.metrics, cfg.QueryLog.WriteTimeout)

	a.pipeline = pipeline.New(pipeline.Config{
		MaxQueryChars: cfg.Pipeline.MaxQueryChars,
	}, pipeline.Components{
		Detector:  language.NewDetector(),
		Search:    orch,
		Generator: gen,
		QueryLog:  ql,
	}, log, a.metrics)

	info := a.pipeline.Info()
	log.Info("Query pipeline ready",
		"search_providers", strings.Join(info.SearchProviders, ","),
		"llm", info.LLM,
	)
	return a, nil
}

// searchProviders returns the configured providers in priority order.
// Providers without credentials are skipped.
func searchProviders(cfg *config.Config, log *logger.Logger) []search.Provider {
	hc := httpjson.NewHTTPClient(cfg.Search.Timeout)

	var providers []search.Provider
	if cfg.Search.TavilyAPIKey != "" {
		providers = append(providers, search.NewTavily(search.TavilyConfig{
			APIKey:     cfg.Search.TavilyAPIKey,
			BaseURL:    cfg.Search.TavilyBaseURL,
			Depth:      cfg.Search.TavilyDepth,
			HTTPClient: hc,
		}))
	} else {
		log.Warn("TAVILY_API_KEY not set, Tavily search disabled")
	}
	if cfg.Search.SerpAPIKey != "" {
		providers = append(providers, search.NewSerpAPI(search.SerpAPIConfig{
			APIKey:     cfg.Search.SerpAPIKey,
			BaseURL:    cfg.Search.SerpAPIBaseURL,
			HTTPClient: hc,
		}))
	} else {
		log.Warn("SERPAPI_API_KEY not set, SerpAPI search disabled")
	}
	if cfg.Search.CatalogFallback {
		providers = append(providers, search.NewCatalog())
	}
	return providers
}

// newLLM builds the configured backend. Missing credentials leave the
// generator without a backend so every query gets the fallback reply.
func newLLM(ctx context.Context, cfg *config.Config, log *logger.Logger) (answer.LLM, error) {
	hc := httpjson.NewHTTPClient(cfg.LLM.Timeout)

	switch cfg.LLM.Provider {
	case "gemini":
		model := cfg.LLM.Model
		if !strings.HasPrefix(model, "gemini") {
			model = ""
		}
		g, err := answer.NewGemini(ctx, answer.GeminiConfig{
			APIKey:     cfg.LLM.GeminiAPIKey,
			Model:      model,
			HTTPClient: hc,
		})
		if err != nil {
			log.Warn("Gemini backend unavailable, answers will use the fallback reply", "error", err)
			return nil, nil
		}
		return g, nil

	case "huggingface":
		if cfg.LLM.HFToken == "" {
			log.Warn("HF_TOKEN not set, answers will use the fallback reply")
			return nil, nil
		}
		return answer.NewHuggingFace(answer.HFConfig{
			Token:      cfg.LLM.HFToken,
			BaseURL:    cfg.LLM.HFBaseURL,
			Model:      cfg.LLM.Model,
			HTTPClient: hc,
		}), nil
	}
	return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
}

// newBus creates the configured bus, instrumented when m is set.
func newBus(cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (bus.Bus, error) {
	b, err := bus.NewBus(cfg.Bus, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s bus: %w", cfg.Bus.Type, err)
	}
	if m == nil {
		return b, nil
	}
	return bus.NewInstrumentedBus(b, m), nil
}
