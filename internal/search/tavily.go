package search

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/govai-bd/govai/internal/pkg/errors"
	"github.com/govai-bd/govai/internal/pkg/httpjson"
)

const (
	tavilyName         = "tavily"
	tavilyDefaultURL   = "https://api.tavily.com"
	tavilyDefaultScore = 0.5
)

// Tavily queries the Tavily search API.
type Tavily struct {
	apiKey  string
	baseURL string
	depth   string
	client  *httpjson.Client
}

// TavilyConfig configures the Tavily provider.
type TavilyConfig struct {
	APIKey  string
	BaseURL string
	// Depth is "basic" or "advanced".
	Depth string
	// HTTPClient overrides the pooled default.
	HTTPClient *http.Client
}

// NewTavily creates a Tavily provider.
func NewTavily(cfg TavilyConfig) *Tavily {
	if cfg.BaseURL == "" {
		cfg.BaseURL = tavilyDefaultURL
	}
	if cfg.Depth == "" {
		cfg.Depth = "advanced"
	}
	return &Tavily{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		depth:   cfg.Depth,
		client:  httpjson.New(tavilyName, cfg.HTTPClient),
	}
}

// Name implements Provider.
func (t *Tavily) Name() string { return tavilyName }

type tavilyRequest struct {
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth"`
	MaxResults        int    `json:"max_results"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type tavilyResponse struct {
	Query   string         `json:"query"`
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Content string   `json:"content"`
	Score   *float64 `json:"score"`
}

// Search implements Provider.
func (t *Tavily) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if t.apiKey == "" {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "tavily API key not configured")
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+t.apiKey)

	var resp tavilyResponse
	err := t.client.Post(ctx, t.baseURL+"/search", header, tavilyRequest{
		Query:       query,
		SearchDepth: t.depth,
		MaxResults:  maxResults,
	}, &resp)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(resp.Results))
	for _, r := range resp.Results {
		score := tavilyDefaultScore
		if r.Score != nil {
			score = *r.Score
		}
		results = append(results, Result{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
			Score:   score,
		})
	}
	return results, nil
}
