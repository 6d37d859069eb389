package search

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/govai-bd/govai/internal/pkg/errors"
	"github.com/govai-bd/govai/internal/pkg/httpjson"
)

const (
	serpAPIName         = "serpapi"
	serpAPIDefaultURL   = "https://serpapi.com"
	serpAPIDefaultScore = 1.0
)

// SerpAPI queries Google results through SerpAPI, localized to Bangladesh.
type SerpAPI struct {
	apiKey  string
	baseURL string
	client  *httpjson.Client
}

// SerpAPIConfig configures the SerpAPI provider.
type SerpAPIConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewSerpAPI creates a SerpAPI provider.
func NewSerpAPI(cfg SerpAPIConfig) *SerpAPI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = serpAPIDefaultURL
	}
	return &SerpAPI{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpjson.New(serpAPIName, cfg.HTTPClient),
	}
}

// Name implements Provider.
func (s *SerpAPI) Name() string { return serpAPIName }

type serpAPIResponse struct {
	Error          string          `json:"error"`
	OrganicResults []serpAPIResult `json:"organic_results"`
}

type serpAPIResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
}

// Search implements Provider.
func (s *SerpAPI) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if s.apiKey == "" {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "serpapi API key not configured")
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", strconv.Itoa(maxResults))
	params.Set("hl", "bn")
	params.Set("gl", "bd")
	params.Set("api_key", s.apiKey)

	var resp serpAPIResponse
	if err := s.client.Get(ctx, s.baseURL+"/search.json?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	if resp.Error != "" && len(resp.OrganicResults) == 0 {
		// SerpAPI reports an empty result page as an error string with 200.
		if strings.Contains(resp.Error, "hasn't returned any results") {
			return []Result{}, nil
		}
		return nil, apperrors.New(apperrors.CodeBadResponse, "serpapi: "+resp.Error)
	}

	results := make([]Result, 0, len(resp.OrganicResults))
	for _, r := range resp.OrganicResults {
		results = append(results, Result{
			Title:   r.Title,
			URL:     r.Link,
			Snippet: r.Snippet,
			Score:   serpAPIDefaultScore,
		})
	}
	return results, nil
}
