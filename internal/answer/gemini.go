package answer

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/genai"

	apperrors "github.com/govai-bd/govai/internal/pkg/errors"
)

const (
	geminiName         = "gemini"
	geminiDefaultModel = "gemini-2.5-flash"
)

// GeminiConfig configures the Gemini client.
type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the Gemini API endpoint.
	BaseURL    string
	HTTPClient *http.Client
}

// Gemini generates answers through the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini LLM client. It fails when no API key is set.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "GEMINI_API_KEY not configured")
	}
	if cfg.Model == "" {
		cfg.Model = geminiDefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to create gemini client", err)
	}
	return &Gemini{client: client, model: cfg.Model}, nil
}

// Name implements LLM.
func (g *Gemini) Name() string { return geminiName + ":" + g.model }

// Generate implements LLM.
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)},
		config,
	)
	if err != nil {
		return "", classifyGemini(err)
	}
	return resp.Text(), nil
}

// classifyGemini maps SDK errors onto application error codes.
func classifyGemini(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return geminiStatusError(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return geminiStatusError(*apiErrPtr)
	}
	return apperrors.FromTransport(geminiName, err)
}

func geminiStatusError(apiErr genai.APIError) error {
	appErr := apperrors.FromStatus(geminiName, apiErr.Code, apiErr.Message)
	appErr.Err = apiErr
	return appErr
}
