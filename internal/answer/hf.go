package answer

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/govai-bd/govai/internal/pkg/errors"
	"github.com/govai-bd/govai/internal/pkg/httpjson"
)

const (
	hfName           = "huggingface"
	hfDefaultBaseURL = "https://router.huggingface.co/v1"
	hfDefaultModel   = "openai/gpt-oss-120b"
)

// HFConfig configures the Hugging Face router client.
type HFConfig struct {
	Token   string
	BaseURL string
	Model   string
	// HTTPClient overrides the pooled default.
	HTTPClient *http.Client
}

// HuggingFace calls the OpenAI-compatible chat completions endpoint of the
// Hugging Face inference router.
type HuggingFace struct {
	token   string
	baseURL string
	model   string
	client  *httpjson.Client
}

// NewHuggingFace creates a Hugging Face LLM client.
func NewHuggingFace(cfg HFConfig) *HuggingFace {
	if cfg.BaseURL == "" {
		cfg.BaseURL = hfDefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = hfDefaultModel
	}
	return &HuggingFace{
		token:   cfg.Token,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  httpjson.New(hfName, cfg.HTTPClient),
	}
}

// Name implements LLM.
func (h *HuggingFace) Name() string { return hfName + ":" + h.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate implements LLM.
func (h *HuggingFace) Generate(ctx context.Context, req Request) (string, error) {
	if h.token == "" {
		return "", apperrors.New(apperrors.CodeUnauthorized, "HF_TOKEN not configured")
	}

	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	header := http.Header{}
	header.Set("Authorization", "Bearer "+h.token)

	var resp chatResponse
	err := h.client.Post(ctx, h.baseURL+"/chat/completions", header, chatRequest{
		Model:       h.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}, &resp)
	if err != nil {
		return "", err
	}

	if resp.Error != nil {
		return "", apperrors.New(apperrors.CodeBadResponse, "huggingface error").
			WithDetail("message", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.New(apperrors.CodeBadResponse, "huggingface returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
