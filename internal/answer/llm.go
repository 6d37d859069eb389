// Package answer turns a query and its search context into a Bangla answer.
// The Generator owns prompt construction, retries and the fallback reply;
// LLM implementations only move text over the wire.
package answer

import "context"

// Request is a single completion call.
type Request struct {
	// System is the instruction message sent ahead of the prompt.
	System string

	// Prompt is the user message.
	Prompt string

	// MaxTokens bounds the completion length.
	MaxTokens int

	// Temperature controls sampling randomness.
	Temperature float64
}

// LLM is a text generation backend. Implementations must honour ctx
// cancellation and return *errors.AppError values so failures can be
// classified as transient or permanent.
type LLM interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}
