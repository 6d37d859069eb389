// Package search obtains web results for a query from an ordered chain of
// providers. The first provider that returns results wins; failures and empty
// answers fall through to the next provider, and a fully failed chain yields
// an empty Outcome instead of an error.
package search

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/govai-bd/govai/internal/pkg/errors"
)

// Result is a single search hit in provider-neutral form.
type Result struct {
	// Title is the page title.
	Title string `json:"title"`

	// URL is the absolute http(s) link.
	URL string `json:"url"`

	// Snippet is plain text describing the page.
	Snippet string `json:"snippet"`

	// Score is the relevance score, always within [0, 1].
	Score float64 `json:"score"`

	// Provider names the backend that produced the result.
	Provider string `json:"provider"`
}

// Provider queries one search backend.
type Provider interface {
	// Name identifies the provider in logs, metrics and results.
	Name() string

	// Search returns up to maxResults hits in the backend's ranking order.
	// It must honor ctx cancellation.
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Attempt records one provider call. Err is nil on success.
type Attempt struct {
	Provider string        `json:"provider"`
	Results  int           `json:"results"`
	Calls    int           `json:"calls"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// OK reports whether the provider answered without error.
func (a Attempt) OK() bool {
	return a.Err == nil
}

// ErrorCode returns the error classification, or "" on success.
func (a Attempt) ErrorCode() string {
	return errorCode(a.Err)
}

// Outcome is the result of running the provider chain.
type Outcome struct {
	// Results is never nil. It is empty only when every provider failed or
	// returned nothing.
	Results []Result `json:"results"`

	// Provider is the provider whose results were used, "" if none.
	Provider string `json:"provider,omitempty"`

	// Attempts lists every provider consulted, in order.
	Attempts []Attempt `json:"attempts,omitempty"`
}

// Empty reports whether no results were found.
func (o Outcome) Empty() bool {
	return len(o.Results) == 0
}

// Failures counts providers that returned an error.
func (o Outcome) Failures() int {
	n := 0
	for _, a := range o.Attempts {
		if !a.OK() {
			n++
		}
	}
	return n
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if code := apperrors.Code(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.CodeTimeout
	case errors.Is(err, context.Canceled):
		return "CANCELED"
	}
	return apperrors.CodeSearchProvider
}
