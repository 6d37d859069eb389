package security

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	apperrors "github.com/govai-bd/govai/internal/pkg/errors"
)

// Limits for request parameters.
const (
	DefaultMaxQueryChars = 1000

	MinTopK     = 1
	MaxTopK     = 100
	DefaultTopK = 10

	MinLogLimit     = 1
	MaxLogLimit     = 1000
	DefaultLogLimit = 50
)

// QueryTooLongMessage is shown to users whose query exceeds the limit.
const QueryTooLongMessage = "প্রশ্নটি অনেক বড়, সংক্ষেপে লিখুন"

// ValidateQuery checks a sanitized query against maxChars runes. It returns
// an INVALID_QUERY error that is safe to show to the user.
func ValidateQuery(query, emptyMessage string, maxChars int) error {
	if query == "" {
		return apperrors.InvalidQueryError(emptyMessage)
	}
	if !utf8.ValidString(query) {
		return apperrors.InvalidQueryError("query is not valid UTF-8")
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxQueryChars
	}
	if n := utf8.RuneCountInString(query); n > maxChars {
		return apperrors.InvalidQueryError(QueryTooLongMessage).
			WithDetail("max_chars", strconv.Itoa(maxChars)).
			WithDetail("chars", strconv.Itoa(n))
	}
	return nil
}

// ParseTopK parses the top query parameter. Empty selects DefaultTopK.
func ParseTopK(raw string) (int, error) {
	return parseBounded("top", raw, DefaultTopK, MinTopK, MaxTopK)
}

// ParseLogLimit parses the limit query parameter. Empty selects DefaultLogLimit.
func ParseLogLimit(raw string) (int, error) {
	return parseBounded("limit", raw, DefaultLogLimit, MinLogLimit, MaxLogLimit)
}

func parseBounded(field, raw string, def, lo, hi int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.ValidationError(fmt.Sprintf("%s must be an integer", field))
	}
	if v < lo || v > hi {
		return 0, apperrors.ValidationError(fmt.Sprintf("%s must be between %d and %d", field, lo, hi))
	}
	return v, nil
}
