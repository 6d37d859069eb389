// Package security provides input validation, log sanitization and
// masking of sensitive request data.
package security

import (
	"net/http"
	"strings"
	"unicode"
)

// DefaultLogLength bounds user text written to diagnostic logs.
const DefaultLogLength = 200

// SanitizeForLog makes user-supplied text safe for a single log line.
// Line breaks are escaped, other control characters are removed and the
// result is truncated to DefaultLogLength runes.
func SanitizeForLog(s string) string {
	return SanitizeForLogWithLength(s, DefaultLogLength)
}

// SanitizeForLogWithLength sanitizes a string for logging with a custom max length.
func SanitizeForLogWithLength(s string, maxLen int) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(min(len(s), maxLen+10))

	count := 0
	for _, r := range s {
		if count >= maxLen {
			b.WriteString("...")
			break
		}

		switch r {
		case '\n':
			b.WriteString("\\n")
			count += 2
		case '\r':
			b.WriteString("\\r")
			count += 2
		case '\t':
			b.WriteString("\\t")
			count += 2
		default:
			if !unicode.IsControl(r) {
				b.WriteRune(r)
				count++
			}
		}
	}

	return b.String()
}

// StripControl removes control characters from a query. Newlines and tabs
// become spaces so that word boundaries survive.
func StripControl(query string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, query)
}

// sensitiveHeaders are header names masked in request logs.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"x-api-key":           true,
	"cookie":              true,
	"set-cookie":          true,
	"proxy-authorization": true,
}

var sensitivePatterns = []string{"secret", "token", "key", "auth", "password"}

// MaskSensitiveHeaders returns a copy of headers with credentials redacted.
func MaskSensitiveHeaders(headers http.Header) http.Header {
	if headers == nil {
		return nil
	}

	masked := make(http.Header, len(headers))
	for key, values := range headers {
		if isSensitive(key) {
			masked[key] = []string{"[REDACTED]"}
		} else {
			masked[key] = append([]string(nil), values...)
		}
	}
	return masked
}

func isSensitive(name string) bool {
	lower := strings.ToLower(name)
	if sensitiveHeaders[lower] {
		return true
	}
	for _, p := range sensitivePatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
