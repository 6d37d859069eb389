// Package errors provides the application error type, its HTTP mapping, and
// the transient/permanent classification used by the retry policy.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Error codes.
const (
	// Client errors (4xx).
	CodeInvalidQuery = "INVALID_QUERY"
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeRateLimited  = "RATE_LIMITED"

	// Server and downstream errors (5xx).
	CodeInternal       = "INTERNAL_ERROR"
	CodeUnavailable    = "SERVICE_UNAVAILABLE"
	CodeTimeout        = "TIMEOUT"
	CodeBadResponse    = "BAD_RESPONSE"
	CodeSearchProvider = "SEARCH_PROVIDER_ERROR"
	CodeGeneration     = "GENERATION_ERROR"
	CodeLogSink        = "LOG_SINK_ERROR"
)

// AppError represents an application error with code and details.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for this error.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeInvalidQuery, CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeBadResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with an AppError.
func Wrap(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetail adds a single detail to the error.
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// InvalidQueryError rejects a query before any pipeline stage runs.
func InvalidQueryError(message string) *AppError {
	return New(CodeInvalidQuery, message)
}

// ValidationError creates a validation error.
func ValidationError(message string) *AppError {
	return New(CodeValidation, message)
}

// UnauthorizedError creates an unauthorized error.
func UnauthorizedError() *AppError {
	return New(CodeUnauthorized, "unauthorized")
}

// RateLimitedError creates a rate limited error with retry information.
func RateLimitedError(retryAfterSeconds int) *AppError {
	err := New(CodeRateLimited, "rate limit exceeded")
	if retryAfterSeconds > 0 {
		err = err.WithDetail("retry_after", fmt.Sprintf("%d", retryAfterSeconds))
	}
	return err
}

// TimeoutError creates a timeout error for a specific operation.
func TimeoutError(operation string, err error) *AppError {
	message := "operation timed out"
	if operation != "" {
		message = fmt.Sprintf("%s timed out", operation)
	}
	return Wrap(CodeTimeout, message, err)
}

// FromStatus maps a non-2xx status returned by an external API to an AppError.
// The body excerpt is kept on the error for diagnostics only.
func FromStatus(service string, status int, body string) *AppError {
	var code string
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		code = CodeUnauthorized
	case status == http.StatusTooManyRequests:
		code = CodeRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		code = CodeTimeout
	case status >= 500:
		code = CodeUnavailable
	default:
		code = CodeValidation
	}
	err := New(code, fmt.Sprintf("%s returned status %d", service, status)).
		WithDetail("status", fmt.Sprintf("%d", status))
	if body = strings.TrimSpace(body); body != "" {
		if len(body) > 256 {
			body = body[:256]
		}
		err = err.WithDetail("body", body)
	}
	return err
}

// FromTransport classifies an error returned by http.Client.Do.
func FromTransport(service string, err error) *AppError {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return TimeoutError(service, err)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return TimeoutError(service, err)
	}
	if stderrors.Is(err, context.Canceled) {
		return Wrap(CodeInternal, service+" request cancelled", err)
	}
	return Wrap(CodeUnavailable, service+" request failed", err)
}

// Code extracts the AppError code from err, or "" when err carries none.
func Code(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsInvalidQuery checks if error is an invalid query rejection.
func IsInvalidQuery(err error) bool {
	return Code(err) == CodeInvalidQuery
}

// IsTransient reports whether a failed external call may succeed on retry:
// timeouts, 5xx-class unavailability and rate limiting. Authentication and
// malformed-request failures are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	switch Code(err) {
	case CodeTimeout, CodeUnavailable, CodeRateLimited:
		return true
	case "":
	default:
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// ErrorResponse is the standard JSON error response structure.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON error response to the ResponseWriter.
func WriteJSON(w http.ResponseWriter, status int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// headers already sent
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteError writes an error response. Client errors keep their message;
// anything else is reported as a generic internal error.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.HTTPStatus() < 500 {
		WriteJSON(w, appErr.HTTPStatus(), ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}

	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal server error",
		Code:    CodeInternal,
		Message: "An unexpected error occurred",
	})
}

// WriteErrorWithStatus writes an error with a specific HTTP status code.
// 4xx messages are shown to the client, 5xx messages are sanitized.
func WriteErrorWithStatus(w http.ResponseWriter, status int, err error) {
	var appErr *AppError
	if stderrors.As(err, &appErr) && status < 500 {
		WriteJSON(w, status, ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}

	if status >= 400 && status < 500 {
		WriteJSON(w, status, ErrorResponse{
			Error:   err.Error(),
			Code:    codeForStatus(status),
			Message: err.Error(),
		})
		return
	}

	WriteJSON(w, status, ErrorResponse{
		Error:   "internal server error",
		Code:    CodeInternal,
		Message: "An unexpected error occurred",
	})
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusTooManyRequests:
		return CodeRateLimited
	case http.StatusServiceUnavailable:
		return CodeUnavailable
	case http.StatusGatewayTimeout:
		return CodeTimeout
	default:
		return CodeInternal
	}
}
