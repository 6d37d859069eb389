// Package querylog persists one record per processed query and computes
// dashboard statistics from the accumulated log.
package querylog

import (
	"encoding/json"
	"errors"
	"time"
)

// Record is one processed query. Records are append-only.
type Record struct {
	// ID uniquely identifies the record.
	ID string `json:"id"`

	// Timestamp is when handling of the query finished.
	Timestamp time.Time `json:"timestamp"`

	// Query is the sanitized query text.
	Query string `json:"query"`

	// Language is the detected language tag.
	Language string `json:"language"`

	UserID     string `json:"user_id,omitempty"`
	ClientAddr string `json:"client_addr,omitempty"`
	RequestID  string `json:"request_id,omitempty"`

	// DurationMs is the end-to-end processing time.
	DurationMs float64 `json:"duration_ms"`

	// Success is false when the query failed or the answer is the fallback.
	Success bool `json:"success"`

	// Error is a short failure description, never shown to users.
	Error string `json:"error,omitempty"`

	// Provider is the search provider whose results were used.
	Provider    string `json:"provider,omitempty"`
	SourceCount int    `json:"source_count"`

	// Attempts is the number of LLM calls made.
	Attempts int `json:"attempts"`

	GovRelated bool `json:"gov_related"`
}

// Duration returns DurationMs as a time.Duration.
func (r Record) Duration() time.Duration {
	return time.Duration(r.DurationMs * float64(time.Millisecond))
}

var errIncompleteRecord = errors.New("record missing timestamp or query")

// decodeRecord parses one stored record. Lines that are not JSON or lack
// the fields every writer sets are rejected.
func decodeRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, err
	}
	if r.Timestamp.IsZero() || r.Query == "" {
		return Record{}, errIncompleteRecord
	}
	return r, nil
}
