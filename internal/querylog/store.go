package querylog

import (
	"context"
	"fmt"
	"strings"

	"github.com/govai-bd/govai/internal/config"
)

// Store is the durable log sink. Append must be atomic: concurrent appends
// never interleave partial records.
type Store interface {
	Append(ctx context.Context, r Record) error

	// ReadAll returns the records inside w in write order. Unparseable
	// entries are skipped and counted, never fatal.
	ReadAll(ctx context.Context, w Window) (ReadResult, error)

	Close() error
}

// ReadResult is the outcome of a full read.
type ReadResult struct {
	Records []Record
	// Skipped counts entries that could not be decoded.
	Skipped int
}

// NewStore creates the store selected by cfg.Store.
func NewStore(cfg config.QueryLogConfig) (Store, error) {
	switch strings.ToLower(cfg.Store) {
	case "file", "":
		return OpenFileStore(cfg.Path)
	case "redis":
		return NewRedisStore(RedisConfig{
			URL:       cfg.RedisURL,
			Key:       cfg.RedisKey,
			Retention: cfg.Retention,
		})
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown query log store: %s", cfg.Store)
	}
}
