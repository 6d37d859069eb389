package querylog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/govai-bd/govai/internal/metrics"
	"github.com/govai-bd/govai/internal/pkg/logger"
)

const defaultWriteTimeout = 5 * time.Second

// QueryLogger writes one record per processed query. Write failures are
// reported on the diagnostic logger and never returned.
type QueryLogger struct {
	store   Store
	log     *logger.Logger
	metrics *metrics.Metrics
	timeout time.Duration
	now     func() time.Time
}

// NewQueryLogger creates a QueryLogger over store.
func NewQueryLogger(store Store, log *logger.Logger, m *metrics.Metrics, writeTimeout time.Duration) *QueryLogger {
	if log == nil {
		log = logger.Default()
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &QueryLogger{
		store:   store,
		log:     log.WithComponent("querylog"),
		metrics: m,
		timeout: writeTimeout,
		now:     time.Now,
	}
}

// Store returns the underlying sink.
func (l *QueryLogger) Store() Store {
	return l.store
}

// Log persists r, filling in ID and Timestamp when unset, and returns the
// record as written. The write is detached from ctx cancellation so that an
// abandoned request still leaves its record behind.
func (l *QueryLogger) Log(ctx context.Context, r Record) Record {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = l.now().UTC()
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
	defer cancel()

	err := l.store.Append(wctx, r)
	l.metrics.RecordLogWrite(err)
	if err != nil {
		l.log.WithContext(ctx).Warn("Failed to write query log record",
			"record_id", r.ID,
			"error", err,
		)
	}
	return r
}
