package querylog

import (
	"context"
	"fmt"

	"github.com/govai-bd/govai/internal/bus"
	apperrors "github.com/govai-bd/govai/internal/pkg/errors"
	"github.com/govai-bd/govai/internal/pkg/logger"
)

// Shipper is a Store that publishes records to the event bus instead of
// writing them locally. Reads are served by reader, the store a Forwarder
// fills on the consuming side.
type Shipper struct {
	bus    bus.Bus
	topic  string
	source string
	reader Store
}

// NewShipper creates a Shipper publishing to topic.
func NewShipper(b bus.Bus, topic, source string, reader Store) *Shipper {
	if topic == "" {
		topic = bus.TopicQueryProcessed
	}
	return &Shipper{bus: b, topic: topic, source: source, reader: reader}
}

// Append publishes r as a query.processed event.
func (s *Shipper) Append(ctx context.Context, r Record) error {
	event, err := bus.NewEvent(bus.EventQueryProcessed, s.source, r)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeLogSink, "failed to encode record event", err)
	}
	if err := s.bus.Publish(ctx, s.topic, event); err != nil {
		return apperrors.Wrap(apperrors.CodeLogSink, "failed to ship record", err)
	}
	return nil
}

// ReadAll delegates to the reader store.
func (s *Shipper) ReadAll(ctx context.Context, w Window) (ReadResult, error) {
	if s.reader == nil {
		return ReadResult{Records: []Record{}}, nil
	}
	return s.reader.ReadAll(ctx, w)
}

// Close closes the reader store. The bus is owned by the caller.
func (s *Shipper) Close() error {
	if s.reader == nil {
		return nil
	}
	return s.reader.Close()
}

// Forwarder consumes shipped records and appends them to a Store.
type Forwarder struct {
	store Store
	log   *logger.Logger
}

// NewForwarder creates a Forwarder writing into store.
func NewForwarder(store Store, log *logger.Logger) *Forwarder {
	if log == nil {
		log = logger.Default()
	}
	return &Forwarder{store: store, log: log.WithComponent("forwarder")}
}

// Start subscribes to topic on b.
func (f *Forwarder) Start(ctx context.Context, b bus.Bus, topic string) error {
	if topic == "" {
		topic = bus.TopicQueryProcessed
	}
	return b.Subscribe(ctx, topic, f.Handle)
}

// Handle decodes one event and appends its record. Events of other types
// are ignored.
func (f *Forwarder) Handle(ctx context.Context, event bus.Event) error {
	if event.Type != bus.EventQueryProcessed {
		return nil
	}

	r, err := decodeRecord(event.Payload)
	if err != nil {
		f.log.Warn("Dropping malformed query record event", "event_id", event.ID, "error", err)
		return nil
	}
	if err := f.store.Append(ctx, r); err != nil {
		return fmt.Errorf("forwarding record %s: %w", r.ID, err)
	}
	return nil
}
