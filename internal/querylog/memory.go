package querylog

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore keeps records in process. Entries are stored encoded so that
// raw malformed entries can be injected the same way a damaged file would
// present them.
type MemoryStore struct {
	mu      sync.RWMutex
	entries [][]byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append implements Store.
func (s *MemoryStore) Append(ctx context.Context, r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries = append(s.entries, data)
	s.mu.Unlock()
	return nil
}

// AppendRaw stores an undecoded entry.
func (s *MemoryStore) AppendRaw(data []byte) {
	s.mu.Lock()
	s.entries = append(s.entries, append([]byte(nil), data...))
	s.mu.Unlock()
}

// Len returns the number of stored entries, including malformed ones.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// ReadAll implements Store.
func (s *MemoryStore) ReadAll(ctx context.Context, w Window) (ReadResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	res := ReadResult{Records: make([]Record, 0, len(s.entries))}
	for _, e := range s.entries {
		r, err := decodeRecord(e)
		if err != nil {
			res.Skipped++
			continue
		}
		if w.Contains(r.Timestamp, now) {
			res.Records = append(res.Records, r)
		}
	}
	return res, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
