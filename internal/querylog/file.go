package querylog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	apperrors "github.com/govai-bd/govai/internal/pkg/errors"
)

// FileStore appends records as JSON lines to a local file.
type FileStore struct {
	path string
	mu   sync.Mutex
	file *os.File
}

// OpenFileStore opens (creating if needed) the JSONL log at path.
func OpenFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, apperrors.ValidationError("query log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &FileStore{path: path, file: file}, nil
}

// Path returns the log file location.
func (s *FileStore) Path() string {
	return s.path
}

// Append writes r as a single line with one write call and syncs it.
func (s *FileStore) Append(ctx context.Context, r Record) error {
	line, err := json.Marshal(r)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeLogSink, "failed to encode record", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return apperrors.New(apperrors.CodeLogSink, "query log is closed")
	}
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CodeLogSink, "query log write abandoned", err)
	}
	if _, err := s.file.Write(line); err != nil {
		return apperrors.Wrap(apperrors.CodeLogSink, "failed to write record", err)
	}
	if err := s.file.Sync(); err != nil {
		return apperrors.Wrap(apperrors.CodeLogSink, "failed to sync log file", err)
	}
	return nil
}

// ReadAll scans the file as it was when the call started, without blocking
// appends. Malformed lines are counted as skipped.
func (s *FileStore) ReadAll(ctx context.Context, w Window) (ReadResult, error) {
	res := ReadResult{Records: []Record{}}

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return res, nil
		}
		return res, apperrors.Wrap(apperrors.CodeLogSink, "failed to open log file", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return res, apperrors.Wrap(apperrors.CodeLogSink, "failed to stat log file", err)
	}

	now := time.Now()
	reader := bufio.NewReaderSize(io.LimitReader(file, info.Size()), 64*1024)
	for n := 0; ; n++ {
		if n%1024 == 0 && ctx.Err() != nil {
			return res, ctx.Err()
		}

		line, err := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			if r, derr := decodeRecord(line); derr != nil {
				res.Skipped++
			} else if w.Contains(r.Timestamp, now) {
				res.Records = append(res.Records, r)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, apperrors.Wrap(apperrors.CodeLogSink, "failed to read log file", err)
		}
	}
	return res, nil
}

// Close closes the file. Further appends fail.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
