// Package sink writes crawl output as newline-delimited JSON.
package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/phidi/identity-crawler/internal/crawler"
)

// NDJSONSink appends one JSON object per line to a single file. Writes are
// serialized so concurrent workers never interleave partial lines.
type NDJSONSink struct {
	mu      sync.Mutex
	file    *os.File
	logger  *zap.Logger
	written int
}

// NewNDJSONSink creates (truncating) the output file, making parent
// directories as needed.
func NewNDJSONSink(path string, logger *zap.Logger) (*NDJSONSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file %s: %w", path, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NDJSONSink{file: f, logger: logger}, nil
}

// Write appends one record line.
func (s *NDJSONSink) Write(rec crawler.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record for %s: %w", rec.Domain, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write record for %s: %w", rec.Domain, err)
	}
	s.written++
	return nil
}

// Written reports how many records have been flushed so far.
func (s *NDJSONSink) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Close flushes and closes the underlying file.
func (s *NDJSONSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	s.logger.Info("output file closed", zap.Int("records", s.written))
	return nil
}
