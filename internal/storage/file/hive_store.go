// Package file implements storage.HiveStore on a flat JSON file.
//
// The whole record collection is read on every access and rewritten wholesale
// on every mutation. A process-wide mutex makes CompareAndSwap honest within
// one process; writes go through a temp file and rename so a crash never
// leaves a half-written collection behind.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"hivemint/internal/domain"
	"hivemint/internal/storage"
)

// HiveStore is a flat-file implementation of storage.HiveStore.
type HiveStore struct {
	mu   sync.Mutex
	path string
}

// NewHiveStore creates a hive store backed by the JSON file at path.
// The file is created with an empty collection if it does not exist.
func NewHiveStore(path string) (*HiveStore, error) {
	s := &HiveStore{path: path}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		if err := s.write([]*domain.HiveRecord{}); err != nil {
			return nil, fmt.Errorf("initialize store file: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat store file: %w", err)
	}

	return s, nil
}

// read loads the entire collection from disk.
func (s *HiveStore) read() ([]*domain.HiveRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}

	var records []*domain.HiveRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode store file: %w", err)
	}
	return records, nil
}

// write rewrites the entire collection, sorted by ID, via temp file + rename.
func (s *HiveStore) write(records []*domain.HiveRecord) error {
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

// GetByID retrieves a hive record by its ID. Returns ErrNotFound if not exists.
func (s *HiveStore) GetByID(_ context.Context, id string) (*domain.HiveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return nil, err
	}

	for _, h := range records {
		if h.ID == id {
			recordCopy := *h
			return &recordCopy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// List retrieves all hive records, ordered by ID ASC.
func (s *HiveStore) List(_ context.Context) ([]*domain.HiveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// Put inserts or replaces a record unconditionally.
func (s *HiveStore) Put(_ context.Context, h *domain.HiveRecord) error {
	if h == nil || h.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}

	replaced := false
	for i, r := range records {
		if r.ID == h.ID {
			recordCopy := *h
			records[i] = &recordCopy
			replaced = true
			break
		}
	}
	if !replaced {
		recordCopy := *h
		records = append(records, &recordCopy)
	}

	return s.write(records)
}

// CompareAndSwap replaces the stored record only if its status equals expected.
func (s *HiveStore) CompareAndSwap(_ context.Context, h *domain.HiveRecord, expected domain.HiveStatus) error {
	if h == nil || h.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}

	for i, r := range records {
		if r.ID == h.ID {
			if r.Status != expected {
				return storage.ErrConflict
			}
			recordCopy := *h
			records[i] = &recordCopy
			return s.write(records)
		}
	}
	return storage.ErrNotFound
}

// Verify interface compliance at compile time.
var _ storage.HiveStore = (*HiveStore)(nil)
