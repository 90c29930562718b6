package memory

import (
	"context"
	"sort"
	"sync"

	"hivemint/internal/domain"
	"hivemint/internal/storage"
)

// HiveStore is an in-memory implementation of storage.HiveStore.
type HiveStore struct {
	mu   sync.RWMutex
	data map[string]*domain.HiveRecord // keyed by hive id
}

// NewHiveStore creates a new in-memory hive store.
func NewHiveStore() *HiveStore {
	return &HiveStore{
		data: make(map[string]*domain.HiveRecord),
	}
}

// GetByID retrieves a hive record by its ID. Returns ErrNotFound if not exists.
func (s *HiveStore) GetByID(_ context.Context, id string) (*domain.HiveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	// Return a copy
	recordCopy := *h
	return &recordCopy, nil
}

// List retrieves all hive records, ordered by ID ASC.
func (s *HiveStore) List(_ context.Context) ([]*domain.HiveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.HiveRecord, 0, len(s.data))
	for _, h := range s.data {
		recordCopy := *h
		result = append(result, &recordCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Put inserts or replaces a record unconditionally.
func (s *HiveStore) Put(_ context.Context, h *domain.HiveRecord) error {
	if h == nil || h.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recordCopy := *h
	s.data[h.ID] = &recordCopy
	return nil
}

// CompareAndSwap replaces the stored record only if its status equals expected.
func (s *HiveStore) CompareAndSwap(_ context.Context, h *domain.HiveRecord, expected domain.HiveStatus) error {
	if h == nil || h.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.data[h.ID]
	if !exists {
		return storage.ErrNotFound
	}
	if current.Status != expected {
		return storage.ErrConflict
	}

	recordCopy := *h
	s.data[h.ID] = &recordCopy
	return nil
}

// Verify interface compliance at compile time.
var _ storage.HiveStore = (*HiveStore)(nil)
