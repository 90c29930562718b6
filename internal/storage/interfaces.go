package storage

import (
	"context"

	"hivemint/internal/domain"
)

// HiveStore provides access to hive record storage.
//
// Mutation goes through CompareAndSwap so the purchase workflow's
// available -> pending_transfer -> sold transitions are race-free: two
// concurrent purchases for the same hive cannot both pass the status guard.
type HiveStore interface {
	// GetByID retrieves a hive record by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.HiveRecord, error)

	// List retrieves all hive records, ordered by ID ASC.
	List(ctx context.Context) ([]*domain.HiveRecord, error)

	// Put inserts or replaces a record unconditionally. Used for seeding.
	Put(ctx context.Context, h *domain.HiveRecord) error

	// CompareAndSwap replaces the stored record with h only if the stored
	// record's status equals expected. Returns ErrNotFound if the record
	// does not exist and ErrConflict if the status guard fails.
	CompareAndSwap(ctx context.Context, h *domain.HiveRecord, expected domain.HiveStatus) error
}
