package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hivemint/internal/domain"
	"hivemint/internal/storage"
)

// HiveStore implements storage.HiveStore using PostgreSQL.
// The status guard of CompareAndSwap maps to a conditional UPDATE, so the
// purchase transitions are atomic at the database level.
type HiveStore struct {
	pool *Pool
}

// NewHiveStore creates a new HiveStore.
func NewHiveStore(pool *Pool) *HiveStore {
	return &HiveStore{pool: pool}
}

// Compile-time interface check.
var _ storage.HiveStore = (*HiveStore)(nil)

const hiveColumns = `id, name, description, image, location, farmer, price,
	status, owner, serial_number, collection_id, metadata_uri, sold_at_ms`

// GetByID retrieves a hive record by its ID. Returns ErrNotFound if not exists.
func (s *HiveStore) GetByID(ctx context.Context, id string) (*domain.HiveRecord, error) {
	query := `SELECT ` + hiveColumns + ` FROM hives WHERE id = $1`

	row := s.pool.QueryRow(ctx, query, id)
	h, err := scanHive(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get hive by id: %w", err)
	}
	return h, nil
}

// List retrieves all hive records, ordered by ID ASC.
func (s *HiveStore) List(ctx context.Context) ([]*domain.HiveRecord, error) {
	query := `SELECT ` + hiveColumns + ` FROM hives ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list hives: %w", err)
	}
	defer rows.Close()

	var result []*domain.HiveRecord
	for rows.Next() {
		h, err := scanHive(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hive: %w", err)
		}
		result = append(result, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hives: %w", err)
	}
	return result, nil
}

// Put inserts or replaces a record unconditionally.
func (s *HiveStore) Put(ctx context.Context, h *domain.HiveRecord) error {
	if h == nil || h.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO hives (` + hiveColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			image = EXCLUDED.image,
			location = EXCLUDED.location,
			farmer = EXCLUDED.farmer,
			price = EXCLUDED.price,
			status = EXCLUDED.status,
			owner = EXCLUDED.owner,
			serial_number = EXCLUDED.serial_number,
			collection_id = EXCLUDED.collection_id,
			metadata_uri = EXCLUDED.metadata_uri,
			sold_at_ms = EXCLUDED.sold_at_ms
	`

	_, err := s.pool.Exec(ctx, query, hiveArgs(h)...)
	if err != nil {
		return fmt.Errorf("put hive: %w", err)
	}
	return nil
}

// CompareAndSwap replaces the stored record only if its status equals expected.
func (s *HiveStore) CompareAndSwap(ctx context.Context, h *domain.HiveRecord, expected domain.HiveStatus) error {
	if h == nil || h.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE hives SET
			name = $2,
			description = $3,
			image = $4,
			location = $5,
			farmer = $6,
			price = $7,
			status = $8,
			owner = $9,
			serial_number = $10,
			collection_id = $11,
			metadata_uri = $12,
			sold_at_ms = $13
		WHERE id = $1 AND status = $14
	`

	args := append(hiveArgs(h), string(expected))
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("compare-and-swap hive: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Distinguish a missing row from a failed status guard.
	var exists bool
	err = s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM hives WHERE id = $1)`, h.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check hive existence: %w", err)
	}
	if !exists {
		return storage.ErrNotFound
	}
	return storage.ErrConflict
}

// hiveArgs returns the column values of h in hiveColumns order.
func hiveArgs(h *domain.HiveRecord) []any {
	return []any{
		h.ID,
		h.Name,
		h.Description,
		h.Image,
		h.Location,
		h.Farmer,
		h.Price,
		string(h.Status),
		h.Owner,
		h.SerialNumber,
		h.CollectionID,
		h.MetadataURI,
		h.SoldAtMs,
	}
}

// scanHive scans a single row into a HiveRecord.
func scanHive(row pgx.Row) (*domain.HiveRecord, error) {
	var h domain.HiveRecord
	var status string

	err := row.Scan(
		&h.ID,
		&h.Name,
		&h.Description,
		&h.Image,
		&h.Location,
		&h.Farmer,
		&h.Price,
		&status,
		&h.Owner,
		&h.SerialNumber,
		&h.CollectionID,
		&h.MetadataURI,
		&h.SoldAtMs,
	)
	if err != nil {
		return nil, err
	}

	h.Status = domain.HiveStatus(status)
	return &h, nil
}
