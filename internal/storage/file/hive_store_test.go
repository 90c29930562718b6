package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hivemint/internal/domain"
	"hivemint/internal/storage"
)

func newTestStore(t *testing.T) *HiveStore {
	t.Helper()
	store, err := NewHiveStore(filepath.Join(t.TempDir(), "hives.json"))
	if err != nil {
		t.Fatalf("NewHiveStore: %v", err)
	}
	return store
}

func newHive(id string, status domain.HiveStatus) *domain.HiveRecord {
	return &domain.HiveRecord{
		ID:       id,
		Name:     "Hive " + id,
		Location: "Carpathians",
		Farmer:   "Ivanov",
		Price:    150,
		Status:   status,
	}
}

func TestNewHiveStore_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "hives.json")
	store, err := NewHiveStore(path)
	if err != nil {
		t.Fatalf("NewHiveStore: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected store file to exist: %v", err)
	}

	records, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty collection, got %d records", len(records))
	}
}

func TestHiveStore_PutGetList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"HIVE-002", "HIVE-001"} {
		if err := store.Put(ctx, newHive(id, domain.HiveAvailable)); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}

	got, err := store.GetByID(ctx, "HIVE-001")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Farmer != "Ivanov" {
		t.Errorf("unexpected record: %+v", got)
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 || records[0].ID != "HIVE-001" || records[1].ID != "HIVE-002" {
		t.Errorf("expected sorted HIVE-001, HIVE-002, got %+v", records)
	}

	if _, err := store.GetByID(ctx, "HIVE-404"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHiveStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hives.json")
	ctx := context.Background()

	first, err := NewHiveStore(path)
	if err != nil {
		t.Fatalf("NewHiveStore: %v", err)
	}
	if err := first.Put(ctx, newHive("HIVE-001", domain.HiveSold)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	second, err := NewHiveStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	got, err := second.GetByID(ctx, "HIVE-001")
	if err != nil {
		t.Fatalf("GetByID after reopen: %v", err)
	}
	if got.Status != domain.HiveSold {
		t.Errorf("expected sold status to survive reopen, got %s", got.Status)
	}
}

func TestHiveStore_CompareAndSwap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, newHive("HIVE-001", domain.HiveAvailable)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	pending := newHive("HIVE-001", domain.HivePendingTransfer)
	if err := store.CompareAndSwap(ctx, pending, domain.HiveAvailable); err != nil {
		t.Fatalf("CompareAndSwap: %v", err)
	}

	err := store.CompareAndSwap(ctx, newHive("HIVE-001", domain.HiveSold), domain.HiveAvailable)
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	err = store.CompareAndSwap(ctx, newHive("HIVE-404", domain.HiveSold), domain.HiveAvailable)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	seed := `[
  {"id": "HIVE-001", "name": "Hive one", "price": 150},
  {"id": "HIVE-002", "name": "Hive two", "status": "sold"}
]`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed file: %v", err)
	}

	records, err := ReadSeedFile(path)
	if err != nil {
		t.Fatalf("ReadSeedFile: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Status != domain.HiveAvailable {
		t.Errorf("expected missing status to default to available, got %s", records[0].Status)
	}
	if records[1].Status != domain.HiveSold {
		t.Errorf("expected explicit status preserved, got %s", records[1].Status)
	}
}

func TestReadSeedFile_MissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, []byte(`[{"name": "no id"}]`), 0o644); err != nil {
		t.Fatalf("write seed file: %v", err)
	}

	if _, err := ReadSeedFile(path); err == nil {
		t.Fatal("expected error for record without id")
	}
}
