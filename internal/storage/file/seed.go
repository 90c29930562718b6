package file

import (
	"encoding/json"
	"fmt"
	"os"

	"hivemint/internal/domain"
)

// ReadSeedFile parses a JSON file of hive records for seeding a store.
// Records without a status default to available.
func ReadSeedFile(path string) ([]*domain.HiveRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var records []*domain.HiveRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	for _, h := range records {
		if h.ID == "" {
			return nil, fmt.Errorf("seed record without id")
		}
		if h.Status == "" {
			h.Status = domain.HiveAvailable
		}
	}
	return records, nil
}
