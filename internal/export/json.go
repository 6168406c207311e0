package export

import (
	"fmt"
	"os"

	"github.com/Martyvole/timetracking/internal/store"
)

// WriteSnapshot writes a user's backup document to path. The file is the
// same shape ReadSnapshot (and the in-app import) accepts, so a backup
// round-trips.
func WriteSnapshot(snap *store.Snapshot, path string) error {
	data, err := store.EncodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}
	return nil
}

// ReadSnapshot loads and parses a backup document from path. The file is
// parsed fully before anything is returned; a malformed file yields
// store.ErrBadSnapshot and no partial result.
func ReadSnapshot(path string) (*store.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}
	return store.ParseSnapshot(data)
}
