package store

import (
	"fmt"

	"shelflife/internal/database"
)

// New selects the store implementation from configuration.
func New(backend, filePath string, db *database.DB) (PostStore, error) {
	switch backend {
	case "", "memory":
		return NewMemory(nil), nil
	case "file":
		if filePath == "" {
			return nil, fmt.Errorf("file store requires a path")
		}
		return NewFile(filePath, nil)
	case "sqlite":
		if db == nil {
			return nil, fmt.Errorf("sqlite store requires an open database")
		}
		return NewSQLite(db), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s (use 'memory', 'file', or 'sqlite')", backend)
	}
}
