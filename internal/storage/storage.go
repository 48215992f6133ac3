// Package storage opens the configured StorageProvider.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tjfontaine/shopgate/internal/core/ports"
	"github.com/tjfontaine/shopgate/internal/pkg/config"
	"github.com/tjfontaine/shopgate/internal/storage/memory"
	"github.com/tjfontaine/shopgate/internal/storage/sqlite"
)

// Open returns the storage backend selected by cfg.Type.
func Open(cfg config.StorageConfig) (ports.StorageProvider, error) {
	switch cfg.Type {
	case "", "sqlite":
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
		store, err := sqlite.New(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLite.Path, err)
		}
		return store, nil
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
