package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tjfontaine/shopgate/internal/pkg/config"
	"github.com/tjfontaine/shopgate/internal/storage/memory"
	"github.com/tjfontaine/shopgate/internal/storage/sqlite"
)

func TestOpen(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		store, err := Open(config.StorageConfig{Type: "memory"})
		if err != nil {
			t.Fatal(err)
		}
		defer store.Close()
		if _, ok := store.(*memory.Store); !ok {
			t.Errorf("store = %T, want *memory.Store", store)
		}
	})

	t.Run("sqlite creates its directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "shopgate.db")
		store, err := Open(config.StorageConfig{Type: "sqlite", SQLite: config.SQLiteConfig{Path: path}})
		if err != nil {
			t.Fatal(err)
		}
		defer store.Close()
		if _, ok := store.(*sqlite.Store); !ok {
			t.Errorf("store = %T, want *sqlite.Store", store)
		}
		if _, err := store.CountChannels(context.Background()); err != nil {
			t.Errorf("CountChannels() error = %v", err)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := Open(config.StorageConfig{Type: "postgres"}); err == nil {
			t.Error("expected error for unknown storage type")
		}
	})
}
