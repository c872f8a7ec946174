// Package storage provides the key-value backends that hold the record cache.
package storage

import (
	"fmt"
	"path/filepath"

	"github.com/qepting91/recordsync/internal/config"
	"github.com/qepting91/recordsync/internal/domain"
)

// NewStore opens the backend named by STORE_BACKEND.
func NewStore(cfg config.Config) (domain.Store, error) {
	switch cfg.StoreBackend {
	case "file", "":
		return NewFileStore(cfg.StorePath)
	case "sqlite":
		return NewSQLiteStore(filepath.Join(cfg.StorePath, "cache.sqlite3"))
	case "redis":
		return NewRedisStoreWithURL(cfg.RedisURL)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND: %s (use 'file', 'sqlite', 'redis', or 'memory')", cfg.StoreBackend)
	}
}
