package storage

import (
	"fmt"
	"log/slog"

	"github.com/fieldview/fieldview/internal/config"
	"github.com/fieldview/fieldview/internal/storage/gormstore"
	"github.com/fieldview/fieldview/internal/storage/memory"
)

// NewBackend creates an archive backend based on configuration.
func NewBackend(cfg config.StorageConfig, logger *slog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return gormstore.NewPostgres(cfg.DSN, logger)
	case "sqlite":
		return gormstore.NewSQLite(cfg.Path, logger)
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
