package store

import (
	"context"
	"fmt"

	"github.com/tbourn/go-telegram-gateway/internal/config"
)

// OpenConfigured builds the backend selected by cfg and opens a Store on it.
func OpenConfigured(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	var backend Backend
	switch cfg.Driver {
	case config.StoreDriverSQLite:
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("store: open sqlite %s: %w", cfg.SQLitePath, err)
		}
		sb, err := NewSQLiteBackend(db)
		if err != nil {
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
			return nil, err
		}
		backend = sb
	case config.StoreDriverFile, "":
		backend = NewFileBackend(cfg.Path)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}

	st, err := Open(ctx, backend)
	if err != nil {
		if sb, ok := backend.(*SQLiteBackend); ok {
			_ = sb.Close()
		}
		return nil, err
	}
	return st, nil
}
