package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
)

// documentRowID is the primary key of the only row in the documents table.
const documentRowID = 1

// documentRow holds the whole JSON document in a single row.
type documentRow struct {
	ID        int       `gorm:"primaryKey;autoIncrement:false"`
	Body      string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (documentRow) TableName() string { return "documents" }

// OpenSQLite opens (or creates) a SQLite database, applies PRAGMAs and
// registers the OpenTelemetry tracing plugin. The parent directory is created
// when missing.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}
	return db, nil
}

// SQLiteBackend stores the document as one JSON row. Each Save is a single
// transaction, which gives the same all-or-nothing guarantee as the file
// backend's rename.
type SQLiteBackend struct {
	db *gorm.DB
}

// NewSQLiteBackend migrates the documents table and returns the backend.
func NewSQLiteBackend(db *gorm.DB) (*SQLiteBackend, error) {
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("store: migrate documents: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

// Load reads the document row. A missing row yields the default document with
// found=false. A body that is not valid JSON is copied to a row keyed by the
// current unix time and the default document is returned with a warning.
// Database errors and well-formed bodies of the wrong shape are returned.
func (b *SQLiteBackend) Load(ctx context.Context) (*domain.Document, bool, error) {
	var row documentRow
	err := b.db.WithContext(ctx).First(&row, documentRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NewDocument(), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: load document: %w", err)
	}

	var doc domain.Document
	if err := json.Unmarshal([]byte(row.Body), &doc); err != nil {
		var syntaxErr *json.SyntaxError
		if !errors.As(err, &syntaxErr) {
			return nil, false, fmt.Errorf("store: decode document: %w", err)
		}
		// Keep the broken body under another id before it gets overwritten.
		kept := documentRow{ID: int(time.Now().Unix()), Body: row.Body, UpdatedAt: time.Now().UTC()}
		if err := b.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&kept).Error; err != nil {
			return nil, false, fmt.Errorf("store: keep corrupt document: %w", err)
		}
		log.Warn().Err(err).Int("kept_as_id", kept.ID).Msg("store: document row is corrupt, using default")
		return domain.NewDocument(), true, nil
	}
	return &doc, true, nil
}

// Save upserts the document row inside a transaction.
func (b *SQLiteBackend) Save(ctx context.Context, doc *domain.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode document: %w", err)
	}
	row := documentRow{ID: documentRowID, Body: string(data), UpdatedAt: time.Now().UTC()}

	err = b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
		}).Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("store: save document: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (b *SQLiteBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
