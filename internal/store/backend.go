// Package store owns the gateway's single persisted Document.
//
// This file defines the Backend contract and the default JSON file backend.
// A backend reads and writes the whole document as one unit:
//
//   - Load never fails on a missing, unreadable or syntactically broken
//     document: it returns a fresh default document instead (found=false when
//     nothing was stored yet), so the service stays available after
//     corruption. A broken document is first moved aside to
//     "<path>.corrupt-<timestamp>" so the next save cannot destroy it.
//     Well-formed JSON that does not decode into a document is an error; the
//     file is left untouched.
//   - Save is all-or-nothing. The file backend writes "<path>.tmp" and renames
//     it over the real path, so readers observe either the previous or the new
//     document, never a partial one. Write and rename failures are returned to
//     the caller and never retried here.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
)

// Backend persists a Document as one unit.
type Backend interface {
	// Load returns the stored document, or a default one. found reports
	// whether a document existed.
	Load(ctx context.Context) (doc *domain.Document, found bool, err error)
	// Save replaces the stored document atomically.
	Save(ctx context.Context, doc *domain.Document) error
}

// ---- TEST SEAMS ----
var (
	writeFile = os.WriteFile
	rename    = os.Rename
)

// FileBackend stores the document as pretty-printed JSON at Path.
type FileBackend struct {
	Path string
}

// NewFileBackend returns a FileBackend for path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

// tmpPath is the sibling used while saving. It is transient and must not be
// read as a document.
func (b *FileBackend) tmpPath() string { return b.Path + ".tmp" }

// Load reads and decodes the document file.
func (b *FileBackend) Load(_ context.Context) (*domain.Document, bool, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NewDocument(), false, nil
		}
		log.Warn().Err(err).Str("path", b.Path).Msg("store: cannot read document, using default")
		return domain.NewDocument(), true, nil
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		var syntaxErr *json.SyntaxError
		if !errors.As(err, &syntaxErr) {
			return nil, false, fmt.Errorf("store: decode %s: %w", b.Path, err)
		}
		kept, qerr := b.quarantine()
		if qerr != nil {
			return nil, false, fmt.Errorf("store: keep corrupt %s: %w", b.Path, qerr)
		}
		log.Warn().Err(err).Str("path", b.Path).Str("kept_as", kept).Msg("store: document is corrupt, using default")
		return domain.NewDocument(), true, nil
	}
	return &doc, true, nil
}

// quarantine moves the current file to a timestamped sibling and returns its
// path. Later loads see no file until the next save.
func (b *FileBackend) quarantine() (string, error) {
	kept := fmt.Sprintf("%s.corrupt-%s", b.Path, time.Now().UTC().Format("20060102T150405.000000000Z"))
	if err := os.Rename(b.Path, kept); err != nil {
		return "", err
	}
	return kept, nil
}

// Save encodes doc, writes it to the temporary sibling and renames it into
// place. The parent directory is created when missing.
func (b *FileBackend) Save(_ context.Context, doc *domain.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode document: %w", err)
	}

	if dir := filepath.Dir(b.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store: create dir %s: %w", dir, err)
		}
	}

	tmp := b.tmpPath()
	if err := writeFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", tmp, err)
	}
	if err := rename(tmp, b.Path); err != nil {
		return fmt.Errorf("store: rename %s: %w", tmp, err)
	}
	return nil
}
