// Package repo implements the persistence layer for the gateway's four
// collections on top of store.Store.
//
// All functions are context-aware and take the *store.Store handle as their
// second argument. Every call reloads the document (reads run inside
// Store.View, writes inside Store.Update), so changes made by other
// processes sharing the same backend are observed. Writes persist the whole
// document before returning.
//
// They follow the "thin repository" approach: no business rules beyond the
// invariants of the collections themselves (id allocation, natural keys,
// ordering).
//
// Error semantics:
//   - Missing records yield ErrNotFound.
//   - A duplicate natural key on create yields ErrConflict.
//   - Backend failures are propagated unchanged.
package repo

import (
	"errors"
	"time"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a create would duplicate a natural key.
	ErrConflict = errors.New("record already exists")
)

// DefaultLogLimit is used by ListMessageLogs when limit <= 0.
const DefaultLogLimit = 100

// now is a test seam.
var now = func() time.Time { return time.Now().UTC() }

// nextID returns max(ids)+1, or 1 for an empty collection. Ids are never
// recycled as long as the current maximum survives.
func nextID[T any](items []T, id func(T) domain.ID) domain.ID {
	var max domain.ID
	for _, it := range items {
		if v := id(it); v > max {
			max = v
		}
	}
	return max + 1
}

func sameChat(a, b domain.ChatID) bool {
	return a.Key() == b.Key()
}
