package repo

import (
	"context"
	"slices"
	"time"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/store"
)

// GetIdempotency returns the unexpired record for (scope, key), or
// ErrNotFound.
func GetIdempotency(ctx context.Context, st *store.Store, scope, key string, at time.Time) (*domain.IdempotencyRecord, error) {
	var out *domain.IdempotencyRecord
	err := st.View(ctx, "idempotency.get", func(d *domain.Document) error {
		i := slices.IndexFunc(d.IdempotencyKeys, func(r domain.IdempotencyRecord) bool {
			return r.Scope == scope && r.Key == key && !r.Expired(at)
		})
		if i < 0 {
			return ErrNotFound
		}
		r := d.IdempotencyKeys[i]
		out = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateIdempotency stores rec, dropping expired records in the same write.
// A live record for the same (scope, key) yields ErrConflict and the first
// response is kept.
func CreateIdempotency(ctx context.Context, st *store.Store, rec domain.IdempotencyRecord) error {
	at := now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = at
	}
	return st.Update(ctx, "idempotency.create", func(d *domain.Document) error {
		d.IdempotencyKeys = slices.DeleteFunc(d.IdempotencyKeys, func(r domain.IdempotencyRecord) bool {
			return r.Expired(at)
		})
		if slices.ContainsFunc(d.IdempotencyKeys, func(r domain.IdempotencyRecord) bool {
			return r.Scope == rec.Scope && r.Key == rec.Key
		}) {
			return ErrConflict
		}
		d.IdempotencyKeys = append(d.IdempotencyKeys, rec)
		return nil
	})
}
