package services

import (
	"context"
	"errors"
	"time"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/repo"
	"github.com/tbourn/go-telegram-gateway/internal/store"
)

// DefaultReplayTTL is used when ReplayService.TTL is not positive.
const DefaultReplayTTL = 24 * time.Hour

// ReplayService keeps the responses of keyed POST requests in the shared
// document so a retried request is answered without repeating its effect,
// also after a restart.
type ReplayService struct {
	Store *store.Store
	TTL   time.Duration
}

// NewReplayService constructs a ReplayService.
func NewReplayService(st *store.Store, ttl time.Duration) *ReplayService {
	if ttl <= 0 {
		ttl = DefaultReplayTTL
	}
	return &ReplayService{Store: st, TTL: ttl}
}

// Lookup returns the stored response for (scope, key), or nil when there is
// none valid at now.
func (s *ReplayService) Lookup(ctx context.Context, scope, key string, now time.Time) (*domain.IdempotencyRecord, error) {
	rec, err := repo.GetIdempotency(ctx, s.Store, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// Record stores a response. When a response is already stored under the key
// the first one is kept.
func (s *ReplayService) Record(ctx context.Context, scope, key string, status int, contentType string, body []byte) error {
	at := time.Now().UTC()
	err := repo.CreateIdempotency(ctx, s.Store, domain.IdempotencyRecord{
		Scope:       scope,
		Key:         key,
		Status:      status,
		ContentType: contentType,
		Body:        body,
		CreatedAt:   at,
		ExpiresAt:   at.Add(s.TTL),
	})
	if errors.Is(err, repo.ErrConflict) {
		return nil
	}
	return err
}
