package domain

import "time"

// IdempotencyRecord is a completed API response stored under the client's
// Idempotency-Key. Scope is the method and concrete path the key was used on,
// so the same key may be reused against a different bot token.
type IdempotencyRecord struct {
	Scope       string    `json:"scope"`
	Key         string    `json:"key"`
	Status      int       `json:"status"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the record can no longer be replayed at now.
func (r IdempotencyRecord) Expired(now time.Time) bool { return !now.Before(r.ExpiresAt) }
