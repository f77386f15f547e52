package repo

import (
	"context"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/store"
)

// GetStats counts every collection from a single load, so the numbers are
// consistent with each other.
func GetStats(ctx context.Context, st *store.Store) (domain.Stats, error) {
	var s domain.Stats
	err := st.View(ctx, "stats", func(d *domain.Document) error {
		s.TotalTokens = len(d.BotTokens)
		for _, t := range d.BotTokens {
			if t.IsActive {
				s.ActiveTokens++
			}
		}
		s.TotalSettings = len(d.Settings)
		s.TotalLogs = len(d.MessageLogs)
		return nil
	})
	return s, err
}
