package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/event"
	"github.com/tbourn/go-telegram-gateway/internal/repo"
	"github.com/tbourn/go-telegram-gateway/internal/store"
)

// LogService reads and appends traffic logs and reports collection stats.
type LogService struct {
	Store  *store.Store
	Events event.Publisher
}

// NewLogService constructs a LogService. A nil publisher drops events.
func NewLogService(st *store.Store, ev event.Publisher) *LogService {
	if ev == nil {
		ev = event.Noop()
	}
	return &LogService{Store: st, Events: ev}
}

// List returns logs newest first, optionally for one credential.
func (s *LogService) List(ctx context.Context, limit int, botTokenID *domain.ID) ([]domain.MessageLog, error) {
	return repo.ListMessageLogs(ctx, s.Store, limit, botTokenID)
}

// ListForBotToken returns the logs of one existing credential.
func (s *LogService) ListForBotToken(ctx context.Context, id domain.ID, limit int) ([]domain.MessageLog, error) {
	if _, err := repo.GetBotToken(ctx, s.Store, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrBotTokenNotFound
		}
		return nil, err
	}
	return repo.ListMessageLogs(ctx, s.Store, limit, &id)
}

// Record appends a log entry and publishes it. Publishing is best-effort.
func (s *LogService) Record(ctx context.Context, in domain.NewMessageLog) (*domain.MessageLog, error) {
	entry, err := repo.CreateMessageLog(ctx, s.Store, in)
	if err != nil {
		return nil, err
	}
	if err := s.Events.PublishMessageLogged(ctx, *entry); err != nil {
		log.Warn().Err(err).Str("chat_id", entry.ChatID.String()).Msg("publish message log failed")
	}
	return entry, nil
}

// Stats returns collection counts.
func (s *LogService) Stats(ctx context.Context) (domain.Stats, error) {
	return repo.GetStats(ctx, s.Store)
}
