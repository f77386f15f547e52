package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/repo"
	"github.com/tbourn/go-telegram-gateway/internal/store"
)

// BotStatus reports whether a credential's bot is reachable.
type BotStatus struct {
	IsOnline bool            `json:"is_online"`
	Bot      *domain.BotInfo `json:"bot,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// MessengerService talks to the messaging platform on behalf of a stored
// credential: bot identity checks and test messages.
type MessengerService struct {
	Store *store.Store
	Relay Relay
	Logs  *LogService
}

// NewMessengerService constructs a MessengerService.
func NewMessengerService(st *store.Store, relay Relay, logs *LogService) *MessengerService {
	return &MessengerService{Store: st, Relay: relay, Logs: logs}
}

// BotInfo asks the platform for the bot's identity. An unreachable bot is
// not an error: it is reported as offline with the failure message.
func (s *MessengerService) BotInfo(ctx context.Context, id domain.ID) (BotStatus, error) {
	tok, err := s.token(ctx, id)
	if err != nil {
		return BotStatus{}, err
	}

	client, err := s.Relay.Dial(ctx, tok.Token)
	if err != nil {
		return BotStatus{IsOnline: false, Error: err.Error()}, nil
	}
	me, err := client.GetMe(ctx)
	if err != nil {
		return BotStatus{IsOnline: false, Error: err.Error()}, nil
	}
	return BotStatus{IsOnline: true, Bot: &me}, nil
}

// SendTest delivers text to chatID with the credential's bot. On success the
// chat identity is refreshed (best-effort) and the message is logged as
// outgoing text.
func (s *MessengerService) SendTest(ctx context.Context, id domain.ID, chatID domain.ChatID, text string) (*domain.SentMessage, error) {
	tr := otel.Tracer("services/MessengerService")
	ctx, span := tr.Start(ctx, "SendTest",
		trace.WithAttributes(
			attribute.Int64("bot_token.id", int64(id)),
			attribute.String("chat.id", chatID.String()),
		),
	)
	defer span.End()

	tok, err := s.token(ctx, id)
	if err != nil {
		return nil, err
	}
	chatID = domain.ChatID(strings.TrimSpace(chatID.String()))
	if chatID == "" {
		return nil, ErrChatIDRequired
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrMessageRequired
	}

	client, err := s.Relay.Dial(ctx, tok.Token)
	if err != nil {
		messagesSent.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	sent, err := client.SendText(ctx, chatID, text)
	if err != nil {
		messagesSent.WithLabelValues("error").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	messagesSent.WithLabelValues("ok").Inc()

	if info, err := client.GetChatInfo(ctx, chatID); err == nil {
		at := time.Now().UTC()
		up := domain.ChatUpsert{
			BotTokenID:    id,
			ChatID:        chatID,
			Title:         domain.StringPtr(info.Title),
			Username:      domain.StringPtr(info.Username),
			FirstName:     domain.StringPtr(info.FirstName),
			LastMessageAt: &at,
		}
		if info.Type != "" {
			up.Type = &info.Type
		}
		if _, err := repo.UpsertChat(ctx, s.Store, up); err != nil {
			log.Warn().Err(err).Str("chat_id", chatID.String()).Msg("saving chat info failed")
		}
	} else {
		log.Warn().Err(err).Str("chat_id", chatID.String()).Msg("chat lookup after send failed")
	}

	if _, err := s.Logs.Record(ctx, domain.NewMessageLog{
		BotTokenID:     id.Ptr(),
		ChatID:         chatID,
		MessageType:    domain.MessageTypeText,
		MessageContent: &text,
		Direction:      domain.DirectionOutgoing,
	}); err != nil {
		return nil, err
	}
	return &sent, nil
}

func (s *MessengerService) token(ctx context.Context, id domain.ID) (*domain.BotToken, error) {
	tok, err := repo.GetBotToken(ctx, s.Store, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrBotTokenNotFound
	}
	return tok, err
}
