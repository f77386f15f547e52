package services

import (
	"context"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/telegram"
)

// RelayClient is a connected messaging-platform session for one credential.
type RelayClient interface {
	// GetChatInfo returns authoritative chat metadata. Every failure
	// (network, unknown chat, permission) is treated the same by callers.
	GetChatInfo(ctx context.Context, chatID domain.ChatID) (domain.ChatInfo, error)
	GetMe(ctx context.Context) (domain.BotInfo, error)
	SendText(ctx context.Context, chatID domain.ChatID, text string) (domain.SentMessage, error)
}

// Relay opens RelayClients for bot tokens.
type Relay interface {
	Dial(ctx context.Context, token string) (RelayClient, error)
}

// RelayFunc adapts a function to Relay.
type RelayFunc func(ctx context.Context, token string) (RelayClient, error)

func (f RelayFunc) Dial(ctx context.Context, token string) (RelayClient, error) { return f(ctx, token) }

// TelegramRelay returns a Relay backed by the Telegram Bot API.
func TelegramRelay(d *telegram.Dialer) Relay {
	return RelayFunc(func(ctx context.Context, token string) (RelayClient, error) {
		c, err := d.Dial(ctx, token)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}
