// Package telegram wraps the Telegram Bot API for the gateway: chat lookups,
// bot identity, outgoing text and update polling.
//
// Calls are bounded by the HTTP client timeout configured on the Dialer. The
// underlying library has no context support, so a cancelled context returns
// early while the in-flight request runs out its timeout in the background.
package telegram

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/pkg/errors"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
)

var (
	// ErrEmptyToken is returned by Dial for a blank token.
	ErrEmptyToken = errors.New("telegram: empty bot token")
	// ErrBadChatID is returned for chat ids that are neither numeric nor @username.
	ErrBadChatID = errors.New("telegram: chat id must be numeric or @username")
)

// botAPI is the subset of *tgbotapi.BotAPI used by Client.
type botAPI interface {
	GetChat(config tgbotapi.ChatConfig) (tgbotapi.Chat, error)
	GetMe() (tgbotapi.User, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// newBotAPI is a test seam. NewBotAPIWithClient validates the token with a
// getMe round trip.
var newBotAPI = func(token string, client *http.Client, debug bool) (botAPI, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, client)
	if err != nil {
		return nil, err
	}
	api.Debug = debug
	return api, nil
}

// Dialer opens Clients for bot tokens.
type Dialer struct {
	Timeout time.Duration // per-request HTTP timeout
	Debug   bool          // log raw API traffic (library logger)
}

// NewDialer returns a Dialer with the given per-request timeout.
func NewDialer(timeout time.Duration, debug bool) *Dialer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dialer{Timeout: timeout, Debug: debug}
}

// Dial connects to the Bot API with token. It fails when the token is rejected
// or the API is unreachable.
func (d *Dialer) Dial(ctx context.Context, token string) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEmptyToken
	}
	var api botAPI
	err := call(ctx, func() error {
		var err error
		api, err = newBotAPI(token, &http.Client{Timeout: d.Timeout}, d.Debug)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "telegram.Dial")
	}
	return &Client{api: api}, nil
}

// Client is a connected Bot API session for one token.
type Client struct {
	api botAPI
}

// GetChatInfo fetches the authoritative metadata of a chat.
func (c *Client) GetChatInfo(ctx context.Context, chatID domain.ChatID) (domain.ChatInfo, error) {
	cfg, err := chatConfig(chatID)
	if err != nil {
		return domain.ChatInfo{}, err
	}
	var chat tgbotapi.Chat
	err = call(ctx, func() error {
		var err error
		chat, err = c.api.GetChat(cfg)
		return err
	})
	if err != nil {
		return domain.ChatInfo{}, errors.Wrapf(err, "telegram.GetChat[%s]", chatID)
	}
	return domain.ChatInfo{
		Title:     chat.Title,
		Username:  chat.UserName,
		FirstName: chat.FirstName,
		Type:      domain.ChatType(chat.Type),
	}, nil
}

// GetMe returns the identity of the bot behind the token.
func (c *Client) GetMe(ctx context.Context) (domain.BotInfo, error) {
	var u tgbotapi.User
	err := call(ctx, func() error {
		var err error
		u, err = c.api.GetMe()
		return err
	})
	if err != nil {
		return domain.BotInfo{}, errors.Wrap(err, "telegram.GetMe")
	}
	return domain.BotInfo{ID: int64(u.ID), Username: u.UserName, FirstName: u.FirstName, IsBot: u.IsBot}, nil
}

// SendText sends a plain text message to chatID.
func (c *Client) SendText(ctx context.Context, chatID domain.ChatID, text string) (domain.SentMessage, error) {
	var msg tgbotapi.MessageConfig
	id := strings.TrimSpace(string(chatID))
	if n, err := chatID.Int64(); err == nil {
		msg = tgbotapi.NewMessage(n, text)
	} else if strings.HasPrefix(id, "@") {
		msg = tgbotapi.NewMessageToChannel(id, text)
	} else {
		return domain.SentMessage{}, ErrBadChatID
	}

	var sent tgbotapi.Message
	err := call(ctx, func() error {
		var err error
		sent, err = c.api.Send(msg)
		return err
	})
	if err != nil {
		return domain.SentMessage{}, errors.Wrapf(err, "telegram.Send[%s]", chatID)
	}
	out := domain.SentMessage{MessageID: sent.MessageID, ChatID: chatID}
	if sent.Chat != nil {
		out.ChatID = domain.ChatID(strconv.FormatInt(sent.Chat.ID, 10))
	}
	return out, nil
}

// GetUpdates long-polls for updates starting at offset, waiting up to
// timeout seconds.
func (c *Client) GetUpdates(ctx context.Context, offset, timeout int) ([]tgbotapi.Update, error) {
	var updates []tgbotapi.Update
	err := call(ctx, func() error {
		var err error
		updates, err = c.api.GetUpdates(tgbotapi.UpdateConfig{Offset: offset, Timeout: timeout})
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "telegram.GetUpdates")
	}
	return updates, nil
}

// Reply sends text to the chat of an incoming message.
func (c *Client) Reply(ctx context.Context, chatID int64, text string) error {
	return call(ctx, func() error {
		_, err := c.api.Send(tgbotapi.NewMessage(chatID, text))
		return errors.Wrapf(err, "telegram.Send[%d]", chatID)
	})
}

func chatConfig(chatID domain.ChatID) (tgbotapi.ChatConfig, error) {
	if n, err := chatID.Int64(); err == nil {
		return tgbotapi.ChatConfig{ChatID: n}, nil
	}
	if s := strings.TrimSpace(string(chatID)); strings.HasPrefix(s, "@") {
		return tgbotapi.ChatConfig{SuperGroupUsername: s}, nil
	}
	return tgbotapi.ChatConfig{}, ErrBadChatID
}

// call runs fn and returns its error, or ctx.Err() if ctx ends first.
func call(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
