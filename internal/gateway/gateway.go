// Package gateway runs the Telegram bot side of the service: it long-polls
// updates for the first active bot token, answers commands, text, photos and
// documents, and records every exchange in the traffic log.
//
// Replies use the "welcome_message" and "default_response" settings when set.
// Placeholders: {name} in the welcome message, {message} and {chat_id} in the
// default response.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/repo"
	"github.com/tbourn/go-telegram-gateway/internal/services"
	"github.com/tbourn/go-telegram-gateway/internal/store"
)

// ErrNoActiveBotToken is returned by Run when no bot token is active.
var ErrNoActiveBotToken = errors.New("no active bot token")

const (
	defaultWelcome = "Hello {name}! 👋\n\n" +
		"Welcome to Telegram Gateway!\n" +
		"I can send and receive messages for you.\n\n" +
		"Use /help to see the available commands."

	helpText = "📋 Commands:\n\n" +
		"/start - Start the bot\n" +
		"/help - Show this help\n" +
		"/status - Check gateway status\n\n" +
		"💬 Features:\n" +
		"- Send a text message and I will reply\n" +
		"- Send a photo and I will process it\n" +
		"- Send a document and I will process it"

	statusText = "✅ Gateway status: active\n" +
		"🤖 Bot is running\n" +
		"📡 Ready to send and receive messages"
)

// Bot is the platform session used by the gateway.
type Bot interface {
	GetUpdates(ctx context.Context, offset, timeout int) ([]tgbotapi.Update, error)
	Reply(ctx context.Context, chatID int64, text string) error
}

// DialFunc opens a Bot for a token.
type DialFunc func(ctx context.Context, token string) (Bot, error)

// Gateway polls and answers updates for one bot token.
type Gateway struct {
	Store *store.Store
	Logs  *services.LogService
	Dial  DialFunc

	// PollTimeout is the long-poll wait in seconds.
	PollTimeout int
	// RetryDelay is the pause after a failed poll.
	RetryDelay time.Duration

	tokenID domain.ID
	bot     Bot
}

// New constructs a Gateway.
func New(st *store.Store, logs *services.LogService, dial DialFunc, pollTimeout int) *Gateway {
	if pollTimeout < 0 {
		pollTimeout = 0
	}
	return &Gateway{Store: st, Logs: logs, Dial: dial, PollTimeout: pollTimeout, RetryDelay: 3 * time.Second}
}

// Run selects the first active bot token, connects and polls until ctx is
// done. Poll and handler failures are logged and polling continues.
func (g *Gateway) Run(ctx context.Context) error {
	active, err := repo.ListActiveBotTokens(ctx, g.Store)
	if err != nil {
		return err
	}
	if len(active) == 0 {
		return ErrNoActiveBotToken
	}
	tok := active[0]

	bot, err := g.Dial(ctx, tok.Token)
	if err != nil {
		return fmt.Errorf("connect bot %q: %w", tok.Name, err)
	}
	g.bot, g.tokenID = bot, tok.ID
	log.Info().Str("name", tok.Name).Int64("bot_token_id", int64(tok.ID)).Msg("gateway started")

	offset := 0
	for {
		if ctx.Err() != nil {
			log.Info().Msg("gateway stopped")
			return nil
		}
		updates, err := g.bot.GetUpdates(ctx, offset, g.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Msg("polling error")
			select {
			case <-ctx.Done():
			case <-time.After(g.RetryDelay):
			}
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			if u.Message == nil {
				continue
			}
			if err := g.Handle(ctx, u.Message); err != nil {
				log.Error().Err(err).Int("update_id", u.UpdateID).Msg("handle update failed")
			}
		}
	}
}

// Handle answers one incoming message.
func (g *Gateway) Handle(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.Chat == nil {
		return nil
	}
	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "/") {
		return g.handleCommand(ctx, msg, commandOf(text))
	}

	g.saveChat(ctx, msg)

	if msg.Text != "" {
		if err := g.handleText(ctx, msg); err != nil {
			return err
		}
	}
	if msg.Photo != nil && len(*msg.Photo) > 0 {
		if err := g.handlePhoto(ctx, msg); err != nil {
			return err
		}
	}
	if msg.Document != nil {
		if err := g.handleDocument(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gateway) handleCommand(ctx context.Context, msg *tgbotapi.Message, cmd string) error {
	var reply string
	switch cmd {
	case "start":
		welcome, err := repo.GetSettingValue(ctx, g.Store, services.SettingWelcomeMessage, defaultWelcome)
		if err != nil {
			return err
		}
		reply = strings.ReplaceAll(welcome, "{name}", firstName(msg.From))
		log.Info().Str("user_id", userID(msg.From)).Str("username", userName(msg.From)).Msg("user started the bot")
	case "help":
		reply = helpText
	case "status":
		reply = statusText
	default:
		// Possibly meant for another bot in the group.
		return nil
	}

	if err := g.bot.Reply(ctx, msg.Chat.ID, reply); err != nil {
		return err
	}
	g.saveChat(ctx, msg)
	return g.record(ctx, msg, domain.MessageTypeCommand, "/"+cmd, domain.DirectionIncoming)
}

func (g *Gateway) handleText(ctx context.Context, msg *tgbotapi.Message) error {
	log.Info().Str("user_id", userID(msg.From)).Str("username", userName(msg.From)).Msg("text message received")
	if err := g.record(ctx, msg, domain.MessageTypeText, msg.Text, domain.DirectionIncoming); err != nil {
		return err
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	def := "✅ Message received!\n\nYou sent: {message}\n\nChat ID: {chat_id}"
	tmpl, err := repo.GetSettingValue(ctx, g.Store, services.SettingDefaultResponse, def)
	if err != nil {
		return err
	}
	reply := strings.NewReplacer("{message}", msg.Text, "{chat_id}", chatID).Replace(tmpl)
	return g.respond(ctx, msg, reply)
}

func (g *Gateway) handlePhoto(ctx context.Context, msg *tgbotapi.Message) error {
	photos := *msg.Photo
	photo := photos[len(photos)-1] // largest size comes last
	log.Info().Str("user_id", userID(msg.From)).Msg("photo received")

	if err := g.record(ctx, msg, domain.MessageTypePhoto, "Photo: "+photo.FileID, domain.DirectionIncoming); err != nil {
		return err
	}
	reply := fmt.Sprintf("📷 Photo received!\nFile ID: %s\nSize: %dx%d", photo.FileID, photo.Width, photo.Height)
	return g.respond(ctx, msg, reply)
}

func (g *Gateway) handleDocument(ctx context.Context, msg *tgbotapi.Message) error {
	doc := msg.Document
	log.Info().Str("user_id", userID(msg.From)).Str("file_name", doc.FileName).Msg("document received")

	if err := g.record(ctx, msg, domain.MessageTypeDocument, "Document: "+doc.FileName, domain.DirectionIncoming); err != nil {
		return err
	}
	reply := fmt.Sprintf("📄 Document received!\nFile name: %s\nType: %s\nSize: %d bytes", doc.FileName, doc.MimeType, doc.FileSize)
	return g.respond(ctx, msg, reply)
}

// respond sends reply and logs it as outgoing text.
func (g *Gateway) respond(ctx context.Context, msg *tgbotapi.Message, reply string) error {
	if err := g.bot.Reply(ctx, msg.Chat.ID, reply); err != nil {
		return err
	}
	return g.record(ctx, msg, domain.MessageTypeText, reply, domain.DirectionOutgoing)
}

func (g *Gateway) record(ctx context.Context, msg *tgbotapi.Message, typ domain.MessageType, content string, dir domain.Direction) error {
	_, err := g.Logs.Record(ctx, domain.NewMessageLog{
		BotTokenID:     g.tokenID.Ptr(),
		ChatID:         domain.ChatID(strconv.FormatInt(msg.Chat.ID, 10)),
		UserID:         domain.StringPtr(userID(msg.From)),
		Username:       domain.StringPtr(userName(msg.From)),
		MessageType:    typ,
		MessageContent: &content,
		Direction:      dir,
	})
	return err
}

// saveChat refreshes the chat identity from the message. Failures are logged
// only.
func (g *Gateway) saveChat(ctx context.Context, msg *tgbotapi.Message) {
	c := msg.Chat
	now := time.Now().UTC()
	up := domain.ChatUpsert{
		BotTokenID:    g.tokenID,
		ChatID:        domain.ChatID(strconv.FormatInt(c.ID, 10)),
		Title:         domain.StringPtr(c.Title),
		Username:      domain.StringPtr(c.UserName),
		FirstName:     domain.StringPtr(c.FirstName),
		LastMessageAt: &now,
	}
	if c.Type != "" {
		t := domain.ChatType(c.Type)
		up.Type = &t
	}
	if _, err := repo.UpsertChat(ctx, g.Store, up); err != nil {
		log.Error().Err(err).Int64("chat_id", c.ID).Msg("saving chat info failed")
	}
}

// commandOf extracts "start" from "/start@my_bot arg".
func commandOf(text string) string {
	cmd := strings.TrimPrefix(strings.Fields(text)[0], "/")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}

func userID(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return strconv.Itoa(u.ID)
}

func userName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return u.UserName
}

func firstName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return u.FirstName
}
