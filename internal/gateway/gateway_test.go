package gateway

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/repo"
	"github.com/tbourn/go-telegram-gateway/internal/services"
	"github.com/tbourn/go-telegram-gateway/internal/store"
)

type fakeBot struct {
	mu      sync.Mutex
	replies []string
	batches [][]tgbotapi.Update
	offsets []int
}

func (b *fakeBot) GetUpdates(ctx context.Context, offset, _ int) ([]tgbotapi.Update, error) {
	b.mu.Lock()
	b.offsets = append(b.offsets, offset)
	if len(b.batches) > 0 {
		next := b.batches[0]
		b.batches = b.batches[1:]
		b.mu.Unlock()
		return next, nil
	}
	b.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b *fakeBot) Reply(_ context.Context, _ int64, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies = append(b.replies, text)
	return nil
}

func newGateway(t *testing.T) (*Gateway, *fakeBot, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), store.NewFileBackend(filepath.Join(t.TempDir(), "gateway.json")))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	bot := &fakeBot{}
	g := New(st, services.NewLogService(st, nil), func(context.Context, string) (Bot, error) { return bot, nil }, 0)
	g.bot, g.tokenID = bot, 1
	return g, bot, st
}

func textMsg(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: 7, UserName: "alice", FirstName: "Alice"},
		Chat:      &tgbotapi.Chat{ID: chatID, Type: "private", FirstName: "Alice", UserName: "alice"},
		Text:      text,
	}
}

func TestHandle_StartUsesWelcomeSetting(t *testing.T) {
	g, bot, st := newGateway(t)
	ctx := context.Background()

	if _, err := repo.CreateSetting(ctx, st, services.SettingWelcomeMessage, "Hi {name}, welcome!", nil); err != nil {
		t.Fatal(err)
	}
	if err := g.Handle(ctx, textMsg(111, "/start")); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(bot.replies) != 1 || bot.replies[0] != "Hi Alice, welcome!" {
		t.Fatalf("replies = %q", bot.replies)
	}

	logs, _ := repo.ListMessageLogs(ctx, st, 0, nil)
	if len(logs) != 1 || logs[0].MessageType != domain.MessageTypeCommand || domain.Deref(logs[0].MessageContent) != "/start" {
		t.Fatalf("unexpected logs: %+v", logs)
	}
	if domain.Deref(logs[0].UserID) != "7" || domain.Deref(logs[0].Username) != "alice" {
		t.Fatalf("user fields: %+v", logs[0])
	}
	c, err := repo.GetChatByChatID(ctx, st, "111", nil)
	if err != nil || domain.Deref(c.FirstName) != "Alice" || c.Type != domain.ChatTypePrivate {
		t.Fatalf("chat not saved: %+v %v", c, err)
	}
}

func TestHandle_HelpStatusAndForeignCommands(t *testing.T) {
	g, bot, st := newGateway(t)
	ctx := context.Background()

	_ = g.Handle(ctx, textMsg(1, "/help"))
	_ = g.Handle(ctx, textMsg(1, "/status@gw_bot"))
	_ = g.Handle(ctx, textMsg(1, "/unknown"))

	if len(bot.replies) != 2 || bot.replies[0] != helpText || bot.replies[1] != statusText {
		t.Fatalf("replies = %q", bot.replies)
	}
	if n, _ := repo.CountMessageLogs(ctx, st); n != 2 {
		t.Fatalf("logged %d; want 2", n)
	}
}

func TestHandle_TextDefaultResponse(t *testing.T) {
	g, bot, st := newGateway(t)
	ctx := context.Background()

	if err := g.Handle(ctx, textMsg(-500, "ping")); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(bot.replies) != 1 || !strings.Contains(bot.replies[0], "You sent: ping") || !strings.Contains(bot.replies[0], "Chat ID: -500") {
		t.Fatalf("replies = %q", bot.replies)
	}

	_, _ = repo.CreateSetting(ctx, st, services.SettingDefaultResponse, "{chat_id} said {message}", nil)
	_ = g.Handle(ctx, textMsg(-500, "pong"))
	if bot.replies[1] != "-500 said pong" {
		t.Fatalf("templated reply = %q", bot.replies[1])
	}

	logs, _ := repo.ListMessageLogs(ctx, st, 0, nil)
	if len(logs) != 4 {
		t.Fatalf("expected incoming+outgoing per message, got %d", len(logs))
	}
	if logs[0].Direction != domain.DirectionOutgoing || logs[1].Direction != domain.DirectionIncoming {
		t.Fatalf("unexpected directions: %+v", logs[:2])
	}
}

func TestHandle_PhotoAndDocument(t *testing.T) {
	g, bot, st := newGateway(t)
	ctx := context.Background()

	photo := textMsg(1, "")
	photo.Photo = &[]tgbotapi.PhotoSize{
		{FileID: "small", Width: 90, Height: 90},
		{FileID: "big", Width: 800, Height: 600},
	}
	if err := g.Handle(ctx, photo); err != nil {
		t.Fatalf("photo: %v", err)
	}
	doc := textMsg(1, "")
	doc.Document = &tgbotapi.Document{FileID: "d1", FileName: "report.pdf", MimeType: "application/pdf", FileSize: 2048}
	if err := g.Handle(ctx, doc); err != nil {
		t.Fatalf("document: %v", err)
	}

	if !strings.Contains(bot.replies[0], "File ID: big") || !strings.Contains(bot.replies[0], "800x600") {
		t.Fatalf("photo reply = %q", bot.replies[0])
	}
	if !strings.Contains(bot.replies[1], "report.pdf") || !strings.Contains(bot.replies[1], "2048 bytes") {
		t.Fatalf("document reply = %q", bot.replies[1])
	}

	logs, _ := repo.ListMessageLogs(ctx, st, 0, nil)
	var contents []string
	for _, l := range logs {
		if l.Direction == domain.DirectionIncoming {
			contents = append(contents, string(l.MessageType)+"="+domain.Deref(l.MessageContent))
		}
	}
	if strings.Join(contents, ";") != "document=Document: report.pdf;photo=Photo: big" {
		t.Fatalf("incoming logs = %v", contents)
	}
}

func TestRun_NoActiveToken(t *testing.T) {
	g, _, st := newGateway(t)
	_, _ = repo.CreateBotToken(context.Background(), st, "off", "t", nil, false)
	if err := g.Run(context.Background()); !errors.Is(err, ErrNoActiveBotToken) {
		t.Fatalf("expected ErrNoActiveBotToken, got %v", err)
	}
}

func TestRun_PollsAndAdvancesOffset(t *testing.T) {
	g, bot, st := newGateway(t)
	_, _ = repo.CreateBotToken(context.Background(), st, "main", "t", nil, true)
	bot.batches = [][]tgbotapi.Update{
		{{UpdateID: 10, Message: textMsg(1, "/help")}, {UpdateID: 11}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		bot.mu.Lock()
		n := len(bot.offsets)
		bot.mu.Unlock()
		if n >= 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	bot.mu.Lock()
	defer bot.mu.Unlock()
	if len(bot.offsets) < 2 || bot.offsets[0] != 0 || bot.offsets[1] != 12 {
		t.Fatalf("offsets = %v; want [0 12 ...]", bot.offsets)
	}
	if len(bot.replies) != 1 {
		t.Fatalf("replies = %q", bot.replies)
	}
}
