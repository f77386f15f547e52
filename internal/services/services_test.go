package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/repo"
	"github.com/tbourn/go-telegram-gateway/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), store.NewFileBackend(filepath.Join(t.TempDir(), "gateway.json")))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// ----- Fake relay -----

type fakeClient struct {
	chats   map[domain.ChatID]domain.ChatInfo
	me      domain.BotInfo
	meErr   error
	sendErr error

	mu      sync.Mutex
	lookups []domain.ChatID
	sent    []string
}

func (c *fakeClient) GetChatInfo(_ context.Context, id domain.ChatID) (domain.ChatInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups = append(c.lookups, id)
	info, ok := c.chats[id]
	if !ok {
		return domain.ChatInfo{}, errors.New("Bad Request: chat not found")
	}
	return info, nil
}

func (c *fakeClient) GetMe(context.Context) (domain.BotInfo, error) { return c.me, c.meErr }

func (c *fakeClient) SendText(_ context.Context, id domain.ChatID, text string) (domain.SentMessage, error) {
	if c.sendErr != nil {
		return domain.SentMessage{}, c.sendErr
	}
	c.mu.Lock()
	c.sent = append(c.sent, text)
	c.mu.Unlock()
	return domain.SentMessage{MessageID: 10, ChatID: id}, nil
}

type fakeRelay struct {
	client  *fakeClient
	dialErr error
	dials   int
	tokens  []string
}

func (r *fakeRelay) Dial(_ context.Context, token string) (RelayClient, error) {
	r.dials++
	r.tokens = append(r.tokens, token)
	if r.dialErr != nil {
		return nil, r.dialErr
	}
	return r.client, nil
}

type recordingPublisher struct {
	logged []domain.MessageLog
	synced []domain.SyncResult
}

func (p *recordingPublisher) PublishMessageLogged(_ context.Context, e domain.MessageLog) error {
	p.logged = append(p.logged, e)
	return nil
}

func (p *recordingPublisher) PublishChatsSynced(_ context.Context, _ domain.ID, r domain.SyncResult) error {
	p.synced = append(p.synced, r)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// ----- helpers -----

func seedToken(t *testing.T, st *store.Store) *domain.BotToken {
	t.Helper()
	bt, err := repo.CreateBotToken(context.Background(), st, "main", "123:secret", nil, true)
	if err != nil {
		t.Fatalf("CreateBotToken: %v", err)
	}
	return bt
}

func seedLog(t *testing.T, st *store.Store, tok domain.ID, chat domain.ChatID, user string) {
	t.Helper()
	if _, err := repo.CreateMessageLog(context.Background(), st, domain.NewMessageLog{
		BotTokenID:  tok.Ptr(),
		ChatID:      chat,
		Username:    domain.StringPtr(user),
		MessageType: domain.MessageTypeText,
		Direction:   domain.DirectionIncoming,
	}); err != nil {
		t.Fatalf("CreateMessageLog: %v", err)
	}
}

// ----- BotTokenService -----

func TestBotTokenService_Validation(t *testing.T) {
	st := newTestStore(t)
	svc := NewBotTokenService(st)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "  ", "t", nil, true); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
	if _, err := svc.Create(ctx, "a", "", nil, true); !errors.Is(err, ErrTokenRequired) {
		t.Fatalf("expected ErrTokenRequired, got %v", err)
	}
	a, err := svc.Create(ctx, " a ", "t1", nil, true)
	if err != nil || a.Name != "a" {
		t.Fatalf("Create: %+v %v", a, err)
	}
	b, _ := svc.Create(ctx, "b", "t2", nil, true)
	if _, err := svc.Create(ctx, "a", "t3", nil, true); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}

	same := "a"
	if _, err := svc.Update(ctx, a.ID, domain.BotTokenPatch{Name: &same}); err != nil {
		t.Fatalf("renaming to own name should pass: %v", err)
	}
	if _, err := svc.Update(ctx, b.ID, domain.BotTokenPatch{Name: &same}); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
	if _, err := svc.Update(ctx, 99, domain.BotTokenPatch{}); !errors.Is(err, ErrBotTokenNotFound) {
		t.Fatalf("expected ErrBotTokenNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, 99); !errors.Is(err, ErrBotTokenNotFound) {
		t.Fatalf("expected ErrBotTokenNotFound, got %v", err)
	}
	if _, err := svc.Get(ctx, 99); !errors.Is(err, ErrBotTokenNotFound) {
		t.Fatalf("expected ErrBotTokenNotFound, got %v", err)
	}
}

// slowBackend stretches every load so concurrent callers overlap.
type slowBackend struct {
	*store.FileBackend
	delay time.Duration
}

func (b slowBackend) Load(ctx context.Context) (*domain.Document, bool, error) {
	time.Sleep(b.delay)
	return b.FileBackend.Load(ctx)
}

func TestBotTokenService_ConcurrentCreateSameName(t *testing.T) {
	st, err := store.Open(context.Background(), slowBackend{
		FileBackend: store.NewFileBackend(filepath.Join(t.TempDir(), "gateway.json")),
		delay:       5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	svc := NewBotTokenService(st)

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), "main", fmt.Sprintf("tok-%d", i), nil, true)
		}(i)
	}
	wg.Wait()

	created, taken := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrNameTaken):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 1 || taken != n-1 {
		t.Fatalf("created=%d taken=%d", created, taken)
	}
	all, _ := svc.List(context.Background())
	if len(all) != 1 {
		t.Fatalf("expected one stored credential, got %d", len(all))
	}
}

func TestBotTokenService_ConcurrentRenameOntoSameName(t *testing.T) {
	st := newTestStore(t)
	svc := NewBotTokenService(st)
	ctx := context.Background()
	a, _ := svc.Create(ctx, "a", "t1", nil, true)
	b, _ := svc.Create(ctx, "b", "t2", nil, true)

	target := "shared"
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []domain.ID{a.ID, b.ID} {
		wg.Add(1)
		go func(i int, id domain.ID) {
			defer wg.Done()
			_, errs[i] = svc.Update(ctx, id, domain.BotTokenPatch{Name: &target})
		}(i, id)
	}
	wg.Wait()

	if (errs[0] == nil) == (errs[1] == nil) {
		t.Fatalf("exactly one rename should win: %v / %v", errs[0], errs[1])
	}
	for _, err := range errs {
		if err != nil && !errors.Is(err, ErrNameTaken) {
			t.Fatalf("expected ErrNameTaken, got %v", err)
		}
	}
}

// ----- SettingService -----

func TestSettingService(t *testing.T) {
	st := newTestStore(t)
	svc := NewSettingService(st)
	ctx := context.Background()

	if _, err := svc.Create(ctx, " ", "v", nil); !errors.Is(err, ErrKeyRequired) {
		t.Fatalf("expected ErrKeyRequired, got %v", err)
	}
	if _, err := svc.Create(ctx, "welcome_message", "Hi {name}", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "welcome_message", "again", nil); !errors.Is(err, ErrSettingExists) {
		t.Fatalf("expected ErrSettingExists, got %v", err)
	}
	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, ErrSettingNotFound) {
		t.Fatalf("expected ErrSettingNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, "missing"); !errors.Is(err, ErrSettingNotFound) {
		t.Fatalf("expected ErrSettingNotFound, got %v", err)
	}
}

// ----- LogService -----

func TestLogService_RecordPublishesAndScopes(t *testing.T) {
	st := newTestStore(t)
	pub := &recordingPublisher{}
	svc := NewLogService(st, pub)
	ctx := context.Background()
	bt := seedToken(t, st)

	if _, err := svc.Record(ctx, domain.NewMessageLog{BotTokenID: bt.ID.Ptr(), ChatID: "1", MessageType: domain.MessageTypeText, Direction: domain.DirectionIncoming}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(pub.logged) != 1 || pub.logged[0].ID != 1 {
		t.Fatalf("expected one published log, got %+v", pub.logged)
	}

	logs, err := svc.ListForBotToken(ctx, bt.ID, 0)
	if err != nil || len(logs) != 1 {
		t.Fatalf("ListForBotToken: %v %v", logs, err)
	}
	if _, err := svc.ListForBotToken(ctx, 42, 0); !errors.Is(err, ErrBotTokenNotFound) {
		t.Fatalf("expected ErrBotTokenNotFound, got %v", err)
	}
	stats, _ := svc.Stats(ctx)
	if stats.TotalLogs != 1 || stats.ActiveTokens != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

// ----- MessengerService -----

func TestMessengerService_SendTest(t *testing.T) {
	st := newTestStore(t)
	pub := &recordingPublisher{}
	client := &fakeClient{chats: map[domain.ChatID]domain.ChatInfo{
		"-500": {Title: "Team", Type: domain.ChatTypeGroup},
	}}
	relay := &fakeRelay{client: client}
	svc := NewMessengerService(st, relay, NewLogService(st, pub))
	ctx := context.Background()
	bt := seedToken(t, st)

	if _, err := svc.SendTest(ctx, bt.ID, " ", "hi"); !errors.Is(err, ErrChatIDRequired) {
		t.Fatalf("expected ErrChatIDRequired, got %v", err)
	}
	if _, err := svc.SendTest(ctx, bt.ID, "-500", ""); !errors.Is(err, ErrMessageRequired) {
		t.Fatalf("expected ErrMessageRequired, got %v", err)
	}
	if _, err := svc.SendTest(ctx, 77, "-500", "hi"); !errors.Is(err, ErrBotTokenNotFound) {
		t.Fatalf("expected ErrBotTokenNotFound, got %v", err)
	}

	sent, err := svc.SendTest(ctx, bt.ID, "-500", "hello")
	if err != nil {
		t.Fatalf("SendTest: %v", err)
	}
	if sent.MessageID != 10 || relay.tokens[0] != "123:secret" {
		t.Fatalf("unexpected send: %+v tokens=%v", sent, relay.tokens)
	}

	c, err := repo.GetChatByChatID(ctx, st, "-500", &bt.ID)
	if err != nil || domain.Deref(c.Title) != "Team" || c.Type != domain.ChatTypeGroup {
		t.Fatalf("chat not refreshed: %+v %v", c, err)
	}
	logs, _ := repo.ListMessageLogs(ctx, st, 0, &bt.ID)
	if len(logs) != 1 || logs[0].Direction != domain.DirectionOutgoing || domain.Deref(logs[0].MessageContent) != "hello" {
		t.Fatalf("outgoing log missing: %+v", logs)
	}
	if len(pub.logged) != 1 {
		t.Fatalf("log not published")
	}
}

func TestMessengerService_SendFailure(t *testing.T) {
	st := newTestStore(t)
	relay := &fakeRelay{client: &fakeClient{sendErr: errors.New("Forbidden: bot was blocked by the user")}}
	svc := NewMessengerService(st, relay, NewLogService(st, nil))
	bt := seedToken(t, st)

	_, err := svc.SendTest(context.Background(), bt.ID, "111", "hi")
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("expected ErrSendFailed, got %v", err)
	}
	if n, _ := repo.CountMessageLogs(context.Background(), st); n != 0 {
		t.Fatalf("failed send was logged")
	}
}

func TestMessengerService_BotInfo(t *testing.T) {
	st := newTestStore(t)
	bt := seedToken(t, st)

	online := NewMessengerService(st, &fakeRelay{client: &fakeClient{me: domain.BotInfo{ID: 1, Username: "gw_bot", IsBot: true}}}, nil)
	s, err := online.BotInfo(context.Background(), bt.ID)
	if err != nil || !s.IsOnline || s.Bot.Username != "gw_bot" {
		t.Fatalf("online: %+v %v", s, err)
	}

	offline := NewMessengerService(st, &fakeRelay{dialErr: fmt.Errorf("Unauthorized")}, nil)
	s, err = offline.BotInfo(context.Background(), bt.ID)
	if err != nil || s.IsOnline || s.Error != "Unauthorized" {
		t.Fatalf("offline: %+v %v", s, err)
	}

	if _, err := offline.BotInfo(context.Background(), 99); !errors.Is(err, ErrBotTokenNotFound) {
		t.Fatalf("expected ErrBotTokenNotFound, got %v", err)
	}
}
