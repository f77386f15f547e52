package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/repo"
	"github.com/tbourn/go-telegram-gateway/internal/services"
	"github.com/tbourn/go-telegram-gateway/internal/store"
)

// ---------- fake platform ----------

type fakeClient struct {
	chats   map[domain.ChatID]domain.ChatInfo
	sendErr error
}

func (f *fakeClient) GetChatInfo(_ context.Context, id domain.ChatID) (domain.ChatInfo, error) {
	if info, ok := f.chats[id]; ok {
		return info, nil
	}
	return domain.ChatInfo{}, errors.New("Bad Request: chat not found")
}

func (f *fakeClient) GetMe(context.Context) (domain.BotInfo, error) {
	return domain.BotInfo{ID: 99, Username: "gw_bot", IsBot: true}, nil
}

func (f *fakeClient) SendText(_ context.Context, id domain.ChatID, _ string) (domain.SentMessage, error) {
	if f.sendErr != nil {
		return domain.SentMessage{}, f.sendErr
	}
	return domain.SentMessage{MessageID: 5, ChatID: id}, nil
}

// ---------- test server ----------

type testEnv struct {
	st     *store.Store
	client *fakeClient
	r      *gin.Engine
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(context.Background(), store.NewFileBackend(filepath.Join(t.TempDir(), "gateway.json")))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	client := &fakeClient{chats: map[domain.ChatID]domain.ChatInfo{}}
	relay := services.RelayFunc(func(context.Context, string) (services.RelayClient, error) { return client, nil })
	logs := services.NewLogService(st, nil)

	h := New(Services{
		Tokens:    services.NewBotTokenService(st),
		Settings:  services.NewSettingService(st),
		Logs:      logs,
		Chats:     services.NewChatReconciler(st, relay, nil, 0),
		Messenger: services.NewMessengerService(st, relay, logs),
	})

	r := gin.New()
	api := r.Group("/api")
	api.GET("/tokens", h.ListTokens)
	api.POST("/tokens", h.CreateToken)
	api.GET("/tokens/:id", h.GetToken)
	api.PUT("/tokens/:id", h.UpdateToken)
	api.DELETE("/tokens/:id", h.DeleteToken)
	api.GET("/tokens/:id/logs", h.ListTokenLogs)
	api.GET("/tokens/:id/info", h.BotInfo)
	api.GET("/tokens/:id/chats", h.ListChats)
	api.POST("/tokens/:id/chats/refresh", h.RefreshChats)
	api.POST("/tokens/:id/send", h.SendMessage)
	api.GET("/settings", h.ListSettings)
	api.POST("/settings", h.CreateSetting)
	api.GET("/settings/:key", h.GetSetting)
	api.PUT("/settings/:key", h.UpdateSetting)
	api.DELETE("/settings/:key", h.DeleteSetting)
	api.GET("/logs", h.ListLogs)
	api.GET("/stats", h.Stats)

	return &testEnv{st: st, client: client, r: r}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v (body=%s)", err, w.Body.String())
	}
	return v
}

func expectCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status=%d want %d body=%s", w.Code, status, w.Body.String())
	}
	if code == "" {
		return
	}
	if er := decode[ErrorResponse](t, w); er.Code != code {
		t.Fatalf("code=%q want %q", er.Code, code)
	}
}

// ---------- tokens ----------

func TestTokens_CRUDAndMasking(t *testing.T) {
	e := newEnv(t)
	const secret = "123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw"

	w := e.do(t, http.MethodPost, "/api/tokens", map[string]any{"name": "main", "token": secret})
	expectCode(t, w, http.StatusCreated, "")
	created := decode[domain.BotToken](t, w)
	if created.ID != 1 || !created.IsActive {
		t.Fatalf("unexpected token: %+v", created)
	}

	w = e.do(t, http.MethodGet, "/api/tokens", nil)
	expectCode(t, w, http.StatusOK, "")
	list := decode[[]map[string]any](t, w)
	if len(list) != 1 || list[0]["token"] != "123456789:..." || list[0]["full_token"] != secret {
		t.Fatalf("masking: %+v", list)
	}

	w = e.do(t, http.MethodGet, "/api/tokens/1", nil)
	one := decode[map[string]any](t, w)
	if one["token"] != "123456789:..." || one["name"] != "main" {
		t.Fatalf("get: %+v", one)
	}

	w = e.do(t, http.MethodPut, "/api/tokens/1", map[string]any{"is_active": false})
	expectCode(t, w, http.StatusOK, "")
	if decode[domain.BotToken](t, w).IsActive {
		t.Fatalf("is_active not updated")
	}

	expectCode(t, e.do(t, http.MethodDelete, "/api/tokens/1", nil), http.StatusNoContent, "")
	expectCode(t, e.do(t, http.MethodGet, "/api/tokens/1", nil), http.StatusNotFound, ErrCodeNotFound)
}

func TestTokens_Errors(t *testing.T) {
	e := newEnv(t)

	expectCode(t, e.do(t, http.MethodPost, "/api/tokens", "{bad"), http.StatusBadRequest, ErrCodeBadRequest)
	expectCode(t, e.do(t, http.MethodPost, "/api/tokens", map[string]any{"name": "x"}), http.StatusBadRequest, ErrCodeBadRequest)
	expectCode(t, e.do(t, http.MethodPost, "/api/tokens", map[string]any{"name": "a", "token": "t"}), http.StatusCreated, "")
	expectCode(t, e.do(t, http.MethodPost, "/api/tokens", map[string]any{"name": "a", "token": "u"}), http.StatusConflict, ErrCodeConflict)
	expectCode(t, e.do(t, http.MethodGet, "/api/tokens/abc", nil), http.StatusBadRequest, ErrCodeBadRequest)
	expectCode(t, e.do(t, http.MethodPut, "/api/tokens/9", map[string]any{}), http.StatusNotFound, ErrCodeNotFound)
	expectCode(t, e.do(t, http.MethodDelete, "/api/tokens/9", nil), http.StatusNotFound, ErrCodeNotFound)
}

// ---------- settings ----------

func TestSettings_CRUD(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/settings", map[string]any{"key": "welcome_message", "value": "Hi {name}"})
	expectCode(t, w, http.StatusCreated, "")
	expectCode(t, e.do(t, http.MethodPost, "/api/settings", map[string]any{"key": "welcome_message", "value": "x"}), http.StatusConflict, ErrCodeConflict)
	expectCode(t, e.do(t, http.MethodPost, "/api/settings", map[string]any{"value": "x"}), http.StatusBadRequest, ErrCodeBadRequest)
	expectCode(t, e.do(t, http.MethodPost, "/api/settings", map[string]any{"key": "default_response", "value": "ok"}), http.StatusCreated, "")

	w = e.do(t, http.MethodGet, "/api/settings", nil)
	keys := decode[[]domain.Setting](t, w)
	if len(keys) != 2 || keys[0].Key != "default_response" || keys[1].Key != "welcome_message" {
		t.Fatalf("unexpected order: %+v", keys)
	}

	w = e.do(t, http.MethodPut, "/api/settings/welcome_message", map[string]any{"value": "Hello {name}"})
	expectCode(t, w, http.StatusOK, "")
	if decode[domain.Setting](t, w).Value != "Hello {name}" {
		t.Fatalf("value not updated")
	}
	w = e.do(t, http.MethodGet, "/api/settings/welcome_message", nil)
	if decode[domain.Setting](t, w).Value != "Hello {name}" {
		t.Fatalf("get after update")
	}

	expectCode(t, e.do(t, http.MethodDelete, "/api/settings/welcome_message", nil), http.StatusNoContent, "")
	expectCode(t, e.do(t, http.MethodGet, "/api/settings/welcome_message", nil), http.StatusNotFound, ErrCodeNotFound)
	expectCode(t, e.do(t, http.MethodPut, "/api/settings/nope", map[string]any{"value": "v"}), http.StatusNotFound, ErrCodeNotFound)
}

// ---------- logs & stats ----------

func TestLogs_FilterLimitAndStats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	bt, _ := repo.CreateBotToken(ctx, e.st, "main", "t", nil, true)
	for i := 0; i < 3; i++ {
		_, _ = repo.CreateMessageLog(ctx, e.st, domain.NewMessageLog{BotTokenID: bt.ID.Ptr(), ChatID: "1", MessageType: domain.MessageTypeText, Direction: domain.DirectionIncoming})
	}
	_, _ = repo.CreateMessageLog(ctx, e.st, domain.NewMessageLog{ChatID: "2", MessageType: domain.MessageTypeText, Direction: domain.DirectionIncoming})

	if got := decode[[]domain.MessageLog](t, e.do(t, http.MethodGet, "/api/logs", nil)); len(got) != 4 || got[0].ID != 4 {
		t.Fatalf("all logs: %+v", got)
	}
	if got := decode[[]domain.MessageLog](t, e.do(t, http.MethodGet, "/api/logs?limit=2&bot_token_id=1", nil)); len(got) != 2 || got[0].ID != 3 {
		t.Fatalf("filtered: %+v", got)
	}
	expectCode(t, e.do(t, http.MethodGet, "/api/logs?bot_token_id=x", nil), http.StatusBadRequest, ErrCodeBadRequest)

	if got := decode[[]domain.MessageLog](t, e.do(t, http.MethodGet, "/api/tokens/1/logs?limit=x", nil)); len(got) != 3 {
		t.Fatalf("token logs: %d", len(got))
	}
	expectCode(t, e.do(t, http.MethodGet, "/api/tokens/7/logs", nil), http.StatusNotFound, ErrCodeNotFound)

	s := decode[domain.Stats](t, e.do(t, http.MethodGet, "/api/stats", nil))
	if s.TotalTokens != 1 || s.ActiveTokens != 1 || s.TotalLogs != 4 || s.TotalSettings != 0 {
		t.Fatalf("stats: %+v", s)
	}
}

// ---------- platform endpoints ----------

func TestChats_ListRefreshInfo(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	bt, _ := repo.CreateBotToken(ctx, e.st, "main", "t", nil, true)
	for _, id := range []domain.ChatID{"111", "-500"} {
		_, _ = repo.CreateMessageLog(ctx, e.st, domain.NewMessageLog{BotTokenID: bt.ID.Ptr(), ChatID: id, MessageType: domain.MessageTypeText, Direction: domain.DirectionIncoming})
	}
	e.client.chats["111"] = domain.ChatInfo{FirstName: "Alice", Type: domain.ChatTypePrivate}

	w := e.do(t, http.MethodGet, "/api/tokens/1/chats", nil)
	expectCode(t, w, http.StatusOK, "")
	chats := decode[[]domain.ChatSummary](t, w)
	if len(chats) != 2 {
		t.Fatalf("chats: %+v", chats)
	}
	bySource := map[domain.TypeSource]domain.ChatSummary{}
	for _, c := range chats {
		bySource[c.Source] = c
	}
	if bySource[domain.SourceAuthoritative].Title != "Alice" || bySource[domain.SourceInferred].Type != domain.ChatTypeGroup {
		t.Fatalf("unexpected summaries: %+v", chats)
	}

	w = e.do(t, http.MethodPost, "/api/tokens/1/chats/refresh", nil)
	expectCode(t, w, http.StatusOK, "")
	res := decode[RefreshResponse](t, w)
	if !res.Success || res.SyncedCount != 1 || res.ErrorCount != 1 || res.TotalCandidates != 2 || len(res.ErrorDetails) != 1 {
		t.Fatalf("refresh: %+v", res)
	}

	info := decode[services.BotStatus](t, e.do(t, http.MethodGet, "/api/tokens/1/info", nil))
	if !info.IsOnline || info.Bot == nil || info.Bot.Username != "gw_bot" {
		t.Fatalf("info: %+v", info)
	}

	expectCode(t, e.do(t, http.MethodGet, "/api/tokens/5/chats", nil), http.StatusNotFound, ErrCodeNotFound)
	expectCode(t, e.do(t, http.MethodPost, "/api/tokens/5/chats/refresh", nil), http.StatusNotFound, ErrCodeNotFound)
	expectCode(t, e.do(t, http.MethodGet, "/api/tokens/5/info", nil), http.StatusNotFound, ErrCodeNotFound)
}

func TestSendMessage(t *testing.T) {
	e := newEnv(t)
	_, _ = repo.CreateBotToken(context.Background(), e.st, "main", "t", nil, true)

	// numeric chat ids are accepted
	w := e.do(t, http.MethodPost, "/api/tokens/1/send", `{"chat_id": -500, "message": "hi"}`)
	expectCode(t, w, http.StatusOK, "")
	res := decode[SendMessageResponse](t, w)
	if !res.Success || res.MessageID != 5 || res.ChatID != "-500" {
		t.Fatalf("send: %+v", res)
	}

	expectCode(t, e.do(t, http.MethodPost, "/api/tokens/1/send", map[string]any{"chat_id": "", "message": "hi"}), http.StatusBadRequest, ErrCodeBadRequest)
	expectCode(t, e.do(t, http.MethodPost, "/api/tokens/1/send", map[string]any{"chat_id": "1"}), http.StatusBadRequest, ErrCodeBadRequest)
	expectCode(t, e.do(t, http.MethodPost, "/api/tokens/3/send", map[string]any{"chat_id": "1", "message": "x"}), http.StatusNotFound, ErrCodeNotFound)

	e.client.sendErr = errors.New("Forbidden: bot was blocked by the user")
	expectCode(t, e.do(t, http.MethodPost, "/api/tokens/1/send", map[string]any{"chat_id": "1", "message": "x"}), http.StatusBadRequest, ErrCodeSendFailed)
}
