package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/services"
	"github.com/tbourn/go-telegram-gateway/internal/utils"
)

//
// Service contracts (context-aware)
//

// TokenService manages bot credentials.
type TokenService interface {
	List(ctx context.Context) ([]domain.BotToken, error)
	Get(ctx context.Context, id domain.ID) (*domain.BotToken, error)
	Create(ctx context.Context, name, token string, description *string, isActive bool) (*domain.BotToken, error)
	Update(ctx context.Context, id domain.ID, p domain.BotTokenPatch) (*domain.BotToken, error)
	Delete(ctx context.Context, id domain.ID) error
}

// SettingService manages key/value settings.
type SettingService interface {
	List(ctx context.Context) ([]domain.Setting, error)
	Get(ctx context.Context, key string) (*domain.Setting, error)
	Create(ctx context.Context, key, value string, description *string) (*domain.Setting, error)
	Update(ctx context.Context, key string, p domain.SettingPatch) (*domain.Setting, error)
	Delete(ctx context.Context, key string) error
}

// LogService reads the traffic log.
type LogService interface {
	List(ctx context.Context, limit int, botTokenID *domain.ID) ([]domain.MessageLog, error)
	ListForBotToken(ctx context.Context, id domain.ID, limit int) ([]domain.MessageLog, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// ChatService reconciles known chats against the platform.
type ChatService interface {
	ListChats(ctx context.Context, id domain.ID) ([]domain.ChatSummary, error)
	RefreshChats(ctx context.Context, id domain.ID) (domain.SyncResult, error)
}

// MessengerService talks to the platform with a stored credential.
type MessengerService interface {
	BotInfo(ctx context.Context, id domain.ID) (services.BotStatus, error)
	SendTest(ctx context.Context, id domain.ID, chatID domain.ChatID, text string) (*domain.SentMessage, error)
}

// ReplayService stores responses of keyed POST requests. It is used by the
// router's idempotency middleware rather than by a handler.
type ReplayService interface {
	Lookup(ctx context.Context, scope, key string, now time.Time) (*domain.IdempotencyRecord, error)
	Record(ctx context.Context, scope, key string, status int, contentType string, body []byte) error
}

// Services bundles the collaborators of Handlers.
type Services struct {
	Tokens    TokenService
	Settings  SettingService
	Logs      LogService
	Chats     ChatService
	Messenger MessengerService
	// Replays is optional; without it Idempotency-Key is ignored.
	Replays ReplayService
}

// Handlers groups the dashboard API endpoints.
type Handlers struct {
	tokens    TokenService
	settings  SettingService
	logs      LogService
	chats     ChatService
	messenger MessengerService
}

// New constructs Handlers bound to the given services.
func New(s Services) *Handlers {
	return &Handlers{
		tokens:    s.Tokens,
		settings:  s.Settings,
		logs:      s.Logs,
		chats:     s.Chats,
		messenger: s.Messenger,
	}
}

//
// Helpers
//

// tokenID parses the :id path parameter. It writes a 400 and returns false
// when the value is not an integer.
func tokenID(c *gin.Context) (domain.ID, bool) {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid bot token id")
		return 0, false
	}
	return id, true
}

// queryLimit reads ?limit. Missing or malformed values yield 0, which the
// log queries treat as the default limit.
func queryLimit(c *gin.Context) int {
	return utils.AtoiDefault(strings.TrimSpace(c.Query("limit")), 0)
}

// failService maps service sentinels onto HTTP statuses. Anything unknown is
// a 500 with fallbackCode.
func failService(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, services.ErrBotTokenNotFound),
		errors.Is(err, services.ErrSettingNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrNameTaken),
		errors.Is(err, services.ErrSettingExists):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrTokenRequired),
		errors.Is(err, services.ErrKeyRequired),
		errors.Is(err, services.ErrChatIDRequired),
		errors.Is(err, services.ErrMessageRequired):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrSendFailed):
		fail(c, http.StatusBadRequest, ErrCodeSendFailed, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		fail(c, http.StatusServiceUnavailable, ErrCodeInternal, "request cancelled")
	default:
		fail(c, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}
