// Chat and messaging HTTP handlers.
//
// These endpoints reach the messaging platform on behalf of a stored bot
// token:
//   - GET  /tokens/{id}/info            (bot identity, online check)
//   - GET  /tokens/{id}/chats           (reconciled chat list)
//   - POST /tokens/{id}/chats/refresh   (bulk refresh, counts only)
//   - POST /tokens/{id}/send            (send a test message)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
)

// SendMessageRequest is the JSON payload for sending a test message.
// chat_id accepts a number, a numeric string or an @channel username.
type SendMessageRequest struct {
	ChatID  domain.ChatID `json:"chat_id" swaggertype:"string" example:"-1001234567890"`
	Message string        `json:"message" example:"Hello from the gateway"`
}

// SendMessageResponse reports a delivered message.
type SendMessageResponse struct {
	Success   bool          `json:"success" example:"true"`
	MessageID int           `json:"message_id" example:"42"`
	ChatID    domain.ChatID `json:"chat_id" swaggertype:"string" example:"-1001234567890"`
}

// RefreshResponse reports a bulk chat refresh.
type RefreshResponse struct {
	Success bool `json:"success" example:"true"`
	domain.SyncResult
}

// BotInfo godoc
// @ID          getBotInfo
// @Summary     Bot identity
// @Description Calls getMe with the token. An unreachable bot is reported with is_online=false, not as an error.
// @Tags        Chats
// @Produce     json
// @Param       id   path      int  true  "Bot token ID"
// @Success     200  {object}  services.BotStatus
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Bot token not found"
// @Router      /tokens/{id}/info [get]
func (h *Handlers) BotInfo(c *gin.Context) {
	id, valid := tokenID(c)
	if !valid {
		return
	}
	st, err := h.messenger.BotInfo(c.Request.Context(), id)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, st)
}

// ListChats godoc
// @ID          listChats
// @Summary     List known chats of a bot token
// @Description Chats seen in the logs or stored, refreshed from the platform where possible, most recently active first.
// @Tags        Chats
// @Produce     json
// @Param       id   path      int  true  "Bot token ID"
// @Success     200  {array}   domain.ChatSummary
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Bot token not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /tokens/{id}/chats [get]
func (h *Handlers) ListChats(c *gin.Context) {
	id, valid := tokenID(c)
	if !valid {
		return
	}
	items, err := h.chats.ListChats(c.Request.Context(), id)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	if items == nil {
		items = []domain.ChatSummary{}
	}
	ok(c, http.StatusOK, items)
}

// RefreshChats godoc
// @ID          refreshChats
// @Summary     Refresh stored chats from the platform
// @Tags        Chats
// @Produce     json
// @Param       id   path      int  true  "Bot token ID"
// @Success     200  {object}  handlers.RefreshResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Bot token not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /tokens/{id}/chats/refresh [post]
func (h *Handlers) RefreshChats(c *gin.Context) {
	id, valid := tokenID(c)
	if !valid {
		return
	}
	res, err := h.chats.RefreshChats(c.Request.Context(), id)
	if err != nil {
		failService(c, err, ErrCodeRefreshFailed)
		return
	}
	if res.ErrorDetails == nil {
		res.ErrorDetails = []string{}
	}
	ok(c, http.StatusOK, RefreshResponse{Success: true, SyncResult: res})
}

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send a test message
// @Tags        Chats
// @Accept      json
// @Produce     json
// @Param       id   path      int                          true  "Bot token ID"
// @Param       body body      handlers.SendMessageRequest  true  "Message"
// @Success     200  {object}  handlers.SendMessageResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request or delivery failure"
// @Failure     404  {object}  handlers.ErrorResponse "Bot token not found"
// @Router      /tokens/{id}/send [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	id, valid := tokenID(c)
	if !valid {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	sent, err := h.messenger.SendTest(c.Request.Context(), id, req.ChatID, req.Message)
	if err != nil {
		failService(c, err, ErrCodeSendFailed)
		return
	}
	ok(c, http.StatusOK, SendMessageResponse{Success: true, MessageID: sent.MessageID, ChatID: sent.ChatID})
}
