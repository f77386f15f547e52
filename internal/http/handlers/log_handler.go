package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
)

// ListLogs godoc
// @ID          listLogs
// @Summary     List message logs
// @Description Most recent first. Optionally filtered by bot token.
// @Tags        Logs
// @Produce     json
// @Param       limit         query  int  false  "Maximum entries"  default(100)
// @Param       bot_token_id  query  int  false  "Only logs of this bot token"
// @Success     200  {array}   domain.MessageLog
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /logs [get]
func (h *Handlers) ListLogs(c *gin.Context) {
	var filter *domain.ID
	if raw := strings.TrimSpace(c.Query("bot_token_id")); raw != "" {
		id, err := domain.ParseID(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid bot_token_id")
			return
		}
		filter = &id
	}
	logs, err := h.logs.List(c.Request.Context(), queryLimit(c), filter)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, logs)
}

// ListTokenLogs godoc
// @ID          listTokenLogs
// @Summary     List message logs of a bot token
// @Tags        Logs
// @Produce     json
// @Param       id     path   int  true   "Bot token ID"
// @Param       limit  query  int  false  "Maximum entries"  default(100)
// @Success     200  {array}   domain.MessageLog
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Bot token not found"
// @Router      /tokens/{id}/logs [get]
func (h *Handlers) ListTokenLogs(c *gin.Context) {
	id, valid := tokenID(c)
	if !valid {
		return
	}
	logs, err := h.logs.ListForBotToken(c.Request.Context(), id, queryLimit(c))
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, logs)
}

// Stats godoc
// @ID          getStats
// @Summary     Collection counters
// @Tags        Stats
// @Produce     json
// @Success     200  {object}  domain.Stats
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /stats [get]
func (h *Handlers) Stats(c *gin.Context) {
	s, err := h.logs.Stats(c.Request.Context())
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, s)
}
