package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-telegram-gateway/internal/http/middleware"
)

// ErrorResponse is the body of every non-2xx reply, for example a Telegram
// send that the Bot API refused:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "5f0c2a8e-3d1b-4c57-9a41-0b7e6d2f9c13",
//	  "code": "send_failed",
//	  "message": "Forbidden: bot was blocked by the user"
//	}
//
// Successful calls return the resource itself with no wrapper.
type ErrorResponse struct {
	// Same value as the X-Request-ID response header.
	RequestID string `json:"request_id,omitempty" example:"5f0c2a8e-3d1b-4c57-9a41-0b7e6d2f9c13"`
	// One of the ErrCode* constants.
	Code    string `json:"code" example:"conflict"`
	Message string `json:"message" example:"bot token name already in use"`
}

// fail stops the handler chain and writes the envelope. Server-side failures
// (status >= 500) also go to the request logger so the request id in the body
// can be traced.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("route", c.FullPath()).
			Str("message", msg).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail lets the router answer unmatched routes and methods in the same
// envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) { c.JSON(status, body) }

func noContent(c *gin.Context) { c.Status(http.StatusNoContent) }
