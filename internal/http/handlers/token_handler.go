// Bot token HTTP handlers.
//
// This file exposes REST endpoints for bot credentials:
//   - GET    /tokens        (list, masked)
//   - POST   /tokens        (create)
//   - GET    /tokens/{id}   (read, masked)
//   - PUT    /tokens/{id}   (partial update)
//   - DELETE /tokens/{id}   (delete)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/utils"
)

// maskedPrefix is how many leading characters of a token stay visible.
const maskedPrefix = 10

//
// DTOs
//

// CreateTokenRequest is the JSON payload for registering a bot token.
type CreateTokenRequest struct {
	Name        string  `json:"name" example:"support-bot"`
	Token       string  `json:"token" example:"123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw"`
	Description *string `json:"description" example:"Customer support bot"`
	// IsActive defaults to true when omitted.
	IsActive *bool `json:"is_active" example:"true"`
}

// UpdateTokenRequest is the JSON payload for a partial bot token update.
// Omitted fields are left untouched.
type UpdateTokenRequest struct {
	Name        *string `json:"name" example:"support-bot"`
	Token       *string `json:"token"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active" example:"false"`
}

// TokenResponse is a bot token with its secret masked. FullToken carries the
// unmasked value for the dashboard.
type TokenResponse struct {
	domain.BotToken
	Token     string `json:"token" example:"123456789:..."`
	FullToken string `json:"full_token"`
}

func maskToken(t domain.BotToken) TokenResponse {
	return TokenResponse{
		BotToken:  t,
		Token:     utils.Mask(t.Token, maskedPrefix),
		FullToken: t.Token,
	}
}

//
// Handlers
//

// ListTokens godoc
// @ID          listTokens
// @Summary     List bot tokens
// @Description Returns every registered bot token, newest first, with the secret masked.
// @Tags        Tokens
// @Produce     json
// @Success     200  {array}   handlers.TokenResponse
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /tokens [get]
func (h *Handlers) ListTokens(c *gin.Context) {
	items, err := h.tokens.List(c.Request.Context())
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	out := make([]TokenResponse, 0, len(items))
	for _, t := range items {
		out = append(out, maskToken(t))
	}
	ok(c, http.StatusOK, out)
}

// GetToken godoc
// @ID          getToken
// @Summary     Get a bot token
// @Tags        Tokens
// @Produce     json
// @Param       id   path      int  true  "Bot token ID"
// @Success     200  {object}  handlers.TokenResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Bot token not found"
// @Router      /tokens/{id} [get]
func (h *Handlers) GetToken(c *gin.Context) {
	id, valid := tokenID(c)
	if !valid {
		return
	}
	t, err := h.tokens.Get(c.Request.Context(), id)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, maskToken(*t))
}

// CreateToken godoc
// @ID          createToken
// @Summary     Register a bot token
// @Description Name and token are required; names are unique.
// @Tags        Tokens
// @Accept      json
// @Produce     json
// @Param       body body      handlers.CreateTokenRequest  true  "Bot token"
// @Success     201  {object}  domain.BotToken
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse "Name already in use"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /tokens [post]
func (h *Handlers) CreateToken(c *gin.Context) {
	var req CreateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	t, err := h.tokens.Create(c.Request.Context(), req.Name, req.Token, req.Description, active)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusCreated, t)
}

// UpdateToken godoc
// @ID          updateToken
// @Summary     Update a bot token
// @Tags        Tokens
// @Accept      json
// @Produce     json
// @Param       id   path      int                          true  "Bot token ID"
// @Param       body body      handlers.UpdateTokenRequest  true  "Fields to change"
// @Success     200  {object}  domain.BotToken
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Bot token not found"
// @Failure     409  {object}  handlers.ErrorResponse "Name already in use"
// @Router      /tokens/{id} [put]
func (h *Handlers) UpdateToken(c *gin.Context) {
	id, valid := tokenID(c)
	if !valid {
		return
	}
	var req UpdateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	t, err := h.tokens.Update(c.Request.Context(), id, domain.BotTokenPatch{
		Name:        req.Name,
		Token:       req.Token,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, t)
}

// DeleteToken godoc
// @ID          deleteToken
// @Summary     Delete a bot token
// @Description Logs and chats recorded for the token are kept.
// @Tags        Tokens
// @Param       id   path    int  true  "Bot token ID"
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Bot token not found"
// @Router      /tokens/{id} [delete]
func (h *Handlers) DeleteToken(c *gin.Context) {
	id, valid := tokenID(c)
	if !valid {
		return
	}
	if err := h.tokens.Delete(c.Request.Context(), id); err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}
