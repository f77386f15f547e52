// Setting HTTP handlers. Settings are addressed by key, not by id.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
)

// CreateSettingRequest is the JSON payload for creating a setting.
type CreateSettingRequest struct {
	Key         string  `json:"key" example:"welcome_message"`
	Value       string  `json:"value" example:"Hello {name}!"`
	Description *string `json:"description" example:"Reply to /start"`
}

// UpdateSettingRequest is the JSON payload for a partial setting update.
type UpdateSettingRequest struct {
	Value       *string `json:"value" example:"Hi {name}, welcome back"`
	Description *string `json:"description"`
}

// ListSettings godoc
// @ID          listSettings
// @Summary     List settings
// @Description Returns all settings ordered by key.
// @Tags        Settings
// @Produce     json
// @Success     200  {array}   domain.Setting
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /settings [get]
func (h *Handlers) ListSettings(c *gin.Context) {
	items, err := h.settings.List(c.Request.Context())
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetSetting godoc
// @ID          getSetting
// @Summary     Get a setting
// @Tags        Settings
// @Produce     json
// @Param       key  path      string  true  "Setting key"  example(welcome_message)
// @Success     200  {object}  domain.Setting
// @Failure     404  {object}  handlers.ErrorResponse "Setting not found"
// @Router      /settings/{key} [get]
func (h *Handlers) GetSetting(c *gin.Context) {
	s, err := h.settings.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, s)
}

// CreateSetting godoc
// @ID          createSetting
// @Summary     Create a setting
// @Tags        Settings
// @Accept      json
// @Produce     json
// @Param       body body      handlers.CreateSettingRequest  true  "Setting"
// @Success     201  {object}  domain.Setting
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse "Key already exists"
// @Router      /settings [post]
func (h *Handlers) CreateSetting(c *gin.Context) {
	var req CreateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	s, err := h.settings.Create(c.Request.Context(), req.Key, req.Value, req.Description)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusCreated, s)
}

// UpdateSetting godoc
// @ID          updateSetting
// @Summary     Update a setting
// @Tags        Settings
// @Accept      json
// @Produce     json
// @Param       key  path      string                         true  "Setting key"
// @Param       body body      handlers.UpdateSettingRequest  true  "Fields to change"
// @Success     200  {object}  domain.Setting
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Setting not found"
// @Router      /settings/{key} [put]
func (h *Handlers) UpdateSetting(c *gin.Context) {
	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	s, err := h.settings.Update(c.Request.Context(), c.Param("key"), domain.SettingPatch{
		Value:       req.Value,
		Description: req.Description,
	})
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, s)
}

// DeleteSetting godoc
// @ID          deleteSetting
// @Summary     Delete a setting
// @Tags        Settings
// @Param       key  path    string  true  "Setting key"
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Setting not found"
// @Router      /settings/{key} [delete]
func (h *Handlers) DeleteSetting(c *gin.Context) {
	if err := h.settings.Delete(c.Request.Context(), c.Param("key")); err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}
