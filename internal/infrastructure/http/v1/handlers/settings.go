package handlers

import (
	"github.com/gin-gonic/gin"

	"kardex/internal/domain/settings"
	"kardex/internal/infrastructure/http/v1/dto"
)

// SettingsHandler handles tenant settings endpoints.
type SettingsHandler struct {
	*BaseHandler
	settings *settings.Service
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(set *settings.Service) *SettingsHandler {
	return &SettingsHandler{
		BaseHandler: NewBaseHandler(),
		settings:    set,
	}
}

// Get handles GET /settings
func (h *SettingsHandler) Get(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}

	current, err := h.settings.Get(c.Request.Context(), scope)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, current)
}

// Update handles PUT /settings
func (h *SettingsHandler) Update(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}

	var req dto.UpdateSettingsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	updated, err := h.settings.Update(c.Request.Context(), scope, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, updated)
}
