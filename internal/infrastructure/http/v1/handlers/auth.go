package handlers

import (
	"github.com/gin-gonic/gin"

	"kardex/internal/domain/auth"
	"kardex/internal/infrastructure/http/v1/dto"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	auth *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(),
		auth:        authService,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, user)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, user, err := h.auth.Login(c.Request.Context(), auth.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.LoginResponse{Tokens: tokens, User: user})
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, tokens)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}

	if err := h.auth.Logout(c.Request.Context(), scope.ActorUserID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "logged out")
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), scope, scope.ActorUserID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, user)
}

// AddStaff handles POST /auth/staff
func (h *AuthHandler) AddStaff(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}

	var req dto.StaffRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.auth.AddStaff(c.Request.Context(), scope, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, user)
}

// ListStaff handles GET /auth/staff
func (h *AuthHandler) ListStaff(c *gin.Context) {
	scope, ok := h.Scope(c)
	if !ok {
		return
	}

	users, err := h.auth.ListStaff(c.Request.Context(), scope)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: users, Count: len(users)})
}
