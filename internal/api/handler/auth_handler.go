package handler

import (
	"github.com/gin-gonic/gin"

	"learnloop/internal/dto"
	"learnloop/internal/service"
	"learnloop/pkg/response"
)

// AuthHandler registration and session endpoints.
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register creates a teacher or student account.
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, result)
}

// Login checks credentials and issues an access token.
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, result)
}

// Logout revokes the current token.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, exp := tokenMeta(c)
	if err := h.authSvc.Logout(c.Request.Context(), jti, exp); err != nil {
		response.FromError(c, err)
		return
	}

	response.Message(c, "Logged out successfully")
}

// Me returns the caller's profile.
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), caller)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, user)
}
