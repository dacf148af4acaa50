package handler

import (
	"github.com/gin-gonic/gin"

	"learnloop/internal/dto"
	"learnloop/internal/service"
	"learnloop/pkg/response"
)

// UserHandler profile endpoints.
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// GetUser returns a profile.
// GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	user, err := h.userSvc.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, gin.H{"user": user})
}

// UpdateUser changes the caller's own profile.
// PUT /api/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.userSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, gin.H{"user": user})
}

// ChangePassword replaces the caller's password.
// PUT /api/users/:id/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.userSvc.ChangePassword(c.Request.Context(), caller, c.Param("id"), &req); err != nil {
		response.FromError(c, err)
		return
	}

	response.Message(c, "Password updated successfully")
}
