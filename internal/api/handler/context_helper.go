package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"learnloop/internal/api/middleware"
	"learnloop/internal/service"
	"learnloop/pkg/response"
	"learnloop/pkg/validator"
)

// MustGetUserID reads the caller id set by JWTAuth. When it is missing a 401
// is written and ok is false; the caller should return immediately.
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, middleware.CtxUserID)
}

// MustGetRole reads the caller role set by JWTAuth.
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, middleware.CtxRole)
}

// MustGetIdentity combines MustGetUserID and MustGetRole.
func MustGetIdentity(c *gin.Context) (service.Identity, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Identity{}, false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return service.Identity{}, false
	}
	return service.Identity{UserID: userID, Role: role}, true
}

// tokenMeta returns the jti and expiry of the bearer token, if any.
func tokenMeta(c *gin.Context) (string, time.Time) {
	jti := c.GetString(middleware.CtxTokenJTI)
	exp, _ := c.Get(middleware.CtxTokenExp)
	t, _ := exp.(time.Time)
	return jti, t
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "No authorization provided")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "No authorization provided")
		return "", false
	}
	return s, true
}

// bindError writes the 400 for a request body that failed to bind.
func bindError(c *gin.Context, err error) {
	if middleware.IsBodyTooLarge(err) {
		_ = c.Error(err)
		return
	}
	response.BadRequest(c, 10001, validator.FormatValidationError(err))
}
