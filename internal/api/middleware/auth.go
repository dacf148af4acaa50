package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"learnloop/internal/model"
	"learnloop/pkg/jwt"
	"learnloop/pkg/response"
)

// Context keys set by JWTAuth.
const (
	CtxUserID   = "user_id"
	CtxRole     = "role"
	CtxTokenJTI = "token_jti"
	CtxTokenExp = "token_exp"
)

// TokenChecker reports revoked tokens. *redis.Client satisfies it.
type TokenChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// legacyIdentity is the unsigned JSON blob older clients put in the
// Authorization header.
type legacyIdentity struct {
	ID     string `json:"_id"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// JWTAuth authenticates the request from "Authorization: Bearer <token>".
// blacklist may be nil. With allowLegacy set, a raw JSON identity header is
// also accepted.
func JWTAuth(jwtMgr *jwt.Manager, blacklist TokenChecker, allowLegacy bool, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Unauthorized(c, 10002, "No authorization provided")
			c.Abort()
			return
		}

		if strings.HasPrefix(authHeader, "{") {
			if !allowLegacy || !setLegacyIdentity(c, authHeader) {
				response.Unauthorized(c, 10002, "Invalid authorization")
				c.Abort()
				return
			}
			logger.Warn("legacy identity header accepted",
				zap.String("path", c.FullPath()),
				zap.String("ip", c.ClientIP()),
			)
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, 10002, "Invalid authorization")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil || claims.TokenType != "access" || !model.ValidRole(claims.Role) {
			response.Unauthorized(c, 10002, "Invalid authorization")
			c.Abort()
			return
		}

		if blacklist != nil && claims.ID != "" {
			revoked, err := blacklist.IsBlacklisted(c.Request.Context(), claims.ID)
			if err != nil {
				// fail open: the blacklist is an optional layer
				logger.Warn("token blacklist check failed", zap.Error(err))
			} else if revoked {
				response.Unauthorized(c, 10002, "Invalid authorization")
				c.Abort()
				return
			}
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxTokenJTI, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(CtxTokenExp, claims.ExpiresAt.Time)
		} else {
			c.Set(CtxTokenExp, time.Time{})
		}

		c.Next()
	}
}

func setLegacyIdentity(c *gin.Context, raw string) bool {
	var id legacyIdentity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return false
	}
	userID := id.ID
	if userID == "" {
		userID = id.UserID
	}
	if userID == "" || !model.ValidRole(id.Role) {
		return false
	}
	c.Set(CtxUserID, userID)
	c.Set(CtxRole, id.Role)
	return true
}

// RoleAuth allows only callers with one of the given roles.
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(CtxRole)
		if !exists {
			response.Unauthorized(c, 10002, "No authorization provided")
			c.Abort()
			return
		}

		userRole, _ := role.(string)
		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, roleDeniedMessage(allowedRoles))
		c.Abort()
	}
}

func roleDeniedMessage(roles []string) string {
	if len(roles) == 1 {
		switch roles[0] {
		case model.RoleTeacher:
			return "Teacher access required"
		case model.RoleStudent:
			return "Student access required"
		}
	}
	return "Insufficient role for this operation"
}
