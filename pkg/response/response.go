package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "learnloop/pkg/errors"
)

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// MessageBody is returned by operations that have nothing else to report.
type MessageBody struct {
	Message string `json:"message"`
}

// ── success ──

// OK 200 with the payload as the top-level body.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 201.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Message 200 with {"message": msg}.
func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, MessageBody{Message: msg})
}

// ── errors ──

// Error writes an error body.
func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, ErrorBody{
		Error: message,
		Code:  code,
	})
}

// BadRequest 400
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, code int, message string) {
	Error(c, http.StatusForbidden, code, message)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// InternalError 500. The cause is never echoed to the client.
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, 50000, "Internal server error")
}

// FromError writes the response for a service error. Classified errors keep
// their message; anything else becomes a generic 500 and the cause is attached
// to the gin context for the request logger.
func FromError(c *gin.Context, err error) {
	if !apperrors.IsClassified(err) {
		_ = c.Error(err)
		InternalError(c)
		return
	}
	Error(c, apperrors.Status(err), apperrors.Code(err), apperrors.Message(err))
}
