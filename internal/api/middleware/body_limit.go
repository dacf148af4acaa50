package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"learnloop/pkg/response"
)

// BodyLimit caps the request body at maxBytes.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()

		if c.IsAborted() || c.Writer.Written() {
			return
		}
		for _, err := range c.Errors {
			if IsBodyTooLarge(err.Err) {
				response.Error(c, http.StatusRequestEntityTooLarge, 10005, "Request body too large")
				return
			}
		}
	}
}

// IsBodyTooLarge reports whether err came from the BodyLimit reader.
func IsBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
