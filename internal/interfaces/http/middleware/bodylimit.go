package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qm/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects bodies above maxBytes. Declared lengths are refused up
// front; undeclared ones fail when the handler reads past the limit.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			Abort(c, dto.ErrCodeTooLarge, "request body too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
