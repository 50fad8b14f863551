package middleware

import (
	"net/http"

	"pdf-chat-backend/utils"

	"github.com/gin-gonic/gin"
)

// RequestSizeLimit rejects requests whose declared body size exceeds maxSize.
// Upload handlers still enforce the per-file cap after parsing.
func RequestSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge,
				"request_too_large",
				"Request body exceeds maximum size",
				gin.H{
					"max_size": maxSize,
					"received": c.Request.ContentLength,
				})
			c.Abort()
			return
		}
		c.Next()
	}
}
