package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qr-service/internal/handler"
)

// BodyLimit recusa corpos acima de maxBytes. Content-Length declarado é checado já aqui;
// corpos chunked estouram no MaxBytesReader durante a leitura.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": handler.MsgBodyTooLarge})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
