package middleware

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"qr-service/internal/domain"
	"qr-service/internal/handler"
)

// Recovery converte panics em 500 sem derrubar o processo
func Recovery(responder *handler.ErrorResponder, log domain.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered interface{}) {
		err := fmt.Errorf("panic: %v", recovered)
		log.WithContext(c.Request.Context()).Error("Recovered from panic", err, map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		})
		responder.Respond(c, domain.NewUnhandled(err))
	})
}
