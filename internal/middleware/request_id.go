package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"qr-service/internal/logger"
)

// RequestIDHeader é o header de correlação
const RequestIDHeader = "X-Request-ID"

// RequestID reaproveita o X-Request-ID recebido ou gera um UUID,
// e injeta os dados da requisição no contexto usado pelos loggers.
// Só o token de header entra no contexto: o corpo ainda não foi limitado nem lido aqui.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(RequestIDHeader, requestID)

		ctx := logger.ContextWithRequestInfo(
			c.Request.Context(),
			requestID,
			c.ClientIP(),
			headerToken(c),
			c.GetHeader("User-Agent"),
		)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
