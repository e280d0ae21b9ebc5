package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"qr-service/internal/domain"
)

// AccessLog registra uma entrada por requisição
func AccessLog(log domain.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": float64(time.Since(start).Microseconds()) / 1000,
			"client_ip":  c.ClientIP(),
			"bytes":      c.Writer.Size(),
		}

		requestLog := log.WithContext(c.Request.Context())
		if c.Writer.Status() >= 500 {
			requestLog.Warn("Request completed", fields)
			return
		}
		requestLog.Info("Request completed", fields)
	}
}
