package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"qr-service/internal/domain"
	"qr-service/internal/handler"
)

// RateLimiterMiddleware aplica o orçamento de um escopo antes dos demais estágios
type RateLimiterMiddleware struct {
	service   domain.RateLimiterService
	scope     domain.RateLimitScope
	responder *handler.ErrorResponder
	logger    domain.Logger
}

// NewRateLimiterMiddleware cria o middleware de um escopo
func NewRateLimiterMiddleware(
	service domain.RateLimiterService,
	scope domain.RateLimitScope,
	responder *handler.ErrorResponder,
	logger domain.Logger,
) gin.HandlerFunc {
	m := &RateLimiterMiddleware{
		service:   service,
		scope:     scope,
		responder: responder,
		logger:    logger,
	}

	return m.Handle
}

// Handle é o handler principal do middleware
func (m *RateLimiterMiddleware) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	logger := m.logger.WithContext(c.Request.Context())
	clientKey := c.ClientIP()

	result, err := m.service.CheckLimit(ctx, m.scope, clientKey)
	if err != nil {
		logger.Error("Rate limiter service error", err, map[string]interface{}{
			"client_ip": clientKey,
			"scope":     m.scope,
		})
		m.responder.Respond(c, domain.NewUnhandled(err))
		return
	}

	setRateLimitHeaders(c, result)

	if !result.Allowed {
		logger.Info("Request rate limited", map[string]interface{}{
			"client_ip": clientKey,
			"scope":     result.Scope,
			"limit":     result.Limit,
			"reset":     result.ResetTime.Unix(),
		})

		m.responder.Respond(c, domain.NewRateLimitRejection(result))
		return
	}

	logger.Debug("Request allowed by rate limiter", map[string]interface{}{
		"client_ip": clientKey,
		"scope":     result.Scope,
		"remaining": result.Remaining,
	})

	c.Next()
}

// setRateLimitHeaders define os headers legados (X-RateLimit-*) e os padronizados (RateLimit-*).
// Com dois escopos na mesma rota, o último middleware a rodar prevalece.
func setRateLimitHeaders(c *gin.Context, result *domain.RateLimitResult) {
	limit := strconv.Itoa(result.Limit)
	remaining := strconv.Itoa(result.Remaining)

	c.Header("X-RateLimit-Limit", limit)
	c.Header("X-RateLimit-Remaining", remaining)
	c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime.Unix(), 10))
	c.Header("X-RateLimit-Scope", string(result.Scope))

	resetIn := int(result.ResetIn / time.Second)
	if result.ResetIn%time.Second != 0 {
		resetIn++
	}
	c.Header("RateLimit-Limit", limit)
	c.Header("RateLimit-Remaining", remaining)
	c.Header("RateLimit-Reset", strconv.Itoa(resetIn))
}
