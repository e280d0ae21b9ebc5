package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"qr-service/internal/domain"
)

// Mensagens fixas das respostas 4xx/5xx que não vêm de um estágio do pipeline
const (
	MsgRateLimited     = "Too many requests, please try again later."
	MsgEncodingFailure = "Failed to generate QR code"
	MsgInternalError   = "Internal server error"
	MsgBodyTooLarge    = "Request body too large"
)

// ErrorResponder converte erros do pipeline em respostas HTTP.
// Em desenvolvimento, falhas internas incluem o texto do erro em "details".
type ErrorResponder struct {
	development bool
	logger      domain.Logger
}

// NewErrorResponder cria o responder; development é decidido no deploy, não por requisição
func NewErrorResponder(development bool, logger domain.Logger) *ErrorResponder {
	return &ErrorResponder{development: development, logger: logger}
}

// StatusFor retorna o status HTTP de um tipo de erro
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindRateExceeded:
		seconds := retryAfterSeconds(pe.RetryAfter)
		c.Header("Retry-After", strconv.Itoa(seconds))
		body := gin.H{
			"error":   "rate_limit_exceeded",
			"message": MsgRateLimited,
		}
		if pe.Rate != nil {
			body["details"] = gin.H{
				"scope":       pe.Rate.Scope,
				"limit":       pe.Rate.Limit,
				"remaining":   pe.Rate.Remaining,
				"reset_time":  pe.Rate.ResetTime.Unix(),
				"retry_after": seconds,
			}
		}
		c.AbortWithStatusJSON(status, body)

	default:
		logger.Error("Request failed", err, map[string]interface{}{
			"kind": pe.Kind,
			"path": c.Request.URL.Path,
		})
		message := MsgInternalError
		if pe.Kind == domain.KindEncodingFailure {
			message = MsgEncodingFailure
		}
		body := gin.H{"error": message}
		if r.development {
			body["details"] = err.Error()
		}
		c.AbortWithStatusJSON(status, body)
	}
}

// retryAfterSeconds arredonda para cima, com mínimo de 1s
func retryAfterSeconds(d time.Duration) int {
	seconds := int(d / time.Second)
	if d%time.Second != 0 {
		seconds++
	}
	if seconds < 1 {
		return 1
	}
	return seconds
}

func (r *ErrorResponder) requestLogger(c *gin.Context) domain.Logger {
	if r.logger == nil {
		return nopLogger{}
	}
	return r.logger.WithContext(c.Request.Context())
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}

func (nopLogger) Error(string, error, map[string]interface{}) {}

func (n nopLogger) WithContext(context.Context) domain.Logger { return n }
