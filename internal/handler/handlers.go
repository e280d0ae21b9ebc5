package handler

import (
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"qr-service/internal/domain"
	"qr-service/internal/qr"
)

// Banner é o texto devolvido em GET /
const Banner = "QR Code Generator API. POST /generate-qr with a JSON body to create a QR code."

// Handlers contém os handlers da API
type Handlers struct {
	encoder   domain.Encoder
	service   domain.RateLimiterService
	responder *ErrorResponder
	logger    domain.Logger
	startTime time.Time
}

// NewHandlers cria uma nova instância dos handlers.
// service pode ser nil na variante sem rate limiting; as rotas admin dependem dele.
func NewHandlers(encoder domain.Encoder, service domain.RateLimiterService, responder *ErrorResponder, logger domain.Logger) *Handlers {
	if responder == nil {
		responder = NewErrorResponder(false, logger)
	}
	return &Handlers{
		encoder:   encoder,
		service:   service,
		responder: responder,
		logger:    logger,
		startTime: time.Now(),
	}
}

// HealthHandler responde sempre {"status":"ok"}
func (h *Handlers) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RootHandler devolve o banner em texto puro
func (h *Handlers) RootHandler(c *gin.Context) {
	c.String(http.StatusOK, Banner)
}

// GenerateQRHandler atende POST /generate-qr. Rate limit e token já foram checados pelos middlewares.
func (h *Handlers) GenerateQRHandler(c *gin.Context) {
	var body qr.GenerateBody
	// o middleware de auth já leu o corpo; ShouldBindBodyWith reaproveita a cópia em cache
	if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.responder.Respond(c, err)
			return
		}
		h.responder.Respond(c, domain.NewInvalidInput(domain.ReasonMalformedBody, "Invalid JSON body"))
		return
	}

	req, err := qr.FromBody(body)
	if err != nil {
		h.responder.Respond(c, err)
		return
	}

	h.render(c, req)
}

// QRCodeHandler atende GET /qr
func (h *Handlers) QRCodeHandler(c *gin.Context) {
	req, err := qr.FromQuery(c.Request.URL.Query())
	if err != nil {
		h.responder.Respond(c, err)
		return
	}

	h.render(c, req)
}

// render valida, codifica e escreve os bytes da imagem sem alteração
func (h *Handlers) render(c *gin.Context, req domain.QRRequest) {
	if err := qr.Validate(req); err != nil {
		h.responder.Respond(c, err)
		return
	}

	img, err := h.encoder.Encode(req)
	if err != nil {
		var pe *domain.PipelineError
		if !errors.As(err, &pe) {
			err = domain.NewEncodingFailure(err)
		}
		h.responder.Respond(c, err)
		return
	}

	if h.logger != nil {
		h.logger.WithContext(c.Request.Context()).Debug("QR code generated", map[string]interface{}{
			"content_type": img.ContentType,
			"size":         req.Size,
			"ecl":          req.ErrorCorrectionLevel,
			"bytes":        len(img.Bytes),
		})
	}

	c.Data(http.StatusOK, img.ContentType, img.Bytes)
}

// MetricsHandler implementa endpoint de métricas do sistema
func (h *Handlers) MetricsHandler(c *gin.Context) {
	uptime := time.Since(h.startTime)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := gin.H{
		"service":        "QR Code Service",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime":         uptime.String(),
		"uptime_seconds": int64(uptime.Seconds()),
		"encoder":        h.encoder.ContentType(),
		"system": gin.H{
			"go_version":   runtime.Version(),
			"goroutines":   runtime.NumGoroutine(),
			"memory_alloc": formatBytes(m.Alloc),
			"memory_total": formatBytes(m.TotalAlloc),
			"memory_sys":   formatBytes(m.Sys),
			"gc_runs":      m.NumGC,
		},
	}

	if h.service != nil {
		rules := gin.H{}
		for _, scope := range []domain.RateLimitScope{domain.GlobalScope, domain.GenerateScope} {
			if rule, ok := h.service.GetRule(scope); ok {
				rules[string(scope)] = gin.H{
					"limit":          rule.Limit,
					"window_seconds": int64(rule.Window.Seconds()),
				}
			}
		}
		response["rate_limits"] = rules
	}

	c.JSON(http.StatusOK, response)
}

// AdminStatusHandler retorna a janela atual de um cliente em um escopo
func (h *Handlers) AdminStatusHandler(c *gin.Context) {
	scope, key, ok := h.adminParams(c)
	if !ok {
		return
	}

	window, err := h.service.GetStatus(c.Request.Context(), scope, key)
	if err != nil {
		h.responder.Respond(c, domain.NewUnhandled(err))
		return
	}

	rule, _ := h.service.GetRule(scope)
	response := gin.H{
		"scope":     scope,
		"key":       key,
		"limit":     rule.Limit,
		"count":     0,
		"remaining": rule.Limit,
		"active":    false,
	}

	if window != nil {
		remaining := rule.Limit - window.Count
		if remaining < 0 {
			remaining = 0
		}
		response["count"] = window.Count
		response["remaining"] = remaining
		response["active"] = true
		response["window_start"] = window.WindowStart.Unix()
		response["reset_time"] = window.ResetTime().Unix()
	}

	c.JSON(http.StatusOK, response)
}

// AdminResetHandler zera a janela de um cliente em um escopo
func (h *Handlers) AdminResetHandler(c *gin.Context) {
	scope, key, ok := h.adminParams(c)
	if !ok {
		return
	}

	if err := h.service.Reset(c.Request.Context(), scope, key); err != nil {
		h.responder.Respond(c, domain.NewUnhandled(err))
		return
	}

	if h.logger != nil {
		h.logger.WithContext(c.Request.Context()).Info("Rate limit window reset by operator", map[string]interface{}{
			"scope": scope,
			"key":   key,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "rate limit reset",
		"scope":   scope,
		"key":     key,
	})
}

// adminParams lê e valida scope e key da query
func (h *Handlers) adminParams(c *gin.Context) (domain.RateLimitScope, string, bool) {
	if h.service == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "rate limiting is disabled"})
		return "", "", false
	}

	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "key parameter is required"})
		return "", "", false
	}

	scope := domain.RateLimitScope(strings.ToLower(strings.TrimSpace(c.Query("scope"))))
	if _, ok := h.service.GetRule(scope); !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "scope must be 'global' or 'generate'"})
		return "", "", false
	}

	return scope, key, true
}

// formatBytes formata bytes em formato legível
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return strconv.FormatUint(bytes, 10) + " B"
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(bytes)/float64(div), 'f', 1, 64) + " " + "KMGTPE"[exp:exp+1] + "B"
}
