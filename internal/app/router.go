package app

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"qr-service/internal/config"
	"qr-service/internal/domain"
	"qr-service/internal/handler"
	"qr-service/internal/middleware"
)

// Dependencies são os colaboradores já construídos que o router encadeia.
// RateLimiter é ignorado na variante origin.
type Dependencies struct {
	Logger        domain.Logger
	RateLimiter   domain.RateLimiterService
	Authenticator domain.Authenticator
	Encoder       domain.Encoder
}

// NewRouter monta o engine gin da variante configurada
func NewRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	if deps.Logger == nil || deps.Authenticator == nil || deps.Encoder == nil {
		return nil, fmt.Errorf("logger, authenticator and encoder are required")
	}
	if cfg.Variant == config.VariantToken && deps.RateLimiter == nil {
		return nil, fmt.Errorf("rate limiter is required for the %s variant", config.VariantToken)
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	responder := handler.NewErrorResponder(cfg.IsDevelopment(), deps.Logger)

	router.Use(middleware.RequestID())
	if cfg.IsDevelopment() {
		router.Use(gin.Logger())
	}
	router.Use(
		middleware.AccessLog(deps.Logger),
		middleware.Recovery(responder, deps.Logger),
		middleware.BodyLimit(cfg.MaxBodyBytes),
	)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	switch cfg.Variant {
	case config.VariantOrigin:
		setupOriginRoutes(router, deps, responder)
	default:
		setupTokenRoutes(router, deps, responder)
	}

	return router, nil
}

// setupTokenRoutes: global → generate → token → handler em /generate-qr.
// Só /health fica fora do escopo global; /admin também consome o orçamento.
func setupTokenRoutes(router *gin.Engine, deps Dependencies, responder *handler.ErrorResponder) {
	h := handler.NewHandlers(deps.Encoder, deps.RateLimiter, responder, deps.Logger)

	globalLimiter := middleware.NewRateLimiterMiddleware(deps.RateLimiter, domain.GlobalScope, responder, deps.Logger)
	generateLimiter := middleware.NewRateLimiterMiddleware(deps.RateLimiter, domain.GenerateScope, responder, deps.Logger)
	authenticate := middleware.NewAuthMiddleware(deps.Authenticator, responder, deps.Logger)

	router.GET("/health", h.HealthHandler)

	limited := router.Group("/", globalLimiter)
	{
		limited.GET("/", h.RootHandler)
		limited.GET("/metrics", h.MetricsHandler)
		limited.POST("/generate-qr", generateLimiter, authenticate, h.GenerateQRHandler)
	}

	admin := router.Group("/admin", globalLimiter, authenticate)
	{
		admin.GET("/status", h.AdminStatusHandler)
		admin.POST("/reset", h.AdminResetHandler)
	}
}

// setupOriginRoutes: origem → handler em /qr, sem rate limiting
func setupOriginRoutes(router *gin.Engine, deps Dependencies, responder *handler.ErrorResponder) {
	h := handler.NewHandlers(deps.Encoder, nil, responder, deps.Logger)

	router.GET("/health", h.HealthHandler)
	router.GET("/metrics", h.MetricsHandler)
	router.GET("/qr", middleware.NewAuthMiddleware(deps.Authenticator, responder, deps.Logger), h.QRCodeHandler)
}
