package app

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"qr-service/internal/auth"
	"qr-service/internal/config"
	"qr-service/internal/domain"
	"qr-service/internal/qr"
	"qr-service/internal/service"
	"qr-service/internal/storage"
)

// App agrupa o router e os recursos que precisam ser liberados no shutdown
type App struct {
	Router  *gin.Engine
	Storage domain.RateLimiterStorage
}

// New constrói storage, serviços e router a partir da configuração
func New(cfg *config.Config, logger domain.Logger) (*App, error) {
	deps := Dependencies{Logger: logger}
	app := &App{}

	switch cfg.Variant {
	case config.VariantOrigin:
		deps.Authenticator = auth.NewOriginAllowList(cfg.AllowedDomains, logger)
		deps.Encoder = qr.NewSVGEncoder(logger)
	default:
		storageConfig := storage.BuildStorageConfig(
			cfg.StorageType,
			cfg.RateLimitMaxKeys,
			cfg.RedisHost,
			cfg.RedisPort,
			cfg.RedisPassword,
			cfg.RedisDB,
		)
		store, err := storage.NewStorageFactory().CreateStorage(storageConfig, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
		app.Storage = store

		deps.RateLimiter = service.NewRateLimiterService(store, cfg.RateLimitConfig(), logger)
		deps.Authenticator = auth.NewSharedSecret(cfg.APIToken)
		deps.Encoder = qr.NewPNGEncoder(logger)
	}

	router, err := NewRouter(cfg, deps)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Router = router

	return app, nil
}

// Close libera o storage de rate limiting, se houver
func (a *App) Close() error {
	if a.Storage == nil {
		return nil
	}
	return a.Storage.Close()
}
