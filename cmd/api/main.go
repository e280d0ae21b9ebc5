package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"qr-service/internal/app"
	"qr-service/internal/config"
	"qr-service/internal/logger"
)

func main() {
	// Carregar configurações
	configLoader := config.NewConfigLoader()
	cfg, err := configLoader.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)
	for _, warning := range configLoader.Warnings() {
		appLogger.Warn(warning, nil)
	}

	appLogger.Info("Starting QR Code Service", map[string]interface{}{
		"variant":             cfg.Variant,
		"app_env":             cfg.AppEnv,
		"port":                cfg.ServerPort,
		"log_level":           cfg.LogLevel,
		"storage":             cfg.StorageType,
		"api_token_defaulted": cfg.APITokenDefaulted,
		"allowed_domains":     cfg.AllowedDomains,
		"trusted_proxies":     cfg.TrustedProxies,
	})

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	application, err := app.New(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to build application", err, nil)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:      application.Router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("Starting HTTP server", map[string]interface{}{
			"addr": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Failed to start server", err, nil)
			_ = application.Close()
			os.Exit(1)
		}
	}()

	endpoints := []string{"GET  /health", "GET  /metrics", "GET  /qr"}
	if cfg.Variant == config.VariantToken {
		endpoints = []string{
			"GET  /health",
			"GET  /                (global limit)",
			"GET  /metrics         (global limit)",
			"POST /generate-qr     (global + generate limits, token)",
			"GET  /admin/status    (token)",
			"POST /admin/reset     (token)",
		}
	}
	appLogger.Info("QR Code Service is running", map[string]interface{}{
		"port":      cfg.ServerPort,
		"endpoints": endpoints,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", err, nil)
		_ = application.Close()
		os.Exit(1)
	}

	if err := application.Close(); err != nil {
		appLogger.Error("Failed to close storage", err, nil)
	}

	appLogger.Info("Server stopped gracefully", nil)
}
