package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"qr-service/internal/domain"
)

// RateLimiterService implementa a lógica de negócio do rate limiting por escopo.
// Separada do middleware: aqui só se decide ADMIT/REJECT, quem responde HTTP é o middleware.
type RateLimiterService struct {
	storage domain.RateLimiterStorage
	config  *domain.RateLimitConfig
	logger  domain.Logger
	clock   domain.Clock
}

// ServiceOption customiza o RateLimiterService
type ServiceOption func(*RateLimiterService)

// WithServiceClock troca o relógio usado para calcular Retry-After
func WithServiceClock(clock domain.Clock) ServiceOption {
	return func(s *RateLimiterService) {
		s.clock = clock
	}
}

// NewRateLimiterService cria uma nova instância do serviço
func NewRateLimiterService(
	storage domain.RateLimiterStorage,
	config *domain.RateLimitConfig,
	logger domain.Logger,
	opts ...ServiceOption,
) *RateLimiterService {
	s := &RateLimiterService{
		storage: storage,
		config:  config,
		logger:  logger,
		clock:   domain.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckLimit contabiliza a tentativa de clientKey no escopo.
// O contador continua subindo depois do limite; a requisição é admitida enquanto count <= limit.
func (s *RateLimiterService) CheckLimit(ctx context.Context, scope domain.RateLimitScope, clientKey string) (*domain.RateLimitResult, error) {
	rule, ok := s.GetRule(scope)
	if !ok {
		return nil, fmt.Errorf("no rate limit rule for scope %q", scope)
	}

	storageKey := s.buildStorageKey(scope, clientKey)

	window, err := s.storage.Increment(ctx, storageKey, rule.Window)
	if err != nil {
		s.logger.Error("Failed to increment counter", err, map[string]interface{}{
			"storage_key": storageKey,
			"scope":       scope,
		})
		return nil, fmt.Errorf("failed to increment counter: %w", err)
	}

	remaining := rule.Limit - window.Count
	if remaining < 0 {
		remaining = 0
	}

	now := s.clock.Now()
	result := &domain.RateLimitResult{
		Allowed:   window.Count <= rule.Limit,
		Scope:     scope,
		Limit:     rule.Limit,
		Remaining: remaining,
		ResetTime: window.ResetTime(),
	}
	if resetIn := result.ResetTime.Sub(now); resetIn > 0 {
		result.ResetIn = resetIn
	}

	if !result.Allowed {
		result.RetryAfter = retryAfter(result.ResetTime, now)
		s.logger.Info("Rate limit exceeded", map[string]interface{}{
			"storage_key":   storageKey,
			"scope":         scope,
			"current_count": window.Count,
			"limit":         rule.Limit,
			"retry_after":   result.RetryAfter.Seconds(),
		})
		return result, nil
	}

	s.logger.Debug("Request allowed", map[string]interface{}{
		"storage_key":   storageKey,
		"scope":         scope,
		"current_count": window.Count,
		"limit":         rule.Limit,
		"remaining":     remaining,
	})

	return result, nil
}

// GetRule retorna a regra configurada para o escopo
func (s *RateLimiterService) GetRule(scope domain.RateLimitScope) (domain.RateLimitRule, bool) {
	if s.config == nil {
		return domain.RateLimitRule{}, false
	}
	rule, ok := s.config.Rules[scope]
	return rule, ok
}

// GetStatus retorna a janela atual de um cliente no escopo (nil se não houver)
func (s *RateLimiterService) GetStatus(ctx context.Context, scope domain.RateLimitScope, clientKey string) (*domain.RateWindow, error) {
	if _, ok := s.GetRule(scope); !ok {
		return nil, fmt.Errorf("no rate limit rule for scope %q", scope)
	}

	window, err := s.storage.Get(ctx, s.buildStorageKey(scope, clientKey))
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return window, nil
}

// Reset limpa a janela de um cliente no escopo
func (s *RateLimiterService) Reset(ctx context.Context, scope domain.RateLimitScope, clientKey string) error {
	if _, ok := s.GetRule(scope); !ok {
		return fmt.Errorf("no rate limit rule for scope %q", scope)
	}

	storageKey := s.buildStorageKey(scope, clientKey)
	if err := s.storage.Reset(ctx, storageKey); err != nil {
		return fmt.Errorf("failed to reset key: %w", err)
	}

	s.logger.Info("Rate limit reset", map[string]interface{}{
		"scope":       scope,
		"client_key":  clientKey,
		"storage_key": storageKey,
	})
	return nil
}

// buildStorageKey constrói a chave de storage no formato rate_limit:<escopo>:<cliente>
func (s *RateLimiterService) buildStorageKey(scope domain.RateLimitScope, clientKey string) string {
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		clientKey = "unknown"
	}
	return fmt.Sprintf("rate_limit:%s:%s", scope, clientKey)
}

// retryAfter arredonda para cima em segundos inteiros, mínimo de 1s
func retryAfter(resetTime, now time.Time) time.Duration {
	wait := resetTime.Sub(now)
	if wait <= time.Second {
		return time.Second
	}
	seconds := wait / time.Second
	if wait%time.Second != 0 {
		seconds++
	}
	return seconds * time.Second
}
