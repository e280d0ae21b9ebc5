package domain

import (
	"context"
	"time"
)

// RateLimiterStorage define a interface para armazenamento das janelas de rate limit.
// Strategy Pattern: memória para um processo, Redis para várias instâncias.
type RateLimiterStorage interface {
	// Increment incrementa atomicamente o contador da janela fixa de key,
	// abrindo uma nova janela se a atual expirou, e retorna a janela resultante
	Increment(ctx context.Context, key string, window time.Duration) (*RateWindow, error)

	// Get recupera a janela atual de uma chave (nil se não existir)
	Get(ctx context.Context, key string) (*RateWindow, error)

	// Reset limpa os dados de uma chave
	Reset(ctx context.Context, key string) error

	// Health verifica se o storage está saudável
	Health(ctx context.Context) error

	// Close libera os recursos do storage
	Close() error
}

// RateLimiterService define a interface para o serviço de rate limiting
type RateLimiterService interface {
	// CheckLimit contabiliza uma tentativa de clientKey no escopo e decide ADMIT/REJECT
	CheckLimit(ctx context.Context, scope RateLimitScope, clientKey string) (*RateLimitResult, error)

	// GetRule retorna a regra configurada para o escopo
	GetRule(scope RateLimitScope) (RateLimitRule, bool)

	// GetStatus retorna a janela atual de um cliente no escopo
	GetStatus(ctx context.Context, scope RateLimitScope, clientKey string) (*RateWindow, error)

	// Reset limpa a janela de um cliente no escopo
	Reset(ctx context.Context, scope RateLimitScope, clientKey string) error
}

// Authenticator decide se uma requisição pode prosseguir. Não altera estado compartilhado.
type Authenticator interface {
	Authenticate(creds Credentials) error
	Strategy() string
}

// Encoder transforma parâmetros já validados em bytes de imagem
type Encoder interface {
	Encode(req QRRequest) (*Image, error)
	ContentType() string
}

// Logger define a interface para logging estruturado
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
	WithContext(ctx context.Context) Logger
}
