package domain

import (
	"strings"
	"time"
)

// ErrorCorrectionLevel define o nível de correção de erro do QR code
type ErrorCorrectionLevel string

const (
	ECLLow      ErrorCorrectionLevel = "L"
	ECLMedium   ErrorCorrectionLevel = "M"
	ECLQuartile ErrorCorrectionLevel = "Q"
	ECLHigh     ErrorCorrectionLevel = "H"
)

// Valores padrão aplicados pelo extrator de parâmetros
const (
	DefaultECL        = ECLMedium
	DefaultSize       = 300
	DefaultDarkColor  = "#000000"
	DefaultLightColor = "#ffffff"

	MinSize = 50
	MaxSize = 1000
)

// IsValid informa se o nível pertence a {L,M,Q,H}
func (l ErrorCorrectionLevel) IsValid() bool {
	switch l {
	case ECLLow, ECLMedium, ECLQuartile, ECLHigh:
		return true
	}
	return false
}

// ParseErrorCorrectionLevel normaliza o valor recebido (espaços e caixa).
// Não valida: um valor fora do conjunto é rejeitado pelo Validator.
func ParseErrorCorrectionLevel(raw string) ErrorCorrectionLevel {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return DefaultECL
	}
	return ErrorCorrectionLevel(raw)
}

// QRRequest é o registro canônico de uma requisição de QR code,
// independente do transporte (body JSON ou query string).
type QRRequest struct {
	Content              string               `json:"content"`
	ErrorCorrectionLevel ErrorCorrectionLevel `json:"errorCorrectionLevel"`
	Size                 int                  `json:"size"`
	DarkColor            string               `json:"darkColor"`
	LightColor           string               `json:"lightColor"`
	Credential           string               `json:"-"`
}

// Image é o resultado do Encoder
type Image struct {
	Bytes       []byte
	ContentType string
}

const (
	ContentTypePNG = "image/png"
	ContentTypeSVG = "image/svg+xml"
)

// Credentials reúne o que o Authenticator pode inspecionar de uma requisição
type Credentials struct {
	Token   string
	Referer string
}

// RateLimitScope identifica um orçamento de rate limiting
type RateLimitScope string

const (
	// GlobalScope se aplica a todas as rotas (exceto health)
	GlobalScope RateLimitScope = "global"
	// GenerateScope se aplica apenas à rota de geração
	GenerateScope RateLimitScope = "generate"
)

// RateLimitRule define a regra de um escopo
type RateLimitRule struct {
	Scope  RateLimitScope `json:"scope"`
	Limit  int            `json:"limit"`
	Window time.Duration  `json:"window"`
}

// RateWindow representa a janela fixa de um par (escopo, cliente)
type RateWindow struct {
	Key         string        `json:"key"`
	Count       int           `json:"count"`
	WindowStart time.Time     `json:"windowStart"`
	Window      time.Duration `json:"window"`
}

// ResetTime retorna o instante em que a janela zera
func (w *RateWindow) ResetTime() time.Time {
	return w.WindowStart.Add(w.Window)
}

// Expired informa se a janela já passou em relação a now
func (w *RateWindow) Expired(now time.Time) bool {
	return !now.Before(w.ResetTime())
}

// RateLimitResult representa o resultado de uma verificação de rate limit
type RateLimitResult struct {
	Allowed    bool           `json:"allowed"`
	Scope      RateLimitScope `json:"scope"`
	Limit      int            `json:"limit"`
	Remaining  int            `json:"remaining"`
	ResetTime  time.Time      `json:"resetTime"`
	ResetIn    time.Duration  `json:"resetIn"`
	RetryAfter time.Duration  `json:"retryAfter"`
}

// RateLimitConfig reúne as regras de todos os escopos
type RateLimitConfig struct {
	Rules map[RateLimitScope]RateLimitRule `json:"rules"`
}
