package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"qr-service/internal/domain"

	"github.com/joho/godotenv"
)

// Variantes de deploy do serviço
const (
	VariantToken  = "token"
	VariantOrigin = "origin"
)

// Ambientes suportados
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DefaultAPIToken é usado quando API_TOKEN não está definido. Inseguro: gera warning no startup.
const DefaultAPIToken = "insecure-default-token-change-me"

// Config representa todas as configurações da aplicação
type Config struct {
	// Server Configuration
	Variant        string
	ServerPort     string
	AppEnv         string
	GinMode        string
	TrustedProxies []string
	MaxBodyBytes   int64

	// Logging Configuration
	LogLevel  string
	LogFormat string

	// Auth Configuration
	APIToken          string
	APITokenDefaulted bool
	AllowedDomains    []string
	AllowAnyOrigin    bool

	// Rate Limiting Configuration
	GlobalRateLimit    int
	GlobalRateWindow   time.Duration
	GenerateRateLimit  int
	GenerateRateWindow time.Duration
	RateLimitMaxKeys   int

	// Storage Configuration
	StorageType   string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

// IsDevelopment informa se erros internos podem ser detalhados ao chamador
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// RateLimitConfig monta as regras dos dois escopos
func (c *Config) RateLimitConfig() *domain.RateLimitConfig {
	return &domain.RateLimitConfig{
		Rules: map[domain.RateLimitScope]domain.RateLimitRule{
			domain.GlobalScope: {
				Scope:  domain.GlobalScope,
				Limit:  c.GlobalRateLimit,
				Window: c.GlobalRateWindow,
			},
			domain.GenerateScope: {
				Scope:  domain.GenerateScope,
				Limit:  c.GenerateRateLimit,
				Window: c.GenerateRateWindow,
			},
		},
	}
}

// ConfigLoader carrega e valida a configuração a partir do ambiente
type ConfigLoader struct {
	config   *Config
	warnings []string
}

// NewConfigLoader cria uma nova instância do ConfigLoader
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

// LoadConfig carrega as configurações do .env (se existir) e do ambiente
func (c *ConfigLoader) LoadConfig() (*Config, error) {
	c.warnings = nil

	if err := godotenv.Load(); err != nil {
		c.warn(".env file not found, using system environment variables")
	}

	config, err := c.loadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	if err := c.validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if config.APITokenDefaulted && config.Variant == VariantToken {
		c.warn("API_TOKEN is not set, using an insecure default token")
	}
	if config.Variant == VariantOrigin && len(config.AllowedDomains) == 0 {
		c.warn("ALLOWED_DOMAINS is empty, every origin is admitted")
	}

	c.config = config
	return config, nil
}

// Reload recarrega todas as configurações
func (c *ConfigLoader) Reload() error {
	_, err := c.LoadConfig()
	return err
}

// GetConfig retorna a configuração atual
func (c *ConfigLoader) GetConfig() *Config {
	return c.config
}

// Warnings retorna os avisos produzidos no último carregamento.
// O logger ainda não existe quando a configuração é lida, então main os registra depois.
func (c *ConfigLoader) Warnings() []string {
	return append([]string(nil), c.warnings...)
}

func (c *ConfigLoader) warn(msg string) {
	c.warnings = append(c.warnings, msg)
}

func (c *ConfigLoader) loadFromEnv() (*Config, error) {
	appEnv := strings.ToLower(getEnvWithDefault("APP_ENV", EnvDevelopment))

	defaultLevel, defaultFormat, defaultGinMode := "debug", "text", "debug"
	if appEnv == EnvProduction {
		defaultLevel, defaultFormat, defaultGinMode = "info", "json", "release"
	}

	config := &Config{
		Variant:        strings.ToLower(getEnvWithDefault("SERVICE_VARIANT", VariantToken)),
		ServerPort:     getEnvWithDefault("PORT", "3000"),
		AppEnv:         appEnv,
		GinMode:        getEnvWithDefault("GIN_MODE", defaultGinMode),
		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),

		LogLevel:  getEnvWithDefault("LOG_LEVEL", defaultLevel),
		LogFormat: getEnvWithDefault("LOG_FORMAT", defaultFormat),

		APIToken:       os.Getenv("API_TOKEN"),
		AllowedDomains: splitList(os.Getenv("ALLOWED_DOMAINS")),

		StorageType:   strings.ToLower(getEnvWithDefault("STORAGE_TYPE", "memory")),
		RedisHost:     getEnvWithDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvWithDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvWithDefault("REDIS_PASSWORD", ""),
	}

	if config.APIToken == "" {
		config.APIToken = DefaultAPIToken
		config.APITokenDefaulted = true
	}

	var err error

	if config.AllowAnyOrigin, err = strconv.ParseBool(getEnvWithDefault("ALLOW_ANY_ORIGIN", "false")); err != nil {
		return nil, fmt.Errorf("invalid ALLOW_ANY_ORIGIN value: %w", err)
	}

	if config.RedisDB, err = strconv.Atoi(getEnvWithDefault("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB value: %w", err)
	}

	if config.GlobalRateLimit, err = strconv.Atoi(getEnvWithDefault("GLOBAL_RATE_LIMIT", "100")); err != nil {
		return nil, fmt.Errorf("invalid GLOBAL_RATE_LIMIT value: %w", err)
	}

	if config.GlobalRateWindow, err = parseDuration(getEnvWithDefault("GLOBAL_RATE_WINDOW", "15m")); err != nil {
		return nil, fmt.Errorf("invalid GLOBAL_RATE_WINDOW value: %w", err)
	}

	if config.GenerateRateLimit, err = strconv.Atoi(getEnvWithDefault("GENERATE_RATE_LIMIT", "30")); err != nil {
		return nil, fmt.Errorf("invalid GENERATE_RATE_LIMIT value: %w", err)
	}

	if config.GenerateRateWindow, err = parseDuration(getEnvWithDefault("GENERATE_RATE_WINDOW", "5m")); err != nil {
		return nil, fmt.Errorf("invalid GENERATE_RATE_WINDOW value: %w", err)
	}

	if config.RateLimitMaxKeys, err = strconv.Atoi(getEnvWithDefault("RATE_LIMIT_MAX_KEYS", "100000")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_MAX_KEYS value: %w", err)
	}

	if config.MaxBodyBytes, err = strconv.ParseInt(getEnvWithDefault("MAX_BODY_BYTES", "65536"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid MAX_BODY_BYTES value: %w", err)
	}

	return config, nil
}

// validateConfig valida se as configurações são válidas
func (c *ConfigLoader) validateConfig(config *Config) error {
	if config.Variant != VariantToken && config.Variant != VariantOrigin {
		return fmt.Errorf("SERVICE_VARIANT must be '%s' or '%s'", VariantToken, VariantOrigin)
	}

	if config.AppEnv != EnvDevelopment && config.AppEnv != EnvProduction {
		return fmt.Errorf("APP_ENV must be '%s' or '%s'", EnvDevelopment, EnvProduction)
	}

	if port, err := strconv.Atoi(config.ServerPort); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number")
	}

	if config.GlobalRateLimit <= 0 {
		return fmt.Errorf("GLOBAL_RATE_LIMIT must be greater than 0")
	}

	if config.GlobalRateWindow <= 0 {
		return fmt.Errorf("GLOBAL_RATE_WINDOW must be greater than 0")
	}

	if config.GenerateRateLimit <= 0 {
		return fmt.Errorf("GENERATE_RATE_LIMIT must be greater than 0")
	}

	if config.GenerateRateWindow <= 0 {
		return fmt.Errorf("GENERATE_RATE_WINDOW must be greater than 0")
	}

	if config.RateLimitMaxKeys <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_KEYS must be greater than 0")
	}

	if config.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be greater than 0")
	}

	if config.StorageType != "memory" && config.StorageType != "redis" {
		return fmt.Errorf("STORAGE_TYPE must be 'memory' or 'redis'")
	}

	if config.RedisDB < 0 || config.RedisDB > 15 {
		return fmt.Errorf("REDIS_DB must be between 0 and 15")
	}

	// Allow-list vazia libera qualquer origem: em produção isso precisa ser explícito
	if config.Variant == VariantOrigin && len(config.AllowedDomains) == 0 &&
		config.AppEnv == EnvProduction && !config.AllowAnyOrigin {
		return fmt.Errorf("ALLOWED_DOMAINS must be set in production (or set ALLOW_ANY_ORIGIN=true)")
	}

	return nil
}

// getEnvWithDefault retorna o valor da variável de ambiente ou um valor padrão
func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration aceita durações Go ("15m") ou segundos inteiros ("900")
func parseDuration(raw string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

// splitList quebra uma lista separada por vírgulas, descartando itens vazios
func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
