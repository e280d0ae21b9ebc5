package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qr-service/internal/domain"
)

var configEnvKeys = []string{
	"SERVICE_VARIANT", "PORT", "APP_ENV", "GIN_MODE", "TRUSTED_PROXIES", "MAX_BODY_BYTES",
	"LOG_LEVEL", "LOG_FORMAT", "API_TOKEN", "ALLOWED_DOMAINS", "ALLOW_ANY_ORIGIN",
	"GLOBAL_RATE_LIMIT", "GLOBAL_RATE_WINDOW", "GENERATE_RATE_LIMIT", "GENERATE_RATE_WINDOW",
	"RATE_LIMIT_MAX_KEYS", "STORAGE_TYPE", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
}

// clearConfigEnv isola o teste do ambiente da máquina
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvKeys {
		t.Setenv(key, "")
	}
}

func TestConfigLoader_LoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	loader := NewConfigLoader()
	cfg, err := loader.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, VariantToken, cfg.Variant)
	assert.Equal(t, "3000", cfg.ServerPort)
	assert.Equal(t, EnvDevelopment, cfg.AppEnv)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, DefaultAPIToken, cfg.APIToken)
	assert.True(t, cfg.APITokenDefaulted)
	assert.Equal(t, 100, cfg.GlobalRateLimit)
	assert.Equal(t, 15*time.Minute, cfg.GlobalRateWindow)
	assert.Equal(t, 30, cfg.GenerateRateLimit)
	assert.Equal(t, 5*time.Minute, cfg.GenerateRateWindow)
	assert.Equal(t, "memory", cfg.StorageType)
	assert.Equal(t, int64(65536), cfg.MaxBodyBytes)
	assert.Empty(t, cfg.TrustedProxies)

	assert.Contains(t, loader.Warnings(), "API_TOKEN is not set, using an insecure default token")
	assert.Same(t, cfg, loader.GetConfig())
}

func TestConfigLoader_LoadConfig_ProductionDefaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("API_TOKEN", "s3cret")

	loader := NewConfigLoader()
	cfg, err := loader.LoadConfig()
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "release", cfg.GinMode)
	assert.Equal(t, "s3cret", cfg.APIToken)
	assert.False(t, cfg.APITokenDefaulted)
	assert.NotContains(t, loader.Warnings(), "API_TOKEN is not set, using an insecure default token")
}

func TestConfigLoader_LoadConfig_Custom(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SERVICE_VARIANT", "ORIGIN")
	t.Setenv("ALLOWED_DOMAINS", "example.com, , shop.example.org")
	t.Setenv("GLOBAL_RATE_LIMIT", "5")
	t.Setenv("GLOBAL_RATE_WINDOW", "90")
	t.Setenv("GENERATE_RATE_LIMIT", "2")
	t.Setenv("GENERATE_RATE_WINDOW", "30s")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8")
	t.Setenv("STORAGE_TYPE", "redis")
	t.Setenv("REDIS_DB", "3")

	cfg, err := NewConfigLoader().LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, VariantOrigin, cfg.Variant)
	assert.Equal(t, []string{"example.com", "shop.example.org"}, cfg.AllowedDomains)
	assert.Equal(t, 5, cfg.GlobalRateLimit)
	assert.Equal(t, 90*time.Second, cfg.GlobalRateWindow)
	assert.Equal(t, 2, cfg.GenerateRateLimit)
	assert.Equal(t, 30*time.Second, cfg.GenerateRateWindow)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.TrustedProxies)
	assert.Equal(t, "redis", cfg.StorageType)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestConfigLoader_LoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		errorMsg string
	}{
		{
			name:     "Unknown variant",
			envVars:  map[string]string{"SERVICE_VARIANT": "both"},
			errorMsg: "SERVICE_VARIANT",
		},
		{
			name:     "Unknown environment",
			envVars:  map[string]string{"APP_ENV": "staging"},
			errorMsg: "APP_ENV",
		},
		{
			name:     "Invalid port",
			envVars:  map[string]string{"PORT": "http"},
			errorMsg: "PORT must be a valid port number",
		},
		{
			name:     "Zero global limit",
			envVars:  map[string]string{"GLOBAL_RATE_LIMIT": "0"},
			errorMsg: "GLOBAL_RATE_LIMIT must be greater than 0",
		},
		{
			name:     "Non numeric generate limit",
			envVars:  map[string]string{"GENERATE_RATE_LIMIT": "many"},
			errorMsg: "invalid GENERATE_RATE_LIMIT value",
		},
		{
			name:     "Bad window",
			envVars:  map[string]string{"GENERATE_RATE_WINDOW": "soon"},
			errorMsg: "invalid GENERATE_RATE_WINDOW value",
		},
		{
			name:     "Unknown storage",
			envVars:  map[string]string{"STORAGE_TYPE": "etcd"},
			errorMsg: "STORAGE_TYPE",
		},
		{
			name:     "Redis DB out of range",
			envVars:  map[string]string{"REDIS_DB": "16"},
			errorMsg: "REDIS_DB must be between 0 and 15",
		},
		{
			name: "Empty allow-list in production",
			envVars: map[string]string{
				"SERVICE_VARIANT": "origin",
				"APP_ENV":         "production",
			},
			errorMsg: "ALLOWED_DOMAINS must be set in production",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := NewConfigLoader().LoadConfig()

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestConfigLoader_AllowAnyOriginInProduction(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SERVICE_VARIANT", "origin")
	t.Setenv("APP_ENV", "production")
	t.Setenv("ALLOW_ANY_ORIGIN", "true")

	loader := NewConfigLoader()
	cfg, err := loader.LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.AllowAnyOrigin)
	assert.Contains(t, loader.Warnings(), "ALLOWED_DOMAINS is empty, every origin is admitted")
}

func TestConfig_RateLimitConfig(t *testing.T) {
	cfg := &Config{
		GlobalRateLimit:    100,
		GlobalRateWindow:   15 * time.Minute,
		GenerateRateLimit:  30,
		GenerateRateWindow: 5 * time.Minute,
	}

	rl := cfg.RateLimitConfig()

	require.Len(t, rl.Rules, 2)
	assert.Equal(t, domain.RateLimitRule{Scope: domain.GlobalScope, Limit: 100, Window: 15 * time.Minute}, rl.Rules[domain.GlobalScope])
	assert.Equal(t, domain.RateLimitRule{Scope: domain.GenerateScope, Limit: 30, Window: 5 * time.Minute}, rl.Rules[domain.GenerateScope])
}

func TestGetEnvWithDefault(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		expected     string
	}{
		{
			name:         "Environment variable exists",
			key:          "QR_TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			expected:     "custom",
		},
		{
			name:         "Environment variable is blank",
			key:          "QR_TEST_VAR",
			defaultValue: "default",
			envValue:     "   ",
			expected:     "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.envValue)
			assert.Equal(t, tt.expected, getEnvWithDefault(tt.key, tt.defaultValue))
		})
	}
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("900")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, d)

	d, err = parseDuration("5m")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, d)

	_, err = parseDuration("five minutes")
	assert.Error(t, err)
}
