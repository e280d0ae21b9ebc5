package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"qr-service/internal/domain"
	"qr-service/internal/logger"
)

// MockEncoder é um mock do Encoder para testes
type MockEncoder struct {
	mock.Mock
}

func (m *MockEncoder) Encode(req domain.QRRequest) (*domain.Image, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Image), args.Error(1)
}

func (m *MockEncoder) ContentType() string {
	return domain.ContentTypeSVG
}

// MockRateLimiterService é um mock do RateLimiterService para testes
type MockRateLimiterService struct {
	mock.Mock
}

func (m *MockRateLimiterService) CheckLimit(ctx context.Context, scope domain.RateLimitScope, clientKey string) (*domain.RateLimitResult, error) {
	args := m.Called(ctx, scope, clientKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateLimitResult), args.Error(1)
}

func (m *MockRateLimiterService) GetRule(scope domain.RateLimitScope) (domain.RateLimitRule, bool) {
	args := m.Called(scope)
	return args.Get(0).(domain.RateLimitRule), args.Bool(1)
}

func (m *MockRateLimiterService) GetStatus(ctx context.Context, scope domain.RateLimitScope, clientKey string) (*domain.RateWindow, error) {
	args := m.Called(ctx, scope, clientKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateWindow), args.Error(1)
}

func (m *MockRateLimiterService) Reset(ctx context.Context, scope domain.RateLimitScope, clientKey string) error {
	args := m.Called(ctx, scope, clientKey)
	return args.Error(0)
}

func newTestHandlers(encoder domain.Encoder, service domain.RateLimiterService) *Handlers {
	gin.SetMode(gin.TestMode)
	log := logger.NewLoggerWithOutput("debug", "json", io.Discard)
	return NewHandlers(encoder, service, NewErrorResponder(false, log), log)
}

func serve(route, method, path string, body io.Reader, h gin.HandlerFunc) *httptest.ResponseRecorder {
	router := gin.New()
	router.Handle(method, route, h)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, body))
	return w
}

func TestHealthHandler(t *testing.T) {
	h := newTestHandlers(new(MockEncoder), nil)

	w := serve("/health", "GET", "/health", nil, h.HealthHandler)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRootHandler(t *testing.T) {
	h := newTestHandlers(new(MockEncoder), nil)

	w := serve("/", "GET", "/", nil, h.RootHandler)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Banner, w.Body.String())
}

func TestGenerateQRHandler(t *testing.T) {
	encoder := new(MockEncoder)
	h := newTestHandlers(encoder, nil)

	expected := domain.QRRequest{
		Content:              "hi",
		ErrorCorrectionLevel: domain.ECLLow,
		Size:                 120,
		DarkColor:            "#ff0000",
		LightColor:           domain.DefaultLightColor,
		Credential:           "t",
	}
	encoder.On("Encode", expected).Return(&domain.Image{Bytes: []byte{0x89, 'P', 'N', 'G'}, ContentType: domain.ContentTypePNG}, nil)

	w := serve("/generate-qr", "POST", "/generate-qr",
		strings.NewReader(`{"data":"hi","token":"t","errorCorrectionLevel":"L","darkColor":"#ff0000","width":120}`),
		h.GenerateQRHandler)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.ContentTypePNG, w.Header().Get("Content-Type"))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, w.Body.Bytes())
	encoder.AssertExpectations(t)
}

func TestGenerateQRHandler_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		contains string
	}{
		{"Malformed JSON", `{"data":`, http.StatusBadRequest, "Invalid JSON body"},
		{"Empty body", ``, http.StatusBadRequest, "Invalid JSON body"},
		{"Missing data", `{"token":"t"}`, http.StatusBadRequest, "Missing required parameter: data"},
		{"Empty data", `{"data":""}`, http.StatusBadRequest, "must not be empty"},
		{"Size too small", `{"data":"x","width":10}`, http.StatusBadRequest, "Invalid size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder := new(MockEncoder)
			h := newTestHandlers(encoder, nil)

			w := serve("/generate-qr", "POST", "/generate-qr", strings.NewReader(tt.body), h.GenerateQRHandler)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
			encoder.AssertNumberOfCalls(t, "Encode", 0)
		})
	}
}

func TestQRCodeHandler(t *testing.T) {
	encoder := new(MockEncoder)
	h := newTestHandlers(encoder, nil)
	encoder.On("Encode", mock.MatchedBy(func(r domain.QRRequest) bool {
		return r.Content == "abc" && r.Size == 64 && r.ErrorCorrectionLevel == domain.ECLHigh
	})).Return(&domain.Image{Bytes: []byte("<svg/>"), ContentType: domain.ContentTypeSVG}, nil)

	w := serve("/qr", "GET", "/qr?data=abc&size=64&ecl=H", nil, h.QRCodeHandler)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.ContentTypeSVG, w.Header().Get("Content-Type"))
	assert.Equal(t, "<svg/>", w.Body.String())
}

func TestQRCodeHandler_EncoderErrorIsWrapped(t *testing.T) {
	encoder := new(MockEncoder)
	h := newTestHandlers(encoder, nil)
	encoder.On("Encode", mock.Anything).Return(nil, errors.New("raw failure"))

	w := serve("/qr", "GET", "/qr?data=abc", nil, h.QRCodeHandler)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to generate QR code"}`, w.Body.String())
}

func TestMetricsHandler(t *testing.T) {
	service := new(MockRateLimiterService)
	service.On("GetRule", domain.GlobalScope).Return(domain.RateLimitRule{Scope: domain.GlobalScope, Limit: 100, Window: 15 * time.Minute}, true)
	service.On("GetRule", domain.GenerateScope).Return(domain.RateLimitRule{Scope: domain.GenerateScope, Limit: 30, Window: 5 * time.Minute}, true)
	h := newTestHandlers(new(MockEncoder), service)

	w := serve("/metrics", "GET", "/metrics", nil, h.MetricsHandler)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "QR Code Service", body["service"])
	assert.Equal(t, domain.ContentTypeSVG, body["encoder"])
	limits := body["rate_limits"].(map[string]interface{})
	assert.Equal(t, float64(900), limits["global"].(map[string]interface{})["window_seconds"])
}

func TestAdminHandlers(t *testing.T) {
	service := new(MockRateLimiterService)
	rule := domain.RateLimitRule{Scope: domain.GenerateScope, Limit: 30, Window: 5 * time.Minute}
	service.On("GetRule", domain.GenerateScope).Return(rule, true)
	service.On("GetRule", mock.Anything).Return(domain.RateLimitRule{}, false)
	start := time.Now()
	service.On("GetStatus", mock.Anything, domain.GenerateScope, "10.0.0.1").
		Return(&domain.RateWindow{Count: 35, WindowStart: start, Window: rule.Window}, nil)
	service.On("GetStatus", mock.Anything, domain.GenerateScope, "10.0.0.2").Return(nil, errors.New("redis down"))
	service.On("Reset", mock.Anything, domain.GenerateScope, "10.0.0.1").Return(nil)

	h := newTestHandlers(new(MockEncoder), service)

	t.Run("Status", func(t *testing.T) {
		w := serve("/admin/status", "GET", "/admin/status?scope=GENERATE&key=10.0.0.1", nil, h.AdminStatusHandler)

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, float64(35), body["count"])
		assert.Equal(t, float64(0), body["remaining"])
		assert.Equal(t, float64(start.Add(rule.Window).Unix()), body["reset_time"])
	})

	t.Run("Status storage error", func(t *testing.T) {
		w := serve("/admin/status", "GET", "/admin/status?scope=generate&key=10.0.0.2", nil, h.AdminStatusHandler)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "redis down")
	})

	t.Run("Unknown scope", func(t *testing.T) {
		w := serve("/admin/status", "GET", "/admin/status?scope=ip&key=10.0.0.1", nil, h.AdminStatusHandler)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Reset", func(t *testing.T) {
		w := serve("/admin/reset", "POST", "/admin/reset?scope=generate&key=10.0.0.1", nil, h.AdminResetHandler)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "rate limit reset")
	})

	t.Run("Disabled without rate limiter", func(t *testing.T) {
		noLimiter := newTestHandlers(new(MockEncoder), nil)
		w := serve("/admin/status", "GET", "/admin/status?scope=generate&key=x", nil, noLimiter.AdminStatusHandler)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	service.AssertCalled(t, "Reset", mock.Anything, domain.GenerateScope, "10.0.0.1")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.0 KB", formatBytes(1024))
	assert.Equal(t, "1.5 MB", formatBytes(1536*1024))
}
