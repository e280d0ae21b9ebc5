package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qr-service/internal/handler"
	"qr-service/internal/logger"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen string

	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		seen = logger.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	t.Run("Generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		id := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, seen)
	})

	t.Run("Propagated", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "req-123", seen)
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, development := range []bool{false, true} {
		var buf bytes.Buffer
		log := logger.NewLoggerWithOutput("debug", "json", &buf)

		router := gin.New()
		router.Use(Recovery(handler.NewErrorResponder(development, log), log))
		router.GET("/panic", func(c *gin.Context) {
			panic("boom")
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/panic", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), handler.MsgInternalError)
		assert.Equal(t, development, bytes.Contains(w.Body.Bytes(), []byte("boom")))
		assert.Contains(t, buf.String(), "Recovered from panic")
	}
}

func TestAccessLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log := logger.NewLoggerWithOutput("info", "json", &buf)

	router := gin.New()
	router.Use(AccessLog(log))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusTeapot, "short and stout")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"path":"/test"`)
	assert.Contains(t, buf.String(), "Request completed")
}

func TestRequestID_LogsMaskedHeaderToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const secret = "super-secret-api-token"

	for _, header := range []string{"Authorization", "X-API-Token"} {
		t.Run(header, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.NewLoggerWithOutput("info", "json", &buf)

			router := gin.New()
			router.Use(RequestID(), AccessLog(log))
			router.GET("/test", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			value := secret
			if header == "Authorization" {
				value = "Bearer " + secret
			}
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set(header, value)
			router.ServeHTTP(httptest.NewRecorder(), req)

			assert.Contains(t, buf.String(), `"token":"supe***"`)
			assert.NotContains(t, buf.String(), secret)
		})
	}
}
