package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"contact-crm/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("generates request id when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/test", nil)

		RequestIDMiddleware()(c)

		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("echoes caller-provided request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/test", nil)
		c.Request.Header.Set("X-Request-ID", "caller-supplied-id")

		RequestIDMiddleware()(c)

		assert.Equal(t, "caller-supplied-id", w.Header().Get("X-Request-ID"))
	})
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("restricts origin to frontend URL", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/test", nil)

		CORSMiddleware(config.CORSConfig{FrontendURL: "http://localhost:3000"})(c)

		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-User-ID")
	})

	t.Run("preflight requests short-circuit", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("OPTIONS", "/test", nil)

		CORSMiddleware(config.CORSConfig{AllowAll: true})(c)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.True(t, c.IsAborted())
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestNoStoreMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/test", nil)

	NoStoreMiddleware()(c)

	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
