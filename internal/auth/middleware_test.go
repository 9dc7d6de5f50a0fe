package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"contact-crm/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAPIKeyMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testConfig := &config.Config{
		External: config.ExternalConfig{
			APIKey: "test-api-key-12345",
		},
	}
	ownerID := uuid.New()

	t.Run("valid API key in X-API-Key header", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/test", nil)
		c.Request.Header.Set("X-API-Key", "test-api-key-12345")
		c.Request.Header.Set("X-User-ID", ownerID.String())

		middleware := APIKeyMiddleware(testConfig)
		middleware(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, c.IsAborted())

		got, ok := OwnerID(c)
		assert.True(t, ok)
		assert.Equal(t, ownerID, got)
	})

	t.Run("valid API key in Authorization header", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/test", nil)
		c.Request.Header.Set("Authorization", "ApiKey test-api-key-12345")
		c.Request.Header.Set("X-User-ID", ownerID.String())

		middleware := APIKeyMiddleware(testConfig)
		middleware(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, c.IsAborted())
	})

	t.Run("missing API key", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/test", nil)
		c.Request.Header.Set("X-User-ID", ownerID.String())

		middleware := APIKeyMiddleware(testConfig)
		middleware(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.True(t, c.IsAborted())
		assert.Contains(t, w.Body.String(), "MISSING_API_KEY")
	})

	t.Run("invalid API key", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/test", nil)
		c.Request.Header.Set("X-API-Key", "wrong-key")
		c.Request.Header.Set("X-User-ID", ownerID.String())

		middleware := APIKeyMiddleware(testConfig)
		middleware(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.True(t, c.IsAborted())
		assert.Contains(t, w.Body.String(), "INVALID_API_KEY")
	})

	t.Run("missing X-User-ID header", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/test", nil)
		c.Request.Header.Set("X-API-Key", "test-api-key-12345")

		middleware := APIKeyMiddleware(testConfig)
		middleware(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.True(t, c.IsAborted())
		assert.Contains(t, w.Body.String(), "MISSING_USER_ID")
	})

	t.Run("malformed X-User-ID header", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/test", nil)
		c.Request.Header.Set("X-API-Key", "test-api-key-12345")
		c.Request.Header.Set("X-User-ID", "not-a-uuid")

		middleware := APIKeyMiddleware(testConfig)
		middleware(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.True(t, c.IsAborted())
		assert.Contains(t, w.Body.String(), "INVALID_USER_ID")
	})

	t.Run("Bearer prefix is not accepted", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/test", nil)
		c.Request.Header.Set("Authorization", "Bearer test-api-key-12345")
		c.Request.Header.Set("X-User-ID", ownerID.String())

		middleware := APIKeyMiddleware(testConfig)
		middleware(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "MISSING_API_KEY")
	})
}

func TestOwnerID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("returns stored owner id", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		ownerID := uuid.New()
		c.Set(OwnerContextKey, ownerID)

		got, ok := OwnerID(c)
		assert.True(t, ok)
		assert.Equal(t, ownerID, got)
	})

	t.Run("missing owner id", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())

		got, ok := OwnerID(c)
		assert.False(t, ok)
		assert.Equal(t, uuid.Nil, got)
	})

	t.Run("wrong type under key", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(OwnerContextKey, "not-a-uuid-value")

		got, ok := OwnerID(c)
		assert.False(t, ok)
		assert.Equal(t, uuid.Nil, got)
	})
}
