package auth

import (
	"net/http"
	"strings"

	"contact-crm/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OwnerContextKey is the gin context key holding the authenticated owner id.
const OwnerContextKey = "owner_id"

// APIKeyMiddleware validates the API key and resolves the acting owner
// before any contact data is touched. The owner identity arrives in the
// X-User-ID header; session handling itself lives outside this service.
func APIKeyMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check X-API-Key header first (primary method)
		apiKey := c.GetHeader("X-API-Key")

		// Fallback to Authorization header
		if apiKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "ApiKey ") {
				apiKey = strings.TrimPrefix(authHeader, "ApiKey ")
			}
		}

		if apiKey == "" {
			abortUnauthorized(c, "MISSING_API_KEY",
				"API key is required. Provide X-API-Key header or Authorization: ApiKey <key>")
			return
		}

		if apiKey != cfg.External.APIKey {
			abortUnauthorized(c, "INVALID_API_KEY", "Invalid API key provided")
			return
		}

		ownerHeader := c.GetHeader("X-User-ID")
		if ownerHeader == "" {
			abortUnauthorized(c, "MISSING_USER_ID", "X-User-ID header is required")
			return
		}

		ownerID, err := uuid.Parse(ownerHeader)
		if err != nil {
			abortUnauthorized(c, "INVALID_USER_ID", "X-User-ID must be a valid UUID")
			return
		}

		c.Set(OwnerContextKey, ownerID)
		c.Next()
	}
}

// OwnerID returns the authenticated owner id from the request context.
func OwnerID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(OwnerContextKey)
	if !ok {
		return uuid.Nil, false
	}
	ownerID, ok := value.(uuid.UUID)
	return ownerID, ok
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
