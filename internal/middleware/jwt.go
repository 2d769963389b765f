package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pchs-registration-api/internal/models"
	appErrors "github.com/noah-isme/pchs-registration-api/pkg/errors"
	"github.com/noah-isme/pchs-registration-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// TokenValidator verifies session tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

var (
	errNoToken      = appErrors.Clone(appErrors.ErrUnauthorized, "Access denied. No token provided.")
	errInvalidToken = appErrors.Clone(appErrors.ErrForbidden, "Invalid or expired token.")
)

// JWT protects routes by requiring a valid bearer token.
// A missing token yields 401; a malformed, invalid or expired one yields 403.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			response.Error(c, errNoToken)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, errInvalidToken)
			c.Abort()
			return
		}
		token := strings.TrimSpace(parts[1])
		if token == "" {
			response.Error(c, errNoToken)
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			response.Error(c, errInvalidToken)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}
