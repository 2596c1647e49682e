package middleware

import (
	"errors"
	"net/http"
	"strings"

	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ClaimsKey = "claims"
	UserIDKey = "userID"
	EmailKey  = "email"
	RoleKey   = "role"
)

// TokenVerifier turns a bearer token into its claims.
type TokenVerifier interface {
	ValidateToken(tokenString string) (*service.Claims, error)
}

func abortUnauthorized(c *gin.Context, reason, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message, "reason": reason})
}

// AuthMiddleware is a Gin middleware for JWT authentication of API requests.
// It checks for the presence and validity of a bearer token in the Authorization header.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "UNAUTHORIZED", "missing authorization header")
			return
		}

		// format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			abortUnauthorized(c, "UNAUTHORIZED", "invalid authorization header format")
			return
		}

		claims, err := verifier.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, service.ErrExpiredToken) {
				abortUnauthorized(c, service.ErrExpiredToken.Reason, service.ErrExpiredToken.Message)
				return
			}
			abortUnauthorized(c, service.ErrInvalidToken.Reason, service.ErrInvalidToken.Message)
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)
		c.Set(RoleKey, claims.Role)

		c.Next()
	}
}

// RequireRole checks if the user has the specified role
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(RoleKey)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role not found in token", "reason": "FORBIDDEN"})
			return
		}
		if role != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":    "insufficient permissions",
				"reason":   "FORBIDDEN",
				"required": requiredRole,
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin is a convenience function for requiring admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}
