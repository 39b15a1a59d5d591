package middleware

import (
	"errors"
	"net/http"
	"strings"

	"taskboard/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
)

type AuthzConfig struct {
	Secret string
	Issuer string
	// Role, when set, is the only role allowed through.
	Role string
}

func AuthzMiddleware(config AuthzConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must use Bearer token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
		if config.Issuer != "" {
			options = append(options, jwt.WithIssuer(config.Issuer))
		}

		claims := &services.AccessClaims{}
		_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(config.Secret), nil
		}, options...)
		if err != nil {
			message := "Token validation failed"
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				message = "Token has expired"
			case errors.Is(err, jwt.ErrTokenInvalidIssuer):
				message = "Token issuer is invalid"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
			return
		}

		if config.Role != "" && claims.Role != config.Role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "User role does not have access to this resource"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, claims.Role)

		c.Next()
	}
}

// UserID returns the authenticated user id stored by AuthzMiddleware.
func UserID(c *gin.Context) (uint, bool) {
	value, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}
