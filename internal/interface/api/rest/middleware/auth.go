package middleware

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"users-svc/internal/infrastructure/jwt"
)

const (
	HeaderInternalToken = "X-Internal-Token"

	CtxUserRoles = "userRoles"
	CtxUserID    = "userID"
	CtxPrincipal = "principal"

	PrincipalInternal = "internal-service"
)

// AuthMiddleware accepts either a service token in X-Internal-Token or a
// bearer JWT. internalToken is base64, both sides are decoded before the
// comparison. An empty internalToken disables the service path.
func AuthMiddleware(jwtService *jwt.Service, internalToken string) gin.HandlerFunc {
	expected, err := base64.StdEncoding.DecodeString(internalToken)
	if err != nil {
		expected = nil
	}

	return func(c *gin.Context) {
		if provided := c.GetHeader(HeaderInternalToken); provided != "" && len(expected) > 0 {
			got, err := base64.StdEncoding.DecodeString(provided)
			if err == nil && subtle.ConstantTimeCompare(got, expected) == 1 {
				c.Set(CtxPrincipal, PrincipalInternal)
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "missing Authorization header"},
			)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "invalid token format"},
			)
			return
		}

		claims, err := jwtService.ValidateToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "invalid token"},
			)
			return
		}

		c.Set(CtxPrincipal, claims.UserID)
		c.Set(CtxUserRoles, claims.Roles)
		c.Set(CtxUserID, claims.UserID)

		c.Next()
	}
}
