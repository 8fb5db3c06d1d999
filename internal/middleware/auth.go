package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/goatkit/storepulse/internal/apierrors"
	"github.com/goatkit/storepulse/internal/auth"
)

// RequireAdmin guards the admin reporting surface. It accepts the platform
// token from the auth cookie or a bearer header and demands the Admin role.
func RequireAdmin(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerOrCookieToken(c)
		if token == "" {
			apierrors.Error(c, apierrors.CodeUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			apierrors.Error(c, apierrors.CodeInvalidToken)
			c.Abort()
			return
		}
		if claims.Role != auth.RoleAdmin {
			apierrors.Error(c, apierrors.CodeForbidden)
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)
		c.Next()
	}
}
