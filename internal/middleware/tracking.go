package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/goatkit/storepulse/internal/auth"
	"github.com/goatkit/storepulse/internal/config"
	"github.com/goatkit/storepulse/internal/constants"
	"github.com/goatkit/storepulse/internal/models"
	"github.com/goatkit/storepulse/internal/service"
)

// Tracking records visitor presence on qualifying front-end requests. The
// identity is resolved once here, at the request boundary, and handed to
// the recorder as an explicit value; the recorder itself never touches the
// request. Recording is best-effort and never fails the request.
func Tracking(svc *service.TrackingService, jwtManager *auth.JWTManager, cfg config.TrackingConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !shouldTrack(c, cfg) {
			c.Next()
			return
		}

		identity := resolveIdentity(c, jwtManager, cfg)
		svc.RecordPresence(c.Request.Context(), identity)
		c.Next()
	}
}

// shouldTrack excludes administrative, API and background traffic so
// presence data only reflects human page views.
func shouldTrack(c *gin.Context, cfg config.TrackingConfig) bool {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		return false
	}
	// Background fetches from page scripts are not page views.
	if strings.EqualFold(c.GetHeader("X-Requested-With"), "XMLHttpRequest") {
		return false
	}
	path := c.Request.URL.Path
	for _, prefix := range cfg.SkipPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

// resolveIdentity builds the IdentityContext for this request: the
// authenticated platform user when a valid token is present, otherwise a
// guest keyed by a durable cookie token, minted on first sight.
func resolveIdentity(c *gin.Context, jwtManager *auth.JWTManager, cfg config.TrackingConfig) models.IdentityContext {
	if jwtManager != nil {
		if token := bearerOrCookieToken(c); token != "" {
			if claims, err := jwtManager.ValidateToken(token); err == nil && claims.UserID > 0 {
				return models.IdentityContext{UserID: claims.UserID}
			}
		}
	}

	cookieName := cfg.GuestCookieName()
	if token, err := c.Cookie(cookieName); err == nil && service.WellFormedGuestToken(token) {
		return models.IdentityContext{GuestToken: token}
	}

	// Malformed or missing token: mint a fresh one. 30 days, HttpOnly,
	// same-origin only.
	token := service.MintGuestToken(c.ClientIP(), c.Request.UserAgent())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieName, token, int(constants.GuestCookieMaxAge.Seconds()), "/", cfg.CookieDomain, false, true)
	return models.IdentityContext{GuestToken: token}
}

// bearerOrCookieToken pulls the platform token from the auth cookie or the
// Authorization header.
func bearerOrCookieToken(c *gin.Context) string {
	if token, err := c.Cookie("auth_token"); err == nil && token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	return ""
}
