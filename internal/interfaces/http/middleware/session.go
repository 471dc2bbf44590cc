package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/session"
)

const sessionKey = "session"

// Session derives the buyer session from its cookie, issuing a new token when
// the cookie is missing or malformed. The cookie is refreshed on every
// request so it outlives active buyers.
func Session(storage session.Storage, cfg config.SessionConfig, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, _ := c.Cookie(cfg.CookieName)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		sess, err := session.Bootstrap(ctx, storage, cookie)
		cancel()
		if err != nil {
			logger.WithFields(logrus.Fields{
				"request_id": c.GetString(RequestIDKey),
				"error":      err.Error(),
			}).Error("Session bootstrap failed")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":     "Session storage unavailable",
				"retryable": true,
			})
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cfg.CookieName, sess.ID(), int(cfg.TTL.Seconds()), "/", cfg.CookieDomain, cfg.CookieSecure, true)
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// SessionFromContext returns the session set by Session
func SessionFromContext(c *gin.Context) *session.Context {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(*session.Context); ok {
			return sess
		}
	}
	return nil
}
