package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vzahanych/ph-weather/internal/server/utils"
	"go.uber.org/zap"
)

const (
	SessionIDHeader = "X-Session-ID"
	SessionCookie   = "weather_session"
)

// SessionMiddleware identifies the caller's UI session from the X-Session-ID
// header or the session cookie, issuing a fresh UUID when neither holds one.
func SessionMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(SessionIDHeader)
		if sessionID == "" {
			if cookie, err := c.Cookie(SessionCookie); err == nil {
				sessionID = cookie
			}
		}

		if id, err := uuid.Parse(sessionID); err == nil {
			sessionID = id.String()
		} else {
			sessionID = uuid.New().String()
			logger.Debug("Issued new session", zap.String("session_id", sessionID))
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, sessionID, 0, "/", "", false, true)
		c.Header(SessionIDHeader, sessionID)
		c.Set(utils.SessionIDKey, sessionID)

		c.Next()
	}
}
