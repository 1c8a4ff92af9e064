package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionHeader is the header carrying the per-browser-session identifier
// generated by the storefront client.
const SessionHeader = "X-MultiKonnect-Session-ID"

const sessionContextKey = "sessionId"

// SessionMiddleware requires the session header and stores its value in the
// request context for handlers.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(SessionHeader)
		if sessionID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Session ID required"})
			return
		}
		c.Set(sessionContextKey, sessionID)
		c.Next()
	}
}

// GetSessionID returns the session id stored by SessionMiddleware.
func GetSessionID(c *gin.Context) (string, bool) {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return "", false
	}
	sessionID, ok := value.(string)
	return sessionID, ok && sessionID != ""
}
