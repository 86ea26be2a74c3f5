package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nirajmohabey/habit-tracker/models"
)

// SessionCookie is the name of the login cookie.
const SessionCookie = "session_token"

// Auth resolves the session token, loads the user, and puts it on the
// context. Requests without a live session are rejected. The clock is
// injected so expiry checks agree with the one used to mint sessions.
func Auth(database *gorm.DB, logger *zap.Logger, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := ResolveSession(database, logger, c, now)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		c.Set("user", user)
		c.Next()
	}
}

// ResolveSession looks up the request's session token (cookie first,
// Authorization: Bearer as a fallback for non-browser clients) and
// returns its user. Expired sessions are deleted on sight.
func ResolveSession(database *gorm.DB, logger *zap.Logger, c *gin.Context, now func() time.Time) (models.User, bool) {
	if now == nil {
		now = time.Now
	}

	token := SessionToken(c)
	if token == "" {
		return models.User{}, false
	}

	var session models.Session
	if err := database.Where("token = ?", token).First(&session).Error; err != nil {
		return models.User{}, false
	}

	if now().UTC().After(session.ExpiresAt) {
		database.Delete(&session)
		return models.User{}, false
	}

	var user models.User
	if err := database.First(&user, "id = ?", session.UserID).Error; err != nil {
		logger.Warn("session_user_missing",
			zap.String("session_id", session.ID.String()),
			zap.Error(err),
		)
		return models.User{}, false
	}
	return user, true
}

// SessionToken extracts the raw session token from the request.
func SessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// CurrentUser pulls the authenticated user set by Auth. The second
// return is false on routes that skipped the middleware.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, exists := c.Get("user")
	if !exists {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}
