package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nirajmohabey/habit-tracker/cache"
	"github.com/nirajmohabey/habit-tracker/config"
	"github.com/nirajmohabey/habit-tracker/mailer"
	"github.com/nirajmohabey/habit-tracker/middleware"
	"github.com/nirajmohabey/habit-tracker/models"
	"github.com/nirajmohabey/habit-tracker/services"
	"github.com/nirajmohabey/habit-tracker/utils"
)

// Handler carries the explicit application context every endpoint needs.
// Now is injectable so handler tests can pin the calendar.
type Handler struct {
	DB     *gorm.DB
	Logger *zap.Logger
	Cache  *cache.Cache
	Mailer mailer.Mailer
	Cfg    *config.Config
	Stats  *services.Stats
	Now    func() time.Time
}

func New(database *gorm.DB, logger *zap.Logger, c *cache.Cache, m mailer.Mailer, cfg *config.Config, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		DB:     database,
		Logger: logger,
		Cache:  c,
		Mailer: m,
		Cfg:    cfg,
		Stats:  services.NewStats(database, logger, now),
		Now:    now,
	}
}

// statsCacheKey is the per-user key for cached aggregation responses.
func statsCacheKey(userID uuid.UUID, endpoint string) string {
	return fmt.Sprintf("stats:%s:%s", userID, endpoint)
}

// invalidateStats drops every cached aggregation for the user. Called
// after any habit or log mutation.
func (h *Handler) invalidateStats(userID uuid.UUID) {
	if err := h.Cache.DeletePattern(fmt.Sprintf("stats:%s:*", userID)); err != nil {
		h.Logger.Warn("cache_invalidate_failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

// createSession stores a session row and sets the login cookie.
func (h *Handler) createSession(c *gin.Context, userID uuid.UUID) error {
	token, err := utils.RandomToken(32)
	if err != nil {
		return err
	}

	session := models.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: h.Now().UTC().Add(h.Cfg.SessionTTL),
	}
	if err := h.DB.Create(&session).Error; err != nil {
		return err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(h.Cfg.SessionTTL.Seconds()), "/", "", h.Cfg.IsProduction(), true)
	return nil
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.Cfg.IsProduction(), true)
}

func userPayload(user models.User) gin.H {
	return gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	}
}
