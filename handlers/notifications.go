package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nirajmohabey/habit-tracker/middleware"
	"github.com/nirajmohabey/habit-tracker/models"
)

type notificationPrefs struct {
	Enabled   bool   `json:"enabled"`
	Time      string `json:"time" validate:"required,datetime=15:04"`
	Frequency string `json:"frequency" validate:"required,oneof=daily weekly both"`
}

// GetNotificationPrefs returns the user's reminder settings.
func (h *Handler) GetNotificationPrefs(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, notificationPrefs{
		Enabled:   user.NotifyEnabled,
		Time:      user.NotifyTime,
		Frequency: user.NotifyFrequency,
	})
}

// UpdateNotificationPrefs validates and stores reminder settings.
func (h *Handler) UpdateNotificationPrefs(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var input notificationPrefs
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if err := middleware.ValidateStruct(input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "time must be HH:MM and frequency one of daily, weekly, both"})
		return
	}

	updates := map[string]interface{}{
		"notify_enabled":   input.Enabled,
		"notify_time":      input.Time,
		"notify_frequency": input.Frequency,
	}
	if err := h.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		h.Logger.Error("update_prefs_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update preferences"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Preferences updated", "preferences": input})
}
