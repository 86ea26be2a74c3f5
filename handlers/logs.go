package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nirajmohabey/habit-tracker/middleware"
	"github.com/nirajmohabey/habit-tracker/models"
)

const dateLayout = "2006-01-02"

// GetLogs returns the flat list of logs inside the optional
// [start_date, end_date] window (inclusive).
func (h *Handler) GetLogs(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	query := h.DB.Where("user_id = ?", user.ID)

	if raw := c.Query("start_date"); raw != "" {
		start, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_date, expected YYYY-MM-DD"})
			return
		}
		query = query.Where("date >= ?", start)
	}
	if raw := c.Query("end_date"); raw != "" {
		end, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_date, expected YYYY-MM-DD"})
			return
		}
		query = query.Where("date <= ?", end)
	}

	var logs []models.HabitLog
	if err := query.Order("date").Find(&logs).Error; err != nil {
		h.Logger.Error("get_logs_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load logs"})
		return
	}

	out := make([]gin.H, 0, len(logs))
	for _, log := range logs {
		out = append(out, gin.H{
			"id":        log.ID,
			"habit_id":  log.HabitID,
			"date":      log.Date.Format(dateLayout),
			"completed": log.Completed,
		})
	}
	c.JSON(http.StatusOK, out)
}

// GetDailyLogs groups logs by date: {date: {habit_id: completed}}.
// Defaults to the current month; end_date is exclusive.
func (h *Handler) GetDailyLogs(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	now := h.Now().UTC()

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_date, expected YYYY-MM-DD"})
			return
		}
		start = parsed
	}
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_date, expected YYYY-MM-DD"})
			return
		}
		end = parsed
	}

	var logs []models.HabitLog
	err := h.DB.Where("user_id = ? AND date >= ? AND date < ?", user.ID, start, end).
		Find(&logs).Error
	if err != nil {
		h.Logger.Error("get_daily_logs_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load logs"})
		return
	}

	daily := map[string]map[string]bool{}
	for _, log := range logs {
		day := log.Date.Format(dateLayout)
		if daily[day] == nil {
			daily[day] = map[string]bool{}
		}
		daily[day][log.HabitID.String()] = log.Completed
	}
	c.JSON(http.StatusOK, daily)
}

// ToggleLog upserts the (habit, date) completion record. Future dates
// are rejected, and a past day the sweep already marked missed is
// immutable; a completed day may still be un-toggled by its owner.
func (h *Handler) ToggleLog(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var input struct {
		HabitID   string `json:"habit_id" binding:"required"`
		Date      string `json:"date" binding:"required"`
		Completed *bool  `json:"completed"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "habit_id and date are required"})
		return
	}

	habitID, err := uuid.Parse(input.HabitID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid habit ID"})
		return
	}

	logDate, err := time.ParseInLocation(dateLayout, input.Date, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}
	logDate = models.DateOnly(logDate)

	today := models.DateOnly(h.Now().UTC())
	if logDate.After(today) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot log a future date"})
		return
	}

	completed := true
	if input.Completed != nil {
		completed = *input.Completed
	}

	var habit models.Habit
	if err := h.DB.Where("id = ? AND user_id = ?", habitID, user.ID).First(&habit).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Habit not found"})
		return
	}

	var log models.HabitLog
	err = h.DB.Where("user_id = ? AND habit_id = ? AND date = ?", user.ID, habitID, logDate).
		First(&log).Error
	if err == nil {
		// A past day already marked missed stays missed.
		if !log.Completed && logDate.Before(today) {
			c.JSON(http.StatusForbidden, gin.H{"error": "A missed past day cannot be changed"})
			return
		}
		log.Completed = completed
		if err := h.DB.Save(&log).Error; err != nil {
			h.Logger.Error("toggle_log_failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update log"})
			return
		}
	} else {
		log = models.HabitLog{
			UserID:    user.ID,
			HabitID:   habitID,
			Date:      logDate,
			Completed: completed,
		}
		if err := h.DB.Create(&log).Error; err != nil {
			h.Logger.Error("toggle_log_failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save log"})
			return
		}
	}

	h.invalidateStats(user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Log updated", "id": log.ID, "completed": log.Completed})
}
