package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nirajmohabey/habit-tracker/middleware"
	"github.com/nirajmohabey/habit-tracker/models"
)

// GetHabits lists the user's habits in creation order.
func (h *Handler) GetHabits(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var habits []models.Habit
	if err := h.DB.Where("user_id = ?", user.ID).Order("created_at").Find(&habits).Error; err != nil {
		h.Logger.Error("get_habits_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load habits"})
		return
	}
	c.JSON(http.StatusOK, habits)
}

func (h *Handler) CreateHabit(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var input struct {
		Name     string `json:"name" binding:"required,max=100"`
		Emoji    string `json:"emoji"`
		Category string `json:"category"`
		Goal     *int   `json:"goal"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Habit name is required"})
		return
	}

	habit := models.Habit{
		UserID:   user.ID,
		Name:     input.Name,
		Emoji:    orDefault(input.Emoji, "✅"),
		Category: orDefault(input.Category, "Other"),
		Goal:     30,
	}
	if input.Goal != nil {
		if *input.Goal < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Goal must not be negative"})
			return
		}
		habit.Goal = *input.Goal
	}

	if err := h.DB.Create(&habit).Error; err != nil {
		h.Logger.Error("create_habit_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create habit"})
		return
	}

	h.invalidateStats(user.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "Habit created", "habit": habit})
}

// UpdateHabit applies a partial update to an owned habit.
func (h *Handler) UpdateHabit(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	habit, ok := h.ownedHabit(c, user.ID)
	if !ok {
		return
	}

	var input struct {
		Name     *string `json:"name"`
		Emoji    *string `json:"emoji"`
		Category *string `json:"category"`
		Goal     *int    `json:"goal"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if input.Name != nil {
		if *input.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Habit name must not be empty"})
			return
		}
		habit.Name = *input.Name
	}
	if input.Emoji != nil {
		habit.Emoji = *input.Emoji
	}
	if input.Category != nil {
		habit.Category = *input.Category
	}
	if input.Goal != nil {
		if *input.Goal < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Goal must not be negative"})
			return
		}
		habit.Goal = *input.Goal
	}

	if err := h.DB.Save(&habit).Error; err != nil {
		h.Logger.Error("update_habit_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update habit"})
		return
	}

	h.invalidateStats(user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Habit updated", "habit": habit})
}

// DeleteHabit removes an owned habit and all of its logs.
func (h *Handler) DeleteHabit(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	habit, ok := h.ownedHabit(c, user.ID)
	if !ok {
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("habit_id = ? AND user_id = ?", habit.ID, user.ID).
			Delete(&models.HabitLog{}).Error; err != nil {
			return err
		}
		return tx.Delete(&habit).Error
	})
	if err != nil {
		h.Logger.Error("delete_habit_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete habit"})
		return
	}

	h.invalidateStats(user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Habit deleted"})
}

// ownedHabit resolves the :id param to a habit belonging to userID.
// Foreign or unknown ids are reported as 404, invalid uuids as 400.
func (h *Handler) ownedHabit(c *gin.Context, userID uuid.UUID) (models.Habit, bool) {
	habitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid habit ID"})
		return models.Habit{}, false
	}

	var habit models.Habit
	if err := h.DB.Where("id = ? AND user_id = ?", habitID, userID).First(&habit).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Habit not found"})
		return models.Habit{}, false
	}
	return habit, true
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
