package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nirajmohabey/habit-tracker/db"
)

// Migrate idempotently creates or upgrades the schema. Exposed as an
// endpoint so a fresh deployment can be initialized without shell
// access to the database.
func (h *Handler) Migrate(c *gin.Context) {
	if err := db.Migrate(h.DB); err != nil {
		h.Logger.Error("migration_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Database migrated successfully",
		"tables":  []string{"users", "habits", "habit_logs", "sessions", "one_time_codes", "password_reset_tokens"},
	})
}
