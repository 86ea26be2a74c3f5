package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nirajmohabey/habit-tracker/middleware"
	"github.com/nirajmohabey/habit-tracker/services"
)

const statsCacheTTL = 5 * time.Minute

// GetStats serves the monthly per-habit and per-category numbers,
// cached per user until the next mutation.
func (h *Handler) GetStats(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	key := statsCacheKey(user.ID, "monthly")

	var cached services.MonthlyStats
	if err := h.Cache.Get(key, &cached); err == nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	stats, err := h.Stats.MonthlyStats(user.ID)
	if err != nil {
		h.Logger.Error("get_stats_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	if err := h.Cache.Set(key, stats, statsCacheTTL); err != nil {
		h.Logger.Warn("stats_cache_set_failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetStreaks(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	streaks, err := h.Stats.Streaks(user.ID)
	if err != nil {
		h.Logger.Error("get_streaks_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute streaks"})
		return
	}
	c.JSON(http.StatusOK, streaks)
}

// GetScorecard serves the weekly breakdown for ?month=YYYY-MM
// (default: current month).
func (h *Handler) GetScorecard(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	now := h.Now().UTC()

	year, month := now.Year(), now.Month()
	if raw := c.Query("month"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month, expected YYYY-MM"})
			return
		}
		year, month = parsed.Year(), parsed.Month()
	}

	scorecard, err := h.Stats.Scorecard(user.ID, year, month)
	if err != nil {
		h.Logger.Error("get_scorecard_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute scorecard"})
		return
	}
	c.JSON(http.StatusOK, scorecard)
}

func (h *Handler) GetBadges(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	badges, err := h.Stats.Badges(user.ID)
	if err != nil {
		h.Logger.Error("get_badges_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute badges"})
		return
	}
	c.JSON(http.StatusOK, badges)
}

func (h *Handler) GetInsights(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	insights, err := h.Stats.Insights(user.ID)
	if err != nil {
		h.Logger.Error("get_insights_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute insights"})
		return
	}
	c.JSON(http.StatusOK, insights)
}
