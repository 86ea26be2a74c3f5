package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nirajmohabey/habit-tracker/cache"
	"github.com/nirajmohabey/habit-tracker/config"
	"github.com/nirajmohabey/habit-tracker/handlers"
	"github.com/nirajmohabey/habit-tracker/middleware"
)

// Register wires every endpoint onto the engine. Auth endpoints are
// rate limited; everything under the session group requires a live
// session.
func Register(r *gin.Engine, h *handlers.Handler, c *cache.Cache, cfg *config.Config, logger *zap.Logger) {
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limited := middleware.RateLimit(c, logger, cfg.RateLimitPerMinute, time.Minute)

	api := r.Group("/api")
	{
		api.POST("/login", limited, h.Login)
		api.POST("/signup", limited, h.Signup)
		api.POST("/signup/verify", limited, h.VerifySignup)
		api.POST("/password/forgot", limited, h.ForgotPassword)
		api.POST("/password/verify", limited, h.VerifyResetToken)
		api.POST("/password/reset", limited, h.ResetPassword)
		api.GET("/check-auth", h.CheckAuth)
		api.GET("/migrate", h.Migrate)
		api.POST("/migrate", h.Migrate)
	}

	session := api.Group("")
	session.Use(middleware.Auth(h.DB, logger, h.Now))
	{
		session.POST("/logout", h.Logout)

		session.GET("/habits", h.GetHabits)
		session.POST("/habits", h.CreateHabit)
		session.PUT("/habits/:id", h.UpdateHabit)
		session.DELETE("/habits/:id", h.DeleteHabit)

		session.GET("/logs", h.GetLogs)
		session.POST("/logs", h.ToggleLog)
		session.GET("/daily-logs", h.GetDailyLogs)

		session.GET("/stats", h.GetStats)
		session.GET("/streaks", h.GetStreaks)
		session.GET("/scorecard", h.GetScorecard)
		session.GET("/badges", h.GetBadges)
		session.GET("/insights", h.GetInsights)

		session.GET("/notifications", h.GetNotificationPrefs)
		session.PUT("/notifications", h.UpdateNotificationPrefs)
	}
}
