package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nirajmohabey/habit-tracker/cache"
	"github.com/nirajmohabey/habit-tracker/config"
	"github.com/nirajmohabey/habit-tracker/db"
	"github.com/nirajmohabey/habit-tracker/handlers"
	"github.com/nirajmohabey/habit-tracker/mailer"
	"github.com/nirajmohabey/habit-tracker/middleware"
	"github.com/nirajmohabey/habit-tracker/routes"
	"github.com/nirajmohabey/habit-tracker/services"
	"github.com/nirajmohabey/habit-tracker/utils"
)

func main() {
	cfg := config.Load()

	logger := utils.NewLogger(cfg.Env)
	defer logger.Sync()
	utils.InitMetrics()

	logger.Info("starting_application", zap.String("env", cfg.Env))

	database, err := db.Connect(cfg, logger)
	if err != nil {
		logger.Fatal("database_connect_failed", zap.Error(err))
	}
	if err := db.Migrate(database); err != nil {
		logger.Fatal("migration_failed", zap.Error(err))
	}

	cacheClient, err := cache.New(cfg.RedisAddr, logger)
	if err != nil {
		logger.Warn("cache_unavailable", zap.Error(err))
	}
	defer cacheClient.Close()

	mail := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom, logger)

	sweeper := services.NewSweeper(database, logger, nil)
	dispatcher := services.NewDispatcher(database, logger, mail, sweeper, cfg.NotifySchedule, cfg.SweepSchedule, nil)
	if err := dispatcher.Start(); err != nil {
		logger.Fatal("dispatcher_start_failed", zap.Error(err))
	}
	defer dispatcher.Stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.SecurityHeaders())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Content-Length", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.CSRFEnabled {
		r.Use(middleware.CSRFProtection([]byte(cfg.CSRFKey), cfg.IsProduction()))
	}

	h := handlers.New(database, logger, cacheClient, mail, cfg, nil)
	routes.Register(r, h, cacheClient, cfg, logger)

	startServer(r, cfg, logger)
}

func startServer(router *gin.Engine, cfg *config.Config, logger *zap.Logger) {
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("starting_http_server", zap.String("port", cfg.Port))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http_server_failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting_down_server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server_forced_shutdown", zap.Error(err))
	}

	logger.Info("server_stopped")
}
