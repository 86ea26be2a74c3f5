package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nirajmohabey/habit-tracker/config"
	"github.com/nirajmohabey/habit-tracker/models"
)

// Connect opens the database described by cfg. A DATABASE_URL or DB_HOST
// selects Postgres (with a retry loop, containers come up slowly);
// otherwise a local SQLite file is used so the server runs with zero
// setup.
func Connect(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt: true,
	}

	if cfg.DatabaseURL == "" && cfg.DBHost == "" {
		database, err := gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		logger.Info("database_connected", zap.String("driver", "sqlite"), zap.String("path", cfg.SQLitePath))
		return database, nil
	}

	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
		)
	}

	const maxRetries = 10
	var (
		database *gorm.DB
		err      error
	)
	for i := 0; i < maxRetries; i++ {
		database, err = gorm.Open(postgres.Open(dsn), gormCfg)
		if err == nil {
			sqlDB, dbErr := database.DB()
			if dbErr == nil {
				if dbErr = sqlDB.Ping(); dbErr == nil {
					sqlDB.SetMaxIdleConns(10)
					sqlDB.SetMaxOpenConns(100)
					sqlDB.SetConnMaxLifetime(time.Hour)

					logger.Info("database_connected", zap.String("driver", "postgres"))
					return database, nil
				}
			}
			err = dbErr
		}

		logger.Warn("database_connect_retry",
			zap.Int("attempt", i+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)
		time.Sleep(2 * time.Second)
	}

	return nil, fmt.Errorf("connect to database after %d retries: %w", maxRetries, err)
}

// Migrate creates or upgrades the full schema. Idempotent; also backs
// the /api/migrate endpoint.
func Migrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&models.User{},
		&models.Habit{},
		&models.HabitLog{},
		&models.Session{},
		&models.OneTimeCode{},
		&models.PasswordResetToken{},
	)
}
