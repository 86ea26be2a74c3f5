package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs from the environment. It is
// built once in main and passed down explicitly.
type Config struct {
	Port string
	Env  string // development | production

	// Database. DatabaseURL wins when set; otherwise the DB_* parts are
	// used for Postgres, and an empty DB_HOST falls back to a local
	// SQLite file.
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	SQLitePath  string

	RedisAddr string

	SessionTTL time.Duration

	// Signup flow. When EmailVerification is on, accounts are only
	// created after the emailed one-time code is confirmed.
	EmailVerification bool
	OneTimeCodeTTL    time.Duration
	ResetTokenTTL     time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	AppURL       string

	CSRFEnabled bool
	CSRFKey     string

	CORSOrigins []string

	RateLimitPerMinute int

	// Cron specs for the background jobs.
	NotifySchedule string
	SweepSchedule  string
}

// Load reads the environment, honoring a local .env file if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("APP_ENV", "development"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "habit_tracker"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		SQLitePath:  getEnv("SQLITE_PATH", "habit_tracker.db"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		SessionTTL: getDuration("SESSION_TTL", 24*time.Hour),

		EmailVerification: getBool("EMAIL_VERIFICATION", false),
		OneTimeCodeTTL:    getDuration("OTP_TTL", 10*time.Minute),
		ResetTokenTTL:     getDuration("RESET_TOKEN_TTL", time.Hour),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@habittracker.local"),
		AppURL:       getEnv("APP_URL", "http://localhost:3000"),

		CSRFEnabled: getBool("CSRF_ENABLED", false),
		CSRFKey:     getEnv("CSRF_KEY", "32-byte-long-auth-key-change-me!"),

		CORSOrigins: getList("CORS_ORIGINS", []string{"http://localhost:3000"}),

		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 60),

		NotifySchedule: getEnv("NOTIFY_SCHEDULE", "* * * * *"),
		SweepSchedule:  getEnv("SWEEP_SCHEDULE", "0 0 * * *"),
	}
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
