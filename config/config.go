package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds everything read from the environment.
type Config struct {
	AppHost  string
	Port     string
	AppEnv   string
	LogLevel string

	DatabaseDSN string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	JWTSecret string
	JWTTTL    time.Duration

	MediaBackend       string // "gcs" or "local"
	GCSBucket          string
	MediaPublicBaseURL string
	UploadDir          string
	MaxUploadMB        int64
	CORSAllowedOrigin  string
	RedisURL           string
	PublicRateLimit    float64
	PublicRateBurst    int
	// TrustedProxies are IPs or CIDRs allowed to set X-Forwarded-For.
	TrustedProxies     []string
	SeedAdminEmail     string
	SeedAdminPassword  string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		zap.L().Debug("No .env file found, using system environment variables")
	}

	cfg := &Config{
		AppHost:            getEnv("APP_HOST", "0.0.0.0"),
		Port:               getEnv("PORT", "8080"),
		AppEnv:             getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseDSN:        os.Getenv("DB_DSN"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "postgres"),
		DBPassword:         getEnv("DB_PASSWORD", "postgres"),
		DBName:             getEnv("DB_NAME", "form_service"),
		DBSSLMode:          getEnv("DB_SSLMODE", "disable"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		GCSBucket:          os.Getenv("GCS_BUCKET"),
		MediaPublicBaseURL: os.Getenv("MEDIA_PUBLIC_BASE_URL"),
		UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		CORSAllowedOrigin:  getEnv("CORS_ALLOWED_ORIGIN", "*"),
		RedisURL:           os.Getenv("REDIS_URL"),
		SeedAdminEmail:     os.Getenv("SEED_ADMIN_EMAIL"),
		SeedAdminPassword:  os.Getenv("SEED_ADMIN_PASSWORD"),
	}

	var err error
	if cfg.JWTTTL, err = time.ParseDuration(getEnv("JWT_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("JWT_TTL: %w", err)
	}
	if cfg.MaxUploadMB, err = strconv.ParseInt(getEnv("MAX_UPLOAD_MB", "50"), 10, 64); err != nil {
		return nil, fmt.Errorf("MAX_UPLOAD_MB: %w", err)
	}
	if cfg.PublicRateLimit, err = strconv.ParseFloat(getEnv("PUBLIC_RATE_LIMIT", "2"), 64); err != nil {
		return nil, fmt.Errorf("PUBLIC_RATE_LIMIT: %w", err)
	}
	if cfg.PublicRateBurst, err = strconv.Atoi(getEnv("PUBLIC_RATE_BURST", "10")); err != nil {
		return nil, fmt.Errorf("PUBLIC_RATE_BURST: %w", err)
	}
	cfg.TrustedProxies = splitList(os.Getenv("TRUSTED_PROXIES"))
	cfg.MediaBackend = detectMediaBackend()
	return cfg, nil
}

// detectMediaBackend picks GCS on Google Cloud and the local disk otherwise.
func detectMediaBackend() string {
	if b := os.Getenv("MEDIA_BACKEND"); b != "" {
		return b
	}
	useGCS := os.Getenv("USE_GCS") == "true" ||
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" ||
		os.Getenv("K_SERVICE") != "" // Cloud Run indicator
	if useGCS {
		return "gcs"
	}
	return "local"
}

func (c *Config) Validate() error {
	if c.DatabaseDSN == "" && (c.DBHost == "" || c.DBName == "") {
		return errors.New("config: DB_DSN or DB_HOST and DB_NAME are required")
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return errors.New("config: in production JWT_SECRET is required")
	}
	if c.MediaBackend != "gcs" && c.MediaBackend != "local" {
		return fmt.Errorf("config: unknown MEDIA_BACKEND %q", c.MediaBackend)
	}
	if c.MediaBackend == "gcs" && c.GCSBucket == "" {
		return errors.New("config: GCS_BUCKET is required for the gcs media backend")
	}
	if c.MaxUploadMB <= 0 {
		return errors.New("config: MAX_UPLOAD_MB must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// DSN prefers DB_DSN and otherwise assembles one from the DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseDSN != "" {
		return c.DatabaseDSN
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.Port
}

// Connect opens the database with error translation enabled.
func Connect(cfg *Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if !cfg.IsProduction() {
		logLevel = logger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
