package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	AppPort string
	AppEnv  string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	CORSOrigins    []string
	InternalSecret string

	SuperadminEmail    string
	SuperadminPassword string
}

const (
	defaultAccessTokenMinutes = 10080
	defaultRefreshTokenDays   = 7
)

// LoadDatabaseConfig reads only the DB_* settings, for tools that need a
// connection but none of the server secrets.
func LoadDatabaseConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
	if cfg.DBHost == "" {
		return nil, errors.New("environment variables not loaded properly: DB_HOST is empty")
	}
	return cfg, nil
}

func LoadConfig() (*Config, error) {
	cfg, err := LoadDatabaseConfig()
	if err != nil {
		return nil, err
	}

	cfg.AppPort = getEnv("APP_PORT", "8080")
	cfg.AppEnv = getEnv("APP_ENV", "development")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.CORSOrigins = splitList(os.Getenv("BACKEND_CORS_ORIGINS"))
	cfg.InternalSecret = os.Getenv("INTERNAL_SECRET_KEY")
	cfg.SuperadminEmail = os.Getenv("SUPERADMIN_EMAIL")
	cfg.SuperadminPassword = os.Getenv("SUPERADMIN_PASSWORD")

	accessMinutes, err := getInt("ACCESS_TOKEN_EXPIRE_MINUTES", defaultAccessTokenMinutes)
	if err != nil {
		return nil, err
	}
	refreshDays, err := getInt("REFRESH_TOKEN_EXPIRE_DAYS", defaultRefreshTokenDays)
	if err != nil {
		return nil, err
	}
	cfg.AccessTokenTTL = time.Duration(accessMinutes) * time.Minute
	cfg.RefreshTokenTTL = time.Duration(refreshDays) * 24 * time.Hour

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}

	return cfg, nil
}

// IsProduction switches cookies to Secure + SameSite=Strict and the logger
// to JSON output.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
