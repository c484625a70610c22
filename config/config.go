package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is built once at startup and injected into every component.
// Nothing below main reads the environment directly.
type Config struct {
	HTTPAddr    string
	DatabaseURL string
	Development bool

	JWTSecret string
	JWTIssuer string

	ResendAPIKey string
	EmailFrom    string

	OTPTTL          time.Duration
	ResetOTPTTL     time.Duration
	ResetTokenTTL   time.Duration
	SessionTokenTTL time.Duration
	BcryptCost      int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("error load env %s", err)
	}

	cfg := &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		Development:     os.Getenv("APP_ENV") == "development",
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTIssuer:       os.Getenv("JWT_ISSUER"),
		ResendAPIKey:    os.Getenv("RESEND_API_KEY"),
		EmailFrom:       os.Getenv("EMAIL_FROM"),
		OTPTTL:          getDuration("OTP_TTL", 5*time.Minute),
		ResetOTPTTL:     getDuration("RESET_OTP_TTL", 10*time.Minute),
		ResetTokenTTL:   getDuration("RESET_TOKEN_TTL", 15*time.Minute),
		SessionTokenTTL: getDuration("SESSION_TOKEN_TTL", 24*time.Hour),
		BcryptCost:      getInt("BCRYPT_COST", 12),
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid duration for %s: %s", key, value)
		return fallback
	}
	return parsed
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid integer for %s: %s", key, value)
		return fallback
	}
	return parsed
}
