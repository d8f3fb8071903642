package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds runtime settings read from the environment. An optional
// .env file is loaded by main before this runs.
type Config struct {
	Port           string
	DBPath         string
	SecretKey      string
	Timezone       string
	LogLevel       string
	CookieSecure   bool
	ScanInterval   time.Duration
	OpsToken       string
	PushWebhookURL string
}

func Load() Config {
	return Config{
		Port:           getEnv("PORT", "8080"),
		DBPath:         getEnv("DB_PATH", filepath.Join("data", "stint.db")),
		SecretKey:      getEnv("SECRET_KEY", "change_me_in_production"),
		Timezone:       getEnv("TZ", "UTC"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CookieSecure:   getEnvBool("COOKIE_SECURE", false),
		ScanInterval:   getEnvDuration("SCAN_INTERVAL", time.Hour),
		OpsToken:       getEnv("OPS_TOKEN", ""),
		PushWebhookURL: getEnv("PUSH_WEBHOOK_URL", ""),
	}
}

func getEnv(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	return raw == "1" || raw == "true" || raw == "TRUE"
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
		return parsed
	}
	if hours, err := strconv.Atoi(raw); err == nil && hours > 0 {
		return time.Duration(hours) * time.Hour
	}
	return fallback
}
