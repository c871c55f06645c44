package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string
	LogLevel       string

	DBHost string
	DBUser string
	DBPass string
	DBName string
	DBPort string

	RedisURL string

	MeiliSearchHost string
	MeiliMasterKey  string

	CloudinaryURL          string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	JWTSecret string

	KafkaBrokers []string
	KafkaTopic   string

	SyncSchedule              string
	SyncLockTTL               time.Duration
	RankRecomputeSchedule     string
	ConnectivityProbeInterval time.Duration

	RateLimitGlobal  time.Duration
	RateLimitPost    time.Duration
	RateLimitComment time.Duration

	Timezone            *time.Location
	LevelBasePoints     int
	ActivityMultipliers map[string]float64
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitAndTrim(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBUser: getEnv("DB_USER", "postgres"),
		DBPass: os.Getenv("DB_PASS"),
		DBName: getEnv("DB_NAME", "fitsquad"),
		DBPort: getEnv("DB_PORT", "5432"),

		RedisURL: os.Getenv("REDIS_URL"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		CloudinaryURL:          os.Getenv("CLOUDINARY_URL"),
		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:       os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "fitsquad"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		KafkaBrokers: splitAndTrim(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "fitsquad.gamification"),

		SyncSchedule:          getEnv("SYNC_SCHEDULE", "@every 5m"),
		RankRecomputeSchedule: getEnv("RANK_RECOMPUTE_SCHEDULE", "@every 15m"),
	}

	if cfg.JWTSecret == "" {
		if cfg.AppEnv == "production" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}

	var err error
	cfg.SyncLockTTL, err = parseDuration(getEnv("SYNC_LOCK_TTL", "2m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_LOCK_TTL: %w", err)
	}
	cfg.ConnectivityProbeInterval, err = parseDuration(getEnv("CONNECTIVITY_PROBE_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CONNECTIVITY_PROBE_INTERVAL: %w", err)
	}

	for _, d := range []struct {
		key      string
		fallback string
		dst      *time.Duration
	}{
		{"RATE_LIMIT_GLOBAL", "5s", &cfg.RateLimitGlobal},
		{"RATE_LIMIT_POST", "15s", &cfg.RateLimitPost},
		{"RATE_LIMIT_COMMENT", "5s", &cfg.RateLimitComment},
	} {
		if *d.dst, err = parseDuration(getEnv(d.key, d.fallback)); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
	}

	cfg.Timezone, err = time.LoadLocation(getEnv("APP_TIMEZONE", "America/Sao_Paulo"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	cfg.LevelBasePoints, err = strconv.Atoi(getEnv("LEVEL_BASE_POINTS", "100"))
	if err != nil || cfg.LevelBasePoints <= 0 {
		return nil, fmt.Errorf("invalid LEVEL_BASE_POINTS: must be a positive integer")
	}

	cfg.ActivityMultipliers, err = ParseMultipliers(os.Getenv("ACTIVITY_MULTIPLIERS"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACTIVITY_MULTIPLIERS: %w", err)
	}

	return cfg, nil
}

// ParseMultipliers parses "cardio=2.0,yoga=1.5" into overrides for the point calculator.
func ParseMultipliers(raw string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, pair := range splitAndTrim(raw) {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("expected name=value, got %q", pair)
		}
		multiplier, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("multiplier for %q: %w", name, err)
		}
		if multiplier < 0 {
			return nil, fmt.Errorf("multiplier for %q must not be negative", name)
		}
		out[strings.ToLower(strings.TrimSpace(name))] = multiplier
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
