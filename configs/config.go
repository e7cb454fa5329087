package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var loadEnv sync.Once

// Config returns the value of key, loading .env on first use.
func Config(key string) string {
	loadEnv.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("Warning: .env file not found, reading from system environment variables")
		}
	})

	return os.Getenv(key)
}

type Settings struct {
	Port        string
	DBDriver    string
	DatabaseURL string
	JWTSecret   string

	TemplatePath     string
	ArtifactStrategy string
	CloudinaryURL    string

	CacheBackend string
	RedisURL     string
	CacheTTL     time.Duration

	LogLevel  string
	LogFormat string

	AuditSchedule string

	AdminEmail    string
	AdminPassword string
	AdminFullName string

	BrevoAPIKey     string
	EmailSender     string
	EmailSenderName string
	VerifyBaseURL   string
}

func Load() Settings {
	return Settings{
		Port:        withDefault("PORT", "8080"),
		DBDriver:    withDefault("DB_DRIVER", "postgres"),
		DatabaseURL: Config("DATABASE_URL"),
		JWTSecret:   Config("JWT_SECRET"),

		TemplatePath:     Config("CERTIFICATE_TEMPLATE_PATH"),
		ArtifactStrategy: withDefault("ARTIFACT_STRATEGY", "inline"),
		CloudinaryURL:    Config("CLOUDINARY_URL"),

		CacheBackend: withDefault("CACHE_BACKEND", "memory"),
		RedisURL:     Config("REDIS_URL"),
		CacheTTL:     durationOr("CACHE_TTL", 10*time.Minute),

		LogLevel:  withDefault("LOG_LEVEL", "info"),
		LogFormat: withDefault("LOG_FORMAT", "json"),

		AuditSchedule: withDefault("AUDIT_SCHEDULE", "@daily"),

		AdminEmail:    Config("ADMIN_EMAIL"),
		AdminPassword: Config("ADMIN_PASSWORD"),
		AdminFullName: Config("ADMIN_FULL_NAME"),

		BrevoAPIKey:     Config("BREVO_API_KEY"),
		EmailSender:     Config("EMAIL_SENDER"),
		EmailSenderName: Config("EMAIL_SENDER_NAME"),
		VerifyBaseURL:   Config("VERIFY_BASE_URL"),
	}
}

func withDefault(key, fallback string) string {
	if v := Config(key); v != "" {
		return v
	}
	return fallback
}

// durationOr accepts Go durations ("90s") or a plain number of seconds.
func durationOr(key string, fallback time.Duration) time.Duration {
	raw := Config(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Warning: invalid %s=%q, using %s", key, raw, fallback)
	return fallback
}
