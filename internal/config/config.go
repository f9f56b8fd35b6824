package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	DatabaseURL    string
	KnowledgeDir   string
	WorkerCount    int
	AdminJWTSecret string

	// Session store
	SessionWindow       time.Duration
	SessionCacheTTL     time.Duration
	SessionCacheSize    int
	ContextMessageLimit int

	// Redis working-set cache (optional; in-process cache when unset)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Lead scoring / notifications
	NotifyCooldown    time.Duration
	NotifyQueueSize   int
	SalesEmail        string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		KnowledgeDir:   getEnv("KNOWLEDGE_DIR", ""),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 2),
		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		SessionWindow:       getEnvAsDuration("SESSION_WINDOW", 7*24*time.Hour),
		SessionCacheTTL:     getEnvAsDuration("SESSION_CACHE_TTL", time.Hour),
		SessionCacheSize:    getEnvAsInt("SESSION_CACHE_SIZE", 10000),
		ContextMessageLimit: getEnvAsInt("CONTEXT_MESSAGE_LIMIT", 10),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		NotifyCooldown:    getEnvAsDuration("NOTIFY_COOLDOWN", 30*time.Minute),
		NotifyQueueSize:   getEnvAsInt("NOTIFY_QUEUE_SIZE", 128),
		SalesEmail:        getEnv("SALES_EMAIL", ""),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Cape Fasteners Assistant"),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
