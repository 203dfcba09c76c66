package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	Production     bool
	SiteDomain     string
	Timezone       string
	AllowedOrigins []string
	// Row store (optional)
	StorageConnectionString string
	StorageTableName        string
	StorageTimeout          time.Duration
	S3Region                string
	S3Endpoint              string
	S3AccessKeyID           string
	S3SecretAccessKey       string
	// Notification email (optional)
	EmailConnectionString string
	EmailSenderAddress    string
	NotificationEmail     string
	EmailSendTimeout      time.Duration
	EmailPollInterval     time.Duration
	// Redis/Upstash Configuration
	UpstashRedisURL      string
	UpstashRedisPassword string
	// Rate Limiting Configuration
	RateLimitWindowSeconds    int
	RateLimitContactThreshold int
}

func LoadConfig() (*Config, error) {
	// .env only exists locally; production injects real env vars
	_ = godotenv.Load()

	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		Production: os.Getenv("GIN_MODE") == "release",
		SiteDomain: getEnv("SITE_DOMAIN", "subsonicproducciones.cl"),
		Timezone:   getEnv("TIMEZONE", "America/Santiago"),
		// CORS allow-list for the static site
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{
			"https://subsonicproducciones.cl",
			"https://www.subsonicproducciones.cl",
		}),
		// Row store
		StorageConnectionString: strings.TrimSpace(getEnv("STORAGE_CONNECTION_STRING", "")),
		StorageTableName:        getEnv("STORAGE_TABLE_NAME", "cotizaciones"),
		StorageTimeout:          getEnvDuration("STORAGE_TIMEOUT", 10*time.Second),
		S3Region:                getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:              strings.TrimRight(getEnv("S3_ENDPOINT", ""), "/"),
		S3AccessKeyID:           getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:       getEnv("S3_SECRET_ACCESS_KEY", ""),
		// Notification email
		EmailConnectionString: strings.TrimSpace(getEnv("EMAIL_CONNECTION_STRING", "")),
		EmailSenderAddress:    strings.TrimSpace(getEnv("EMAIL_SENDER_ADDRESS", "")),
		NotificationEmail:     strings.TrimSpace(getEnv("NOTIFICATION_EMAIL", "")),
		EmailSendTimeout:      getEnvDuration("EMAIL_SEND_TIMEOUT", 30*time.Second),
		EmailPollInterval:     getEnvDuration("EMAIL_POLL_INTERVAL", time.Second),
		// Redis/Upstash Configuration
		UpstashRedisURL:      getEnv("UPSTASH_REDIS_URL", ""),
		UpstashRedisPassword: getEnv("UPSTASH_REDIS_PASSWORD", ""),
		// Rate Limiting Configuration
		RateLimitWindowSeconds:    getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitContactThreshold: getEnvInt("RATE_LIMIT_CONTACT_THRESHOLD", 0), // opt-in; 0 disables
	}

	if !cfg.StorageConfigured() {
		log.Println("WARNING: STORAGE_CONNECTION_STRING not set. Quotes will only be logged.")
	}
	if cfg.EmailConnectionString != "" && !cfg.EmailConfigured() {
		log.Println("WARNING: EMAIL_CONNECTION_STRING set without EMAIL_SENDER_ADDRESS/NOTIFICATION_EMAIL. Notifications disabled.")
	}

	return cfg, nil
}

// StorageConfigured reports whether quotes should be persisted.
func (c *Config) StorageConfigured() bool {
	return c.StorageConnectionString != ""
}

// EmailConfigured requires connection string, sender and recipient together.
func (c *Config) EmailConfigured() bool {
	return c.EmailConnectionString != "" && c.EmailSenderAddress != "" && c.NotificationEmail != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("30s", "1m").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimRight(strings.TrimSpace(part), "/")
		if part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
