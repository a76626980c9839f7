package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	Port              string
	DatabaseURL       string
	JWTSecret         string
	PublicBaseURL     string
	StoragePath       string
	StorageBaseURL    string
	GeoIPDBPath       string
	DefaultLocale     string
	ReplicateAPIKey   string
	ReplicateBaseURL  string
	ChoreographyModel string
	SynthesisModel    string
	SyncWaitTimeout   time.Duration
	FastWaitTimeout   time.Duration
	RetentionDays     int
	HTTPReadTimeout   time.Duration
	HTTPWriteTimeout  time.Duration
	HTTPIdleTimeout   time.Duration
	RateLimitPerMin   int
	AllowedOrigins    []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		PublicBaseURL:     strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
		StoragePath:       getEnv("STORAGE_PATH", "./data/media"),
		StorageBaseURL:    os.Getenv("STORAGE_BASE_URL"),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:     getEnv("DEFAULT_LOCALE", "en"),
		ReplicateAPIKey:   os.Getenv("REPLICATE_API_KEY"),
		ReplicateBaseURL:  getEnv("REPLICATE_BASE_URL", "https://api.replicate.com/v1"),
		ChoreographyModel: getEnv("CHOREOGRAPHY_MODEL", "openai/gpt-5-nano"),
		SynthesisModel:    getEnv("SYNTHESIS_MODEL", "bytedance/seedream-4"),
		SyncWaitTimeout:   time.Second * time.Duration(getEnvInt("SYNC_WAIT_TIMEOUT_SECONDS", 120)),
		FastWaitTimeout:   time.Second * time.Duration(getEnvInt("FAST_WAIT_TIMEOUT_SECONDS", 30)),
		RetentionDays:     getEnvInt("RETENTION_DAYS", 7),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 150)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:    splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	if cfg.StorageBaseURL == "" {
		cfg.StorageBaseURL = fmt.Sprintf("http://localhost:%s/static", cfg.Port)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.ReplicateAPIKey == "" {
		return nil, fmt.Errorf("REPLICATE_API_KEY is required")
	}

	return cfg, nil
}

// WebhookURL is the provider callback endpoint, or empty when the service has
// no public address and async jobs resolve by polling alone.
func (c *Config) WebhookURL() string {
	if c.PublicBaseURL == "" {
		return ""
	}
	return c.PublicBaseURL + "/webhooks/replicate"
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

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
