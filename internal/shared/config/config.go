package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the gateway
type Config struct {
	// Server
	Port string
	Env  string

	// Optional backing services. When unset the gateway falls back to
	// in-memory cache/rate-limit state and a no-op history sink.
	DatabaseURL string
	RedisURL    string

	// Provider credentials. A provider is only registered when its
	// credentials are present.
	OpenAIAPIKey       string
	GeminiAPIKey       string
	CloudflareAccount  string
	CloudflareAPIToken string

	// Market data
	OpenOceanAPIKey string

	// Prompt enrichment collaborator (optional)
	InfluenceServiceURL string

	// Pricing path
	PriceRateLimit    int
	QuoteTTLSeconds   int
	StrictPriceParams bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		CloudflareAccount:   getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
		CloudflareAPIToken:  getEnv("CLOUDFLARE_API_TOKEN", ""),
		OpenOceanAPIKey:     getEnv("OPENOCEAN_API_KEY", ""),
		InfluenceServiceURL: getEnv("INFLUENCE_SERVICE_URL", ""),
		PriceRateLimit:      getEnvInt("PRICE_RATE_LIMIT", 30),
		QuoteTTLSeconds:     getEnvInt("QUOTE_TTL_SECONDS", 180),
		StrictPriceParams:   getEnvBool("STRICT_PRICE_PARAMS", false),
	}

	// At least one generation provider must be configured
	if cfg.OpenAIAPIKey == "" && cfg.GeminiAPIKey == "" && cfg.CloudflareAPIToken == "" {
		return nil, fmt.Errorf("at least one provider credential is required (OPENAI_API_KEY, GEMINI_API_KEY, or CLOUDFLARE_API_TOKEN)")
	}

	if cfg.CloudflareAPIToken != "" && cfg.CloudflareAccount == "" {
		return nil, fmt.Errorf("CLOUDFLARE_ACCOUNT_ID is required when CLOUDFLARE_API_TOKEN is set")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
