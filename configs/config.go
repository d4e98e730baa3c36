package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	Port          string
	Environment   string
	APIKey        string
	AdminUsername string
	AdminPassword string

	// Upstream base URLs. Each service is independently configurable.
	FlightsAPIURL  string
	ProductsAPIURL string
	ModelAPIURL    string
	AgentAPIURL    string

	AviationEdgeURL    string
	AviationEdgeAPIKey string

	// InventoryFallbackPort replaces the port of the products URL when the
	// primary inventory fetch fails. Empty disables the fallback.
	InventoryFallbackPort string

	UpstreamTimeout time.Duration

	// Timezone is used to bucket the monitoring dashboard by hour.
	Timezone string
	// SessionTTL is how long an idle planning session is kept.
	SessionTTL time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:                  getEnv("PORT", "8080"),
		Environment:           getEnv("ENVIRONMENT", "development"),
		APIKey:                getEnv("API_KEY", ""),
		AdminUsername:         getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:         getEnv("ADMIN_PASSWORD", ""),
		FlightsAPIURL:         getEnv("FLIGHTS_API_URL", "http://localhost:8000"),
		ProductsAPIURL:        getEnv("PRODUCTS_API_URL", "http://localhost:8000"),
		ModelAPIURL:           getEnv("MODEL_API_URL", "http://localhost:8001"),
		AgentAPIURL:           getEnv("AGENT_API_URL", "http://localhost:8003"),
		AviationEdgeURL:       getEnv("AVIATION_EDGE_URL", "https://aviation-edge.com/v2/public"),
		AviationEdgeAPIKey:    getEnv("AVIATION_EDGE_API_KEY", ""),
		InventoryFallbackPort: getEnv("INVENTORY_FALLBACK_PORT", ""),
		UpstreamTimeout:       getDuration("UPSTREAM_TIMEOUT", 30*time.Second),
		Timezone:              getEnv("TIMEZONE", "America/Mexico_City"),
		SessionTTL:            getDuration("SESSION_TTL", 2*time.Hour),
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration accepts Go duration strings ("15s") or plain seconds ("15").
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
