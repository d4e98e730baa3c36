package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	testCases := map[string]string{
		"PORT":                    "9090",
		"ENVIRONMENT":             "test",
		"FLIGHTS_API_URL":         "http://flights.test:8000",
		"PRODUCTS_API_URL":        "http://products.test:8000",
		"MODEL_API_URL":           "http://model.test:8001",
		"AGENT_API_URL":           "http://agent.test:8003",
		"AVIATION_EDGE_API_KEY":   "test-key",
		"INVENTORY_FALLBACK_PORT": "9001",
		"UPSTREAM_TIMEOUT":        "5s",
	}

	for key, value := range testCases {
		os.Setenv(key, value)
	}

	defer func() {
		for key := range testCases {
			os.Unsetenv(key)
		}
	}()

	cfg := LoadConfig()

	if cfg.Port != "9090" {
		t.Errorf("Expected Port to be '9090', got '%s'", cfg.Port)
	}

	if cfg.Environment != "test" {
		t.Errorf("Expected Environment to be 'test', got '%s'", cfg.Environment)
	}

	if cfg.FlightsAPIURL != "http://flights.test:8000" {
		t.Errorf("Expected FlightsAPIURL to be 'http://flights.test:8000', got '%s'", cfg.FlightsAPIURL)
	}

	if cfg.ModelAPIURL != "http://model.test:8001" {
		t.Errorf("Expected ModelAPIURL to be 'http://model.test:8001', got '%s'", cfg.ModelAPIURL)
	}

	if cfg.AgentAPIURL != "http://agent.test:8003" {
		t.Errorf("Expected AgentAPIURL to be 'http://agent.test:8003', got '%s'", cfg.AgentAPIURL)
	}

	if cfg.AviationEdgeAPIKey != "test-key" {
		t.Errorf("Expected AviationEdgeAPIKey to be 'test-key', got '%s'", cfg.AviationEdgeAPIKey)
	}

	if cfg.InventoryFallbackPort != "9001" {
		t.Errorf("Expected InventoryFallbackPort to be '9001', got '%s'", cfg.InventoryFallbackPort)
	}

	if cfg.UpstreamTimeout != 5*time.Second {
		t.Errorf("Expected UpstreamTimeout to be 5s, got %v", cfg.UpstreamTimeout)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	vars := []string{
		"PORT", "ENVIRONMENT", "FLIGHTS_API_URL", "PRODUCTS_API_URL",
		"MODEL_API_URL", "AGENT_API_URL", "INVENTORY_FALLBACK_PORT", "UPSTREAM_TIMEOUT", "TIMEZONE", "SESSION_TTL",
	}

	for _, v := range vars {
		os.Unsetenv(v)
	}

	cfg := LoadConfig()

	if cfg.Port != "8080" {
		t.Errorf("Expected default Port to be '8080', got '%s'", cfg.Port)
	}

	if cfg.Environment != "development" {
		t.Errorf("Expected default Environment to be 'development', got '%s'", cfg.Environment)
	}

	if cfg.ModelAPIURL != "http://localhost:8001" {
		t.Errorf("Expected default ModelAPIURL to be 'http://localhost:8001', got '%s'", cfg.ModelAPIURL)
	}

	// unset means no alternate inventory host
	if cfg.InventoryFallbackPort != "" {
		t.Errorf("Expected no default InventoryFallbackPort, got '%s'", cfg.InventoryFallbackPort)
	}

	if cfg.UpstreamTimeout != 30*time.Second {
		t.Errorf("Expected default UpstreamTimeout to be 30s, got %v", cfg.UpstreamTimeout)
	}

	if cfg.Timezone != "America/Mexico_City" {
		t.Errorf("Expected default Timezone to be 'America/Mexico_City', got '%s'", cfg.Timezone)
	}
}

func TestGetDurationSeconds(t *testing.T) {
	os.Setenv("UPSTREAM_TIMEOUT", "12")
	defer os.Unsetenv("UPSTREAM_TIMEOUT")

	if got := getDuration("UPSTREAM_TIMEOUT", time.Second); got != 12*time.Second {
		t.Errorf("Expected 12s, got %v", got)
	}

	os.Setenv("UPSTREAM_TIMEOUT", "garbage")
	if got := getDuration("UPSTREAM_TIMEOUT", time.Second); got != time.Second {
		t.Errorf("Expected fallback 1s, got %v", got)
	}
}
