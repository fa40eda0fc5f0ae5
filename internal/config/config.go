package config

import (
	"os"
	"strconv"
	"strings"

	"doc-annotator/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort          string
	LogLevel            string
	SupabaseURL         string
	SupabaseKey         string
	JWTSecret           string
	SettleDelayMillis   int
	FlashDurationMillis int
	AllowedOrigins      []string
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:          getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		SupabaseURL:         getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:         getEnvOrDefault("SUPABASE_ANON_KEY", ""),
		JWTSecret:           getEnvOrDefault("JWT_SECRET", "your-secret-key-change-in-production"),
		SettleDelayMillis:   getEnvIntOrDefault("SETTLE_DELAY_MS", 150),
		FlashDurationMillis: getEnvIntOrDefault("FLASH_DURATION_MS", 2000),
		AllowedOrigins: splitList(getEnvOrDefault("ALLOWED_ORIGINS",
			"http://localhost:5173,http://localhost:3000")),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetJWTSecret returns the JWT secret key
func (c *AppConfig) GetJWTSecret() string {
	return c.JWTSecret
}

// GetSettleDelayMillis returns the delay before the first highlight pass
func (c *AppConfig) GetSettleDelayMillis() int {
	return c.SettleDelayMillis
}

// GetFlashDurationMillis returns the navigation emphasis duration
func (c *AppConfig) GetFlashDurationMillis() int {
	return c.FlashDurationMillis
}

// GetAllowedOrigins returns the CORS allow-list
func (c *AppConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
