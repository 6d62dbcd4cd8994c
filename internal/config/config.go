// Package config loads veriforge configuration from environment
// variables.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the CLI.
type Config struct {
	Artifacts ArtifactsConfig
	Network   NetworkConfig
	Explorer  ExplorerConfig
	Retry     RetryConfig
	Logging   LoggingConfig
}

// ArtifactsConfig locates the build artifact store.
type ArtifactsConfig struct {
	Dir string
}

// NetworkConfig holds chain access settings.
type NetworkConfig struct {
	RPCURL string
}

// ExplorerConfig holds verification service settings.
type ExplorerConfig struct {
	APIURL         string
	BaseURL        string
	APIKey         string
	RequestsPerMin int
}

// RetryConfig bounds the verification retry policy.
type RetryConfig struct {
	MaxAttempts  int
	DelaySeconds int
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Artifacts: ArtifactsConfig{
			Dir: getEnv("VERIFORGE_ARTIFACTS_DIR", "./build/contracts"),
		},
		Network: NetworkConfig{
			RPCURL: getEnv("VERIFORGE_RPC_URL", "http://localhost:8545"),
		},
		Explorer: ExplorerConfig{
			APIURL:         getEnv("VERIFORGE_EXPLORER_API_URL", ""),
			BaseURL:        getEnv("VERIFORGE_EXPLORER_URL", ""),
			APIKey:         getEnv("VERIFORGE_EXPLORER_API_KEY", ""),
			RequestsPerMin: getEnvInt("VERIFORGE_EXPLORER_RPM", 30),
		},
		Retry: RetryConfig{
			MaxAttempts:  getEnvInt("VERIFORGE_RETRY_ATTEMPTS", 3),
			DelaySeconds: getEnvInt("VERIFORGE_RETRY_DELAY_SECONDS", 5),
		},
		Logging: LoggingConfig{
			Level: getEnv("VERIFORGE_LOG_LEVEL", "info"),
		},
	}

	// Explorer base URL defaults to the API host without the /api suffix.
	if cfg.Explorer.BaseURL == "" && cfg.Explorer.APIURL != "" {
		cfg.Explorer.BaseURL = strings.TrimSuffix(cfg.Explorer.APIURL, "/api")
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
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
