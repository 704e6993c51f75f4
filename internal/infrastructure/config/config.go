// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	feedURL := cfg.Rates.FeedURL
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Storage       StorageConfig       `yaml:"storage"`
	Server        ServerConfig        `yaml:"server"`
	Rates         RatesConfig         `yaml:"rates"`
	Matching      MatchingConfig      `yaml:"matching"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RatesConfig holds exchange-rate feed settings
type RatesConfig struct {
	FeedURL         string   `yaml:"feed_url"`
	CacheTTL        Duration `yaml:"cache_ttl"`
	DefaultCurrency string   `yaml:"default_currency"`
}

// Duration wraps time.Duration so YAML values like "12h" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts back to a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MatchingConfig holds transfer matching defaults
type MatchingConfig struct {
	AutoMaxDays     int     `yaml:"auto_max_days"`
	AutoTolerance   float64 `yaml:"auto_tolerance"`
	ManualMaxDays   int     `yaml:"manual_max_days"`
	ManualTolerance float64 `yaml:"manual_tolerance"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${FINLINK_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	cfg := defaults()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := defaults()
	cfg.Storage.DatabasePath = getEnv("FINLINK_DB_PATH", cfg.Storage.DatabasePath)
	cfg.Server.Port = getEnvInt("FINLINK_PORT", cfg.Server.Port)
	if origins := os.Getenv("FINLINK_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	cfg.Rates.FeedURL = getEnv("FINLINK_RATES_FEED_URL", cfg.Rates.FeedURL)
	cfg.Rates.DefaultCurrency = getEnv("FINLINK_DEFAULT_CURRENCY", cfg.Rates.DefaultCurrency)
	cfg.Matching.AutoMaxDays = getEnvInt("FINLINK_AUTO_MAX_DAYS", cfg.Matching.AutoMaxDays)
	cfg.Matching.ManualMaxDays = getEnvInt("FINLINK_MANUAL_MAX_DAYS", cfg.Matching.ManualMaxDays)
	cfg.Observability.Logging.Level = getEnv("LOG_LEVEL", cfg.Observability.Logging.Level)
	cfg.Observability.Logging.Format = getEnv("LOG_FORMAT", cfg.Observability.Logging.Format)
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// defaults returns the baseline configuration every loader starts from
func defaults() *Config {
	return &Config{
		Storage: StorageConfig{
			DatabasePath: "finlink.db",
		},
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Rates: RatesConfig{
			CacheTTL:        Duration(12 * time.Hour),
			DefaultCurrency: "USD",
		},
		Matching: MatchingConfig{
			AutoMaxDays:     7,
			AutoTolerance:   0.01,
			ManualMaxDays:   8,
			ManualTolerance: 0.12,
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "text",
			},
		},
	}
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}
