// Package config loads the server's runtime configuration from a YAML
// file, then layers environment variables on top so they always win (§6).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every recognized environment/config option from §6.
type Config struct {
	DatabaseURL              string   `yaml:"database_url"`
	MaxConcurrentRuns        int      `yaml:"max_concurrent_runs"`
	DefaultMaxIterations     int      `yaml:"default_max_iterations"`
	DefaultRunTimeoutSeconds int      `yaml:"default_run_timeout_seconds"`
	CORSOrigins              []string `yaml:"cors_origins"`
	Port                     int      `yaml:"port"`
	LogLevel                 string   `yaml:"log_level"`
}

// DefaultRunTimeout returns the configured default run timeout as a
// time.Duration.
func (c Config) DefaultRunTimeout() time.Duration {
	return time.Duration(c.DefaultRunTimeoutSeconds) * time.Second
}

// Default returns the configuration used when neither a file nor
// environment variables set a value.
func Default() Config {
	return Config{
		MaxConcurrentRuns:        10,
		DefaultMaxIterations:     100,
		DefaultRunTimeoutSeconds: 300,
		CORSOrigins:              []string{"*"},
		Port:                     8080,
		LogLevel:                 "info",
	}
}

// Load builds a Config starting from Default(), layering in configPath (if
// non-empty and present on disk), then layering in environment variables,
// which always take precedence (§6).
func Load(configPath string) (Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := applyFile(&cfg, configPath); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML config %s: %w", path, err)
	}

	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}

	if v, ok := envInt("MAX_CONCURRENT_RUNS"); ok {
		cfg.MaxConcurrentRuns = v
	}

	if v, ok := envInt("DEFAULT_MAX_ITERATIONS"); ok {
		cfg.DefaultMaxIterations = v
	}

	if v, ok := envInt("DEFAULT_RUN_TIMEOUT_SECONDS"); ok {
		cfg.DefaultRunTimeoutSeconds = v
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = strings.Split(v, ",")
	}

	if v, ok := envInt("PORT"); ok {
		cfg.Port = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func envInt(name string) (int, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}

	return v, true
}

// Validate checks the invariants the rest of the system assumes hold.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}

	if c.MaxConcurrentRuns <= 0 {
		return fmt.Errorf("max_concurrent_runs must be positive")
	}

	if c.DefaultMaxIterations <= 0 {
		return fmt.Errorf("default_max_iterations must be positive")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	return nil
}
