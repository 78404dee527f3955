// Package config loads service configuration from an optional YAML file
// overridden by environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port               string  `yaml:"port"`
	DatabaseURL        string  `yaml:"databaseUrl"`
	RedisURL           string  `yaml:"redisUrl"`
	OSRMBaseURL        string  `yaml:"osrmBaseUrl"`
	DefaultCapacity    int     `yaml:"defaultCapacity"`
	DefaultSpeedKph    float64 `yaml:"defaultSpeedKph"`
	AuthMode           string  `yaml:"authMode"`
	AuthHMACSecret     string  `yaml:"authHmacSecret"`
	WebhookMaxAttempts int     `yaml:"webhookMaxAttempts"`
	Migrate            bool    `yaml:"migrate"`
}

func defaults() Config {
	return Config{
		Port:               "8080",
		DefaultCapacity:    8,
		DefaultSpeedKph:    50,
		AuthMode:           "dev",
		WebhookMaxAttempts: 10,
		Migrate:            true,
	}
}

// Load reads CONFIG_FILE (or config.yaml if present) and applies env
// overrides. A missing file is not an error; a malformed one is.
func Load() (Config, error) {
	cfg := defaults()
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if os.Getenv("CONFIG_FILE") != "" {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("OSRM_BASE_URL"); v != "" {
		cfg.OSRMBaseURL = v
	}
	if v := os.Getenv("DEFAULT_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultCapacity = n
		}
	}
	if v := os.Getenv("DEFAULT_SPEED_KPH"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.DefaultSpeedKph = f
		}
	}
	if v := os.Getenv("AUTH_MODE"); v != "" {
		cfg.AuthMode = v
	}
	if v := os.Getenv("AUTH_HMAC_SECRET"); v != "" {
		cfg.AuthHMACSecret = v
	}
	if v := os.Getenv("WEBHOOK_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.WebhookMaxAttempts = n
		}
	}
	if v := os.Getenv("DB_MIGRATE"); v == "false" {
		cfg.Migrate = false
	}
}
