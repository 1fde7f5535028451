package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0"`
}

// RemoteConfig configures the remote document store the schedule is synced from
type RemoteConfig struct {
	BaseURL        string `yaml:"baseURL" validate:"required,url"`
	TimeoutMS      int    `yaml:"timeoutMS" validate:"gte=0"`
	SyncIntervalMS int    `yaml:"syncIntervalMS" validate:"gte=0"`
}

// NotifierConfig configures notification delivery. An empty webhookURL falls
// back to log-only delivery.
type NotifierConfig struct {
	WebhookURL string `yaml:"webhookURL" validate:"omitempty,url"`
	TimeoutMS  int    `yaml:"timeoutMS" validate:"gte=0"`
}

// PermissionsConfig is the runtime permission surface for the scheduler
type PermissionsConfig struct {
	PostNotifications bool `yaml:"postNotifications"`
	ExactAlarms       bool `yaml:"exactAlarms"`
}

// RateLimitConfig bounds per-client request rates on the API
type RateLimitConfig struct {
	PerMinute int `yaml:"perMinute" validate:"gte=0"`
}

// AppConfig is the full application configuration
type AppConfig struct {
	Server      ServerConfig      `yaml:"server" validate:"required"`
	Remote      RemoteConfig      `yaml:"remote" validate:"required"`
	Notifier    NotifierConfig    `yaml:"notifier"`
	Permissions PermissionsConfig `yaml:"permissions"`
	RateLimit   RateLimitConfig   `yaml:"rateLimit"`
}

// Load reads and validates the application config. The path defaults to
// config.yml and can be overridden with CONFIG_PATH.
func Load() (*AppConfig, error) {
	path := getEnv("CONFIG_PATH", "config.yml")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	v := validator.New()
	if err := v.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Remote.TimeoutMS == 0 {
		cfg.Remote.TimeoutMS = 10000
	}
	if cfg.Remote.SyncIntervalMS == 0 {
		cfg.Remote.SyncIntervalMS = 15 * 60 * 1000
	}
	if cfg.Notifier.TimeoutMS == 0 {
		cfg.Notifier.TimeoutMS = 10000
	}
	if cfg.RateLimit.PerMinute == 0 {
		cfg.RateLimit.PerMinute = 120
	}
}

// applyEnvOverrides lets deployment environments override file values
// without editing the config
func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REMOTE_BASE_URL"); v != "" {
		cfg.Remote.BaseURL = v
	}
	if v := os.Getenv("NOTIFY_WEBHOOK_URL"); v != "" {
		cfg.Notifier.WebhookURL = v
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
