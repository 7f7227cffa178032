package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// EnvConfigFile names an explicit config file, overriding the lookup list.
const EnvConfigFile = "RELAY_CONFIG"

type Config struct {
	TelegramBotToken string    `koanf:"telegram_bot_token"`
	TelegramAPIURL   string    `koanf:"telegram_api_url" validate:"required,url"`
	StoragePath      string    `koanf:"storage_path" validate:"required"`
	DatabasePath     string    `koanf:"database_path" validate:"required"`
	HTTPPort         string    `koanf:"http_port" validate:"required,numeric"`
	AllowedUsers     []int64   `koanf:"allowed_users"`
	AppEnv           AppEnv    `koanf:"app_env"`
	LogLevel         string    `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat        LogFormat `koanf:"log_format"`

	// Timezone is the reference zone for time window rules.
	Timezone           string `koanf:"timezone" validate:"required"`
	WindowEndInclusive bool   `koanf:"window_end_inclusive"`

	Workers           int `koanf:"workers" validate:"min=1,max=256"`
	QueueSize         int `koanf:"queue_size" validate:"min=1"`
	FanoutConcurrency int `koanf:"fanout_concurrency" validate:"min=1"`

	RetryBaseDelay   time.Duration `koanf:"retry_base_delay" validate:"gt=0"`
	RetryMaxDelay    time.Duration `koanf:"retry_max_delay" validate:"gtefield=RetryBaseDelay"`
	RetryMaxAttempts uint          `koanf:"retry_max_attempts" validate:"min=1"`
	FailureThreshold int           `koanf:"failure_threshold" validate:"min=1"`

	SendRatePerSecond float64 `koanf:"send_rate_per_second" validate:"gt=0"`
	SendBurst         int     `koanf:"send_burst" validate:"min=1"`

	// IngestToken enables POST /api/events when set.
	IngestToken  string `koanf:"ingest_token"`
	AlertHistory int    `koanf:"alert_history" validate:"min=1"`

	location *time.Location
}

var defaults = map[string]any{
	"telegram_api_url":     "https://api.telegram.org",
	"storage_path":         "./data",
	"database_path":        "./data/relay.db",
	"http_port":            "8080",
	"app_env":              "production",
	"log_level":            "info",
	"log_format":           "text",
	"timezone":             "UTC",
	"window_end_inclusive": true,
	"workers":              8,
	"queue_size":           64,
	"fanout_concurrency":   4,
	"retry_base_delay":     "500ms",
	"retry_max_delay":      "30s",
	"retry_max_attempts":   5,
	"failure_threshold":    5,
	"send_rate_per_second": 1.0,
	"send_burst":           3,
	"alert_history":        100,
}

// Load reads .env, then the config file, then the environment; later sources
// override earlier ones. The bot token is not required here, see RequireBotToken.
func Load() (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	k := koanf.New(".")

	configFile, found := findConfigFile()
	if found {
		parser, err := parserFor(configFile)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Environment variables override config file values
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			_ = k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	// Parse AllowedUsers from comma-separated string if it's a string
	if allowedUsers := k.Get("allowed_users"); allowedUsers != nil {
		switch v := allowedUsers.(type) {
		case string:
			cfg.AllowedUsers = ParseAllowedUsers(v)
		case []interface{}:
			cfg.AllowedUsers = lo.FilterMap(v, func(item interface{}, _ int) (int64, bool) {
				switch val := item.(type) {
				case int64:
					return val, true
				case int:
					return int64(val), true
				case float64:
					return int64(val), true
				default:
					return 0, false
				}
			})
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and resolves the timezone.
func (c *Config) Validate() error {
	if !c.AppEnv.IsValid() {
		c.AppEnv = AppEnvProduction
	}
	if !c.LogFormat.IsValid() {
		c.LogFormat = LogFormatText
	}

	if err := validator.New().Struct(c); err != nil {
		return oops.With("context", "invalid configuration").Wrap(err)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return oops.With("timezone", c.Timezone).Wrap(err)
	}
	c.location = loc
	return nil
}

// RequireBotToken fails when the process needs Telegram but has no token.
func (c *Config) RequireBotToken() error {
	if c.TelegramBotToken == "" {
		return errors.ErrMissingBotToken
	}
	return nil
}

// Location is the reference timezone for time window rules.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// IsDevelopment reports whether verbose local defaults apply.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == AppEnvLocal || c.AppEnv == AppEnvDevelopment
}

func findConfigFile() (string, bool) {
	if explicit := os.Getenv(EnvConfigFile); explicit != "" {
		return explicit, true
	}

	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	return lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})
}

func parserFor(configFile string) (koanf.Parser, error) {
	switch ext := filepath.Ext(configFile); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, oops.Errorf("unsupported config file extension: %s", ext)
	}
}

// ParseAllowedUsers parses comma-separated user IDs string into []int64
func ParseAllowedUsers(s string) []int64 {
	if s == "" {
		return []int64{}
	}
	parts := strings.Split(s, ",")
	return lo.FilterMap(parts, func(part string, _ int) (int64, bool) {
		part = strings.TrimSpace(part)
		if part == "" {
			return 0, false
		}
		var id int64
		if _, err := fmt.Sscanf(part, "%d", &id); err == nil {
			return id, true
		}
		return 0, false
	})
}
