package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DevJWTSecret is the fallback signing secret. Override auth.jwt_secret in
// any shared deployment.
const DevJWTSecret = "pmo-bot-dev-secret-change-me"

// Config holds application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Bot       BotConfig       `mapstructure:"bot"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// BotConfig is the assistant's identity and behavior. Seed 0 means the
// generic replies are seeded from the clock.
type BotConfig struct {
	ID                    string        `mapstructure:"id"`
	Name                  string        `mapstructure:"name"`
	Seed                  int64         `mapstructure:"seed"`
	ReminderCheckInterval time.Duration `mapstructure:"reminder_check_interval"`
	GenericReplies        []string      `mapstructure:"generic_replies"`
}

type TelemetryConfig struct {
	Stdout      bool   `mapstructure:"stdout"`
	ServiceName string `mapstructure:"service_name"`
}

// Load reads configuration from file and env. Env var overrides use prefix PMO_,
// and the bare PORT and DB_PATH variables are honored too.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("server.port", 3978)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("database.path", "./pmo.db")
	v.SetDefault("auth.jwt_secret", DevJWTSecret)
	v.SetDefault("auth.token_ttl", "168h")
	v.SetDefault("bot.id", "pmo-bot")
	v.SetDefault("bot.name", "PMO Assistant")
	v.SetDefault("bot.seed", 0)
	v.SetDefault("bot.reminder_check_interval", "30s")
	v.SetDefault("bot.generic_replies", []string{})
	v.SetDefault("telemetry.stdout", false)
	v.SetDefault("telemetry.service_name", "pmo-bot")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("PMO_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "pmo-bot"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("PMO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.BindEnv("server.port", "PMO_SERVER_PORT", "PORT"); err != nil {
		return Config{}, err
	}
	if err := v.BindEnv("database.path", "PMO_DATABASE_PATH", "DB_PATH"); err != nil {
		return Config{}, err
	}

	if err := v.ReadInConfig(); err != nil {
		// a missing default file is fine; an explicit or broken one is not
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("config: database.path is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("config: auth.jwt_secret is required")
	}
	if c.Bot.ID == "" {
		return errors.New("config: bot.id is required")
	}
	if c.Bot.ReminderCheckInterval <= 0 {
		return fmt.Errorf("config: bot.reminder_check_interval must be positive, got %s", c.Bot.ReminderCheckInterval)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func (c Config) UsesDevSecret() bool {
	return c.Auth.JWTSecret == DevJWTSecret
}
