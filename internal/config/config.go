// Package config reads the server configuration from the environment, after
// loading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Auth modes.
const (
	AuthUsers  = "usuarios"
	AuthStatic = "estatico"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Auth     AuthConfig
	Stock    StockConfig
	SMTP     SMTPConfig
	Metrics  MetricsConfig

	// OptionsFile overrides the form choice lists.
	OptionsFile string
}

type ServerConfig struct {
	Addr            string
	Env             string
	Timezone        string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver string
	DSN    string
}

type LogConfig struct {
	Level string
	File  string
}

// AuthConfig selects how operators log in. With AuthStatic a single account
// is checked against User and Hash; otherwise the usuarios table is used and
// AdminUser is created on first run.
type AuthConfig struct {
	Mode      string
	AdminUser string
	User      string
	Hash      string
}

type StockConfig struct {
	AllowNegative    bool
	KeepUnstockedLog bool
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

type MetricsConfig struct {
	Prefix string
}

// Load reads envFile when it exists and then the environment. A missing file
// is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("ALMOX_ADDR", ":8080"),
			Env:             getEnv("ALMOX_ENV", "development"),
			Timezone:        getEnv("ALMOX_TIMEZONE", "America/Sao_Paulo"),
			ShutdownTimeout: getEnvAsDuration("ALMOX_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Driver: getEnv("ALMOX_DB_DRIVER", "sqlite"),
			DSN:    getEnv("ALMOX_DB_DSN", "almoxarifado.sqlite3"),
		},
		Log: LogConfig{
			Level: getEnv("ALMOX_LOG_LEVEL", "info"),
			File:  getEnv("ALMOX_LOG_FILE", ""),
		},
		Auth: AuthConfig{
			Mode:      strings.ToLower(getEnv("ALMOX_AUTH_MODE", AuthUsers)),
			AdminUser: getEnv("ALMOX_ADMIN_USER", "admin"),
			User:      getEnv("ALMOX_AUTH_USER", ""),
			Hash:      getEnv("ALMOX_AUTH_HASH", ""),
		},
		Stock: StockConfig{
			AllowNegative:    getEnvAsBool("ALMOX_ALLOW_NEGATIVE_STOCK", false),
			KeepUnstockedLog: getEnvAsBool("ALMOX_KEEP_UNSTOCKED_LOG", false),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
			Timeout:  getEnvAsDuration("SMTP_TIMEOUT", 15*time.Second),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("ALMOX_METRICS_PREFIX", "almoxarifado"),
		},
		OptionsFile: getEnv("ALMOX_OPTIONS_FILE", ""),
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case AuthUsers:
	case AuthStatic:
		if c.Auth.User == "" || c.Auth.Hash == "" {
			return errors.New("static auth requires ALMOX_AUTH_USER and ALMOX_AUTH_HASH")
		}
	default:
		return fmt.Errorf("unknown auth mode %q", c.Auth.Mode)
	}
	if c.Server.Addr == "" {
		return errors.New("empty listen address")
	}
	if c.Database.DSN == "" {
		return errors.New("empty database DSN")
	}
	return nil
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Server.Timezone, err)
	}
	return loc, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
