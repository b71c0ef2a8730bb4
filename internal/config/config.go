// Package config loads ideabridge settings from an optional YAML file, an
// optional .env file and IDEABRIDGE_* environment variables, in rising precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. IDEABRIDGE_API_BASE_URL.
const EnvPrefix = "IDEABRIDGE"

type Config struct {
	API struct {
		BaseURL    string
		Timeout    time.Duration
		RatePerSec float64
		Burst      int
		Paths      map[string]string
	}
	Session struct {
		Driver string // "sqlite3" or "pgx"
		DSN    string
	}
	Log struct {
		Level string
	}
	DevServer struct {
		Addr          string
		Secret        string
		TokenTTL      time.Duration
		AdminEmail    string
		AdminPassword string
	}
}

// Options controls where Load looks for files. Zero values use the defaults.
type Options struct {
	ConfigFile string
	EnvFile    string
}

// Load resolves configuration. A missing config or .env file is not an error.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("ideabridge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/ideabridge")
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	cfg.API.BaseURL = strings.TrimRight(v.GetString("api.base_url"), "/")
	cfg.API.Timeout = v.GetDuration("api.timeout")
	cfg.API.RatePerSec = v.GetFloat64("api.rate_per_sec")
	cfg.API.Burst = v.GetInt("api.burst")
	cfg.API.Paths = v.GetStringMapString("api.paths")

	cfg.Session.Driver = v.GetString("session.driver")
	cfg.Session.DSN = v.GetString("session.dsn")

	cfg.Log.Level = v.GetString("log.level")

	cfg.DevServer.Addr = v.GetString("devserver.addr")
	cfg.DevServer.Secret = v.GetString("devserver.secret")
	cfg.DevServer.TokenTTL = v.GetDuration("devserver.token_ttl")
	cfg.DevServer.AdminEmail = v.GetString("devserver.admin_email")
	cfg.DevServer.AdminPassword = v.GetString("devserver.admin_password")

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080/api")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.rate_per_sec", 10.0)
	v.SetDefault("api.burst", 20)

	v.SetDefault("session.driver", "sqlite3")
	v.SetDefault("session.dsn", defaultSessionDSN())

	v.SetDefault("log.level", "info")

	v.SetDefault("devserver.addr", ":8080")
	v.SetDefault("devserver.secret", "dev-secret-change-me")
	v.SetDefault("devserver.token_ttl", 24*time.Hour)
	v.SetDefault("devserver.admin_email", "admin@ideabridge.local")
	v.SetDefault("devserver.admin_password", "admin123")
}

func defaultSessionDSN() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "file:ideabridge-session.db"
	}
	return "file:" + dir + "/ideabridge/session.db"
}

func validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if cfg.API.RatePerSec < 0 || cfg.API.Burst < 0 {
		return fmt.Errorf("api.rate_per_sec and api.burst must not be negative")
	}
	switch cfg.Session.Driver {
	case "sqlite3", "pgx", "memory":
	default:
		return fmt.Errorf("session.driver %q is not supported", cfg.Session.Driver)
	}
	if cfg.Session.Driver != "memory" && cfg.Session.DSN == "" {
		return fmt.Errorf("session.dsn is required")
	}
	if cfg.DevServer.TokenTTL <= 0 {
		return fmt.Errorf("devserver.token_ttl must be positive")
	}
	return nil
}
