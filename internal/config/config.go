// Package config loads server and tool configuration from defaults, an
// optional TOML file, a .env file and AD_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Redis    RedisConfig    `toml:"redis"`
	Media    MediaConfig    `toml:"media"`
	LastFM   LastFMConfig   `toml:"lastfm"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// DatabaseConfig holds the PostgreSQL connection string.
type DatabaseConfig struct {
	DSN string `toml:"dsn"`
}

// AuthConfig holds token lifetimes and login throttling.
type AuthConfig struct {
	JWTKey        string        `toml:"jwt_key"`
	AccessTTL     time.Duration `toml:"access_ttl"`
	RefreshTTL    time.Duration `toml:"refresh_ttl"`
	PurgeInterval time.Duration `toml:"purge_interval"`

	RateLimit     bool          `toml:"rate_limit"`
	LimitWindow   time.Duration `toml:"limit_window"`
	LimitMaxFails int           `toml:"limit_max_fails"`
	LimitBlockFor time.Duration `toml:"limit_block_for"`
}

// RedisConfig enables the ranking cache when Addr is set.
type RedisConfig struct {
	Addr     string        `toml:"addr"`
	Password string        `toml:"password"`
	DB       int           `toml:"db"`
	Prefix   string        `toml:"prefix"`
	TTL      time.Duration `toml:"ttl"`
}

// MediaConfig locates audio files. Imported files move to Storage/added.
type MediaConfig struct {
	Storage   string `toml:"storage"`
	ImportDir string `toml:"import_dir"`
}

// AddedDir is where imported files are kept.
func (m MediaConfig) AddedDir() string { return filepath.Join(m.Storage, "added") }

// LastFMConfig configures metadata enrichment. An empty APIKey disables it.
type LastFMConfig struct {
	APIKey  string        `toml:"api_key"`
	BaseURL string        `toml:"base_url"`
	Timeout time.Duration `toml:"timeout"`
}

// LoggingConfig configures zap and optional file rotation.
type LoggingConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    0, // streaming responses
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			AccessTTL:     24 * time.Hour,
			RefreshTTL:    24 * 7 * 24 * time.Hour,
			PurgeInterval: time.Hour,
			RateLimit:     true,
			LimitWindow:   15 * time.Minute,
			LimitMaxFails: 5,
			LimitBlockFor: 15 * time.Minute,
		},
		Redis: RedisConfig{Prefix: "ad", TTL: time.Minute},
		Media: MediaConfig{
			Storage:   "./media_storage",
			ImportDir: "./media_storage",
		},
		LastFM: LastFMConfig{
			BaseURL: "https://ws.audioscrobbler.com/2.0/",
			Timeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Override adjusts a loaded configuration before validation, e.g. from command-line flags.
type Override func(*Config)

// Load builds the configuration. path may be empty; a missing .env is not an error.
func Load(path string, overrides ...Override) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// godotenv.Load does not override variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func lookup(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func (c *Config) applyEnv() error {
	strs := []struct {
		dst  *string
		keys []string
	}{
		{&c.Server.Addr, []string{"AD_ADDR"}},
		{&c.Database.DSN, []string{"AD_DSN", "DATABASE_URI"}},
		{&c.Auth.JWTKey, []string{"AD_JWT_KEY", "SECRET_KEY"}},
		{&c.Redis.Addr, []string{"AD_REDIS_ADDR"}},
		{&c.Redis.Password, []string{"AD_REDIS_PASSWORD"}},
		{&c.Media.Storage, []string{"AD_MEDIA_STORAGE", "MEDIA_STORAGE"}},
		{&c.Media.ImportDir, []string{"AD_IMPORT_DIR"}},
		{&c.LastFM.APIKey, []string{"AD_LASTFM_API_KEY", "LAST_FM_API_KEY"}},
		{&c.Logging.Level, []string{"AD_LOG_LEVEL"}},
		{&c.Logging.File, []string{"AD_LOG_FILE"}},
	}
	for _, s := range strs {
		if v, ok := lookup(s.keys...); ok {
			*s.dst = v
		}
	}

	if v, ok := lookup("AD_REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AD_REDIS_DB: %w", err)
		}
		c.Redis.DB = n
	}

	durs := []struct {
		dst *time.Duration
		key string
	}{
		{&c.Auth.AccessTTL, "AD_ACCESS_TTL"},
		{&c.Auth.RefreshTTL, "AD_REFRESH_TTL"},
		{&c.Auth.PurgeInterval, "AD_PURGE_INTERVAL"},
	}
	for _, d := range durs {
		if v, ok := lookup(d.key); ok {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}
	return nil
}

// Validate checks if the configuration is usable. The JWT key is checked by
// the server only, so offline tools can run without it.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server addr cannot be empty")
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn cannot be empty")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.Auth.PurgeInterval < 0 {
		return errors.New("purge interval cannot be negative")
	}
	if c.Media.Storage == "" {
		return errors.New("media storage cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	return nil
}
