package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultJWTSecret is only acceptable when running in development.
const DefaultJWTSecret = "supersecretkey"

type Config struct {
	Addr            string        `yaml:"addr"`
	Env             string        `yaml:"env"`
	JWTSecret       string        `yaml:"jwt_secret"`
	APITimeout      time.Duration `yaml:"timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	DatabasePath    string        `yaml:"database_path"`
	TokenDuration   time.Duration `yaml:"token_duration"`
	LogLevel        string        `yaml:"log_level"`
	CORSOrigin      string        `yaml:"cors_origin"`
	// BackupInterval of zero disables scheduled backups.
	BackupInterval  time.Duration `yaml:"backup_interval"`
	BackupDir       string        `yaml:"backup_dir"`
	BackupKeep      int           `yaml:"backup_keep"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:            getEnv("REVIEW_ADDR", ":8080"),
		Env:             getEnv("REVIEW_ENV", "production"),
		JWTSecret:       getEnv("REVIEW_JWT_SECRET", DefaultJWTSecret),
		APITimeout:      15 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		DatabasePath:    getEnv("REVIEW_DATABASE_PATH", "review.db"),
		TokenDuration:   1 * time.Hour,
		LogLevel:        getEnv("REVIEW_LOG_LEVEL", "info"),
		CORSOrigin:      getEnv("REVIEW_CORS_ORIGIN", "*"),
		BackupDir:       getEnv("REVIEW_BACKUP_DIR", "backups"),
		BackupKeep:      7,
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	return cfg, nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path is required"))
	}
	if c.APITimeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}
	if c.TokenDuration <= 0 {
		errs = append(errs, errors.New("token_duration must be positive"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret is required"))
	} else if c.JWTSecret == DefaultJWTSecret && !c.IsDevelopment() {
		errs = append(errs, errors.New("jwt_secret must be changed outside development"))
	}
	if c.BackupInterval < 0 {
		errs = append(errs, errors.New("backup_interval must not be negative"))
	}
	if c.BackupInterval > 0 && c.BackupDir == "" {
		errs = append(errs, errors.New("backup_dir is required when backups are scheduled"))
	}
	if c.BackupKeep < 0 {
		errs = append(errs, errors.New("backup_keep must not be negative"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development") || strings.EqualFold(c.Env, "dev")
}

// SlogLevel returns the configured log level, falling back to info.
func (c *Config) SlogLevel() slog.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", s, err)
	}
	return lvl, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
