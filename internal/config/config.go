package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the web server and the CLI.
type Config struct {
	DBPath          string        `yaml:"db_path"`
	ListenAddr      string        `yaml:"listen_addr"`
	AnswerTimeout   time.Duration `yaml:"answer_timeout"`
	SessionLifetime time.Duration `yaml:"session_lifetime"`
	LogLevel        string        `yaml:"log_level"`
	Metrics         bool          `yaml:"metrics"`
}

func Default() Config {
	return Config{
		DBPath:          "quiz.db",
		ListenAddr:      ":8080",
		AnswerTimeout:   60 * time.Second,
		SessionLifetime: 24 * time.Hour,
		LogLevel:        "info",
		Metrics:         true,
	}
}

// Load reads .env into the environment, applies the YAML file at path over
// the defaults when it exists, and finally applies QUIZ_* environment
// overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Debug("config file not found, using defaults", "path", path)
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("QUIZ_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("QUIZ_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("QUIZ_ANSWER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid QUIZ_ANSWER_TIMEOUT value: %w", err)
		}
		c.AnswerTimeout = d
	}
	if v := os.Getenv("QUIZ_SESSION_LIFETIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid QUIZ_SESSION_LIFETIME value: %w", err)
		}
		c.SessionLifetime = d
	}
	if v := os.Getenv("QUIZ_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("QUIZ_METRICS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid QUIZ_METRICS value: %w", err)
		}
		c.Metrics = b
	}
	return nil
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// NewLogger returns a text logger at the configured level.
func (c *Config) NewLogger() *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
