package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Funding/internal/policy"
	"github.com/MikeSquared-Agency/Funding/internal/store"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Hermes    HermesConfig    `yaml:"hermes" toml:"hermes"`
	Snapshots SnapshotsConfig `yaml:"snapshots" toml:"snapshots"`
	Policy    PolicyConfig    `yaml:"policy" toml:"policy"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

type ServerConfig struct {
	Port               int    `yaml:"port" toml:"port"`
	MetricsPort        int    `yaml:"metrics_port" toml:"metrics_port"`
	AdminToken         string `yaml:"admin_token" toml:"admin_token"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute" toml:"rate_limit_per_minute"`
}

// DatabaseConfig selects the PostgreSQL snapshot source. An empty URL
// reads snapshots from files.
type DatabaseConfig struct {
	URL string `yaml:"url" toml:"url"`
}

// HermesConfig enables scenario events when URL is set.
type HermesConfig struct {
	URL string `yaml:"url" toml:"url"`
}

type SnapshotsConfig struct {
	Dir   string      `yaml:"dir" toml:"dir"`
	Files store.Names `yaml:"files" toml:"files"`

	// ReloadIntervalSeconds polls the source for new snapshots; 0 disables.
	ReloadIntervalSeconds int `yaml:"reload_interval_seconds" toml:"reload_interval_seconds"`
}

type PolicyConfig struct {
	CreditCorrections bool    `yaml:"credit_corrections" toml:"credit_corrections"`
	ClampNegativeAGI  bool    `yaml:"clamp_negative_agi" toml:"clamp_negative_agi"`
	MaxTaxRatePercent float64 `yaml:"max_tax_rate_percent" toml:"max_tax_rate_percent"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

func (c *Config) ReloadInterval() time.Duration {
	return time.Duration(c.Snapshots.ReloadIntervalSeconds) * time.Second
}

// Rules converts the policy section into simulation rules.
func (c *Config) Rules() policy.Rules {
	return policy.Rules{
		CreditCorrections: c.Policy.CreditCorrections,
		ClampNegativeAGI:  c.Policy.ClampNegativeAGI,
	}
}

func Default() *Config {
	rules := policy.DefaultRules()
	return &Config{
		Server: ServerConfig{
			Port:               8700,
			MetricsPort:        8701,
			RateLimitPerMinute: 120,
		},
		Snapshots: SnapshotsConfig{
			Dir:   "data",
			Files: store.DefaultNames(),
		},
		Policy: PolicyConfig{
			CreditCorrections: rules.CreditCorrections,
			ClampNegativeAGI:  rules.ClampNegativeAGI,
			MaxTaxRatePercent: policy.DefaultMaxTaxRatePercent,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads defaults, then the file at path (TOML when it ends in .toml,
// YAML otherwise), then FUNDING_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			err = toml.Unmarshal(data, cfg)
		} else {
			err = yaml.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.MetricsPort <= 0 {
		return fmt.Errorf("%w: ports must be positive", ErrInvalid)
	}
	if c.Snapshots.ReloadIntervalSeconds < 0 {
		return fmt.Errorf("%w: negative reload_interval_seconds", ErrInvalid)
	}
	if c.Policy.MaxTaxRatePercent <= 0 || c.Policy.MaxTaxRatePercent > policy.DefaultMaxTaxRatePercent {
		return fmt.Errorf("%w: max_tax_rate_percent %v outside (0, %v]",
			ErrInvalid, c.Policy.MaxTaxRatePercent, policy.DefaultMaxTaxRatePercent)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("%w: logging format %q", ErrInvalid, c.Logging.Format)
	}
	return nil
}

// Logger builds the process logger from the logging section.
func (c *Config) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FUNDING_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("FUNDING_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("FUNDING_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("FUNDING_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("FUNDING_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("FUNDING_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("FUNDING_SNAPSHOTS_DIR"); v != "" {
		cfg.Snapshots.Dir = v
	}
	if v := os.Getenv("FUNDING_RELOAD_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Snapshots.ReloadIntervalSeconds = n
		}
	}
	if v := os.Getenv("FUNDING_CREDIT_CORRECTIONS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Policy.CreditCorrections = b
		}
	}
	if v := os.Getenv("FUNDING_CLAMP_NEGATIVE_AGI"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Policy.ClampNegativeAGI = b
		}
	}
	if v := os.Getenv("FUNDING_MAX_TAX_RATE_PERCENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Policy.MaxTaxRatePercent = f
		}
	}
	if v := os.Getenv("FUNDING_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FUNDING_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
