package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Theme             string        `toml:"theme" env:"SOL_THEME"`
	BaseURL           string        `toml:"base_url" env:"SOL_BASE_URL"`
	Dashboard         string        `toml:"dashboard" env:"SOL_DASHBOARD"`
	HistoryDays       int           `toml:"history_days"`
	TrendLength       int           `toml:"trend_length"`
	LogLevel          string        `toml:"log_level" env:"SOL_LOG_LEVEL"`
	LogFormat         string        `toml:"log_format" env:"SOL_LOG_FORMAT"`
	ServeAddr         string        `toml:"serve_addr" env:"SOL_SERVE_ADDR"`
	JournalPath       string        `toml:"journal_path" env:"SOL_JOURNAL_PATH"`
	PredictRate       int           `toml:"predict_rate"`
	RequestTimeout    time.Duration `toml:"-"`
	RequestTimeoutStr string        `toml:"request_timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Theme:             "solarized-dark",
		BaseURL:           "http://127.0.0.1:5000",
		Dashboard:         "default",
		HistoryDays:       5,
		TrendLength:       120,
		LogLevel:          "info",
		LogFormat:         "text",
		ServeAddr:         ":8080",
		JournalPath:       "",
		PredictRate:       6,
		RequestTimeout:    0,
		RequestTimeoutStr: "0s",
	}
}

// LoadConfig reads path over the defaults and then applies SOL_* environment
// overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if cfg.RequestTimeoutStr != "" {
			d, err := time.ParseDuration(cfg.RequestTimeoutStr)
			if err != nil {
				return nil, fmt.Errorf("request_timeout: %w", err)
			}
			cfg.RequestTimeout = d
		}
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overwrites fields whose SOL_* variable is set.
func ApplyEnv(cfg *Config) error {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	return nil
}

// Validate checks the values the dashboard cannot run without.
func (c *Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.BaseURL)
	if err != nil || !u.IsAbs() {
		errs = append(errs, fmt.Errorf("base_url %q must be an absolute URL", c.BaseURL))
	}
	if c.HistoryDays != 5 && c.HistoryDays != 30 {
		errs = append(errs, fmt.Errorf("history_days must be 5 or 30, got %d", c.HistoryDays))
	}
	if c.PredictRate < 0 {
		errs = append(errs, fmt.Errorf("predict_rate must not be negative"))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request_timeout must not be negative"))
	}
	return errors.Join(errs...)
}

func SaveConfig(cfg *Config, path string) error {
	cfg.RequestTimeoutStr = cfg.RequestTimeout.String()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
