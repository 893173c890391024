package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tonhe/sol/internal/client"
	"github.com/tonhe/sol/internal/config"
	"github.com/tonhe/sol/internal/dashboard"
	"github.com/tonhe/sol/internal/journal"
	"github.com/tonhe/sol/internal/logging"
	"github.com/tonhe/sol/internal/metrics"
	"github.com/tonhe/sol/internal/panel"
)

// Version is the release reported by `sol version` and the TUI header.
const Version = "0.1.0"

// Overrides are command-line values that win over config and environment.
type Overrides struct {
	Theme     string
	BaseURL   string
	Dashboard string
}

// LoadConfig reads config.toml, applies SOL_* variables and then o, and
// validates the result.
func LoadConfig(o Overrides) (*config.Config, string, error) {
	path, err := config.GetConfigPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, path, err
	}
	if o.Theme != "" {
		cfg.Theme = o.Theme
	}
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	if o.Dashboard != "" {
		cfg.Dashboard = o.Dashboard
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, path, nil
}

// NewLogger builds the process logger writing to w.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return logging.Setup(cfg.LogLevel, cfg.LogFormat, w)
}

// NewClient returns a backend client for cfg.BaseURL.
func NewClient(cfg *config.Config) (*client.Client, error) {
	return client.New(cfg.BaseURL, &http.Client{})
}

// LoadDashboard resolves cfg.Dashboard. The built-in default dashboard takes
// its history range and trend length from cfg; dashboard files carry their
// own.
func LoadDashboard(cfg *config.Config) (*dashboard.Dashboard, error) {
	dir, err := config.GetDashboardsDir()
	if err != nil {
		return nil, err
	}
	dash, err := dashboard.Find(dir, cfg.Dashboard)
	if err != nil {
		return nil, fmt.Errorf("dashboard %q: %w", cfg.Dashboard, err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, cfg.Dashboard+".toml")); os.IsNotExist(statErr) {
		dash.HistoryDays = cfg.HistoryDays
		if cfg.TrendLength > 0 {
			dash.TrendLength = cfg.TrendLength
		}
	}
	return dash, nil
}

// NewBoard builds the panel board for dash against src.
func NewBoard(cfg *config.Config, dash *dashboard.Dashboard, src panel.Source, log *slog.Logger, m *metrics.Metrics) (*panel.Board, error) {
	return panel.NewBoard(dash, src, panel.BoardOptions{
		Options: panel.Options{
			Logger:  log,
			Metrics: m,
			Timeout: cfg.RequestTimeout,
		},
		PredictRate: cfg.PredictRate,
	})
}

// OpenJournal opens the journal at cfg.JournalPath or the default data path.
func OpenJournal(cfg *config.Config, log *slog.Logger) (*journal.Journal, error) {
	path := cfg.JournalPath
	if path == "" {
		var err error
		if path, err = config.GetJournalPath(); err != nil {
			return nil, err
		}
	}
	return journal.Open(log, path)
}

// AttachJournal records every successful readings poll on b into j.
func AttachJournal(b *panel.Board, j *journal.Journal, log *slog.Logger, m *metrics.Metrics) {
	b.OnReadings(func(name string, r panel.Readings) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := j.Record(ctx, name, r, time.Now())
		m.ObserveJournalWrite(err)
		if err != nil {
			log.Warn("journal write failed", slog.String("panel", name), logging.Err(err))
		}
	})
}

// fatal prints err and exits the way every subcommand does.
func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
