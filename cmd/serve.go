package cmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tonhe/sol/internal/journal"
	"github.com/tonhe/sol/internal/logging"
	"github.com/tonhe/sol/internal/metrics"
	"github.com/tonhe/sol/internal/server"
)

func serveCmd(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "Listen address (default from config)")
	baseURL := fs.String("base-url", "", "Backend base URL")
	dashName := fs.String("dashboard", "", "Dashboard name")
	noJournal := fs.Bool("no-journal", false, "Do not record readings")
	retain := fs.Duration("retain", 30*24*time.Hour, "Delete journal rows older than this (0 keeps everything)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: sol serve [--addr ADDR] [--base-url URL] [--dashboard NAME] [--no-journal] [--retain DURATION]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, _, err := LoadConfig(Overrides{BaseURL: *baseURL, Dashboard: *dashName})
	if err != nil {
		fatal("%v", err)
	}
	if *addr != "" {
		cfg.ServeAddr = *addr
	}
	log := NewLogger(cfg, os.Stderr)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	src, err := NewClient(cfg)
	if err != nil {
		fatal("%v", err)
	}
	dash, err := LoadDashboard(cfg)
	if err != nil {
		fatal("%v", err)
	}
	board, err := NewBoard(cfg, dash, src, log, m)
	if err != nil {
		fatal("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := server.Options{Address: cfg.ServeAddr, Gatherer: reg, Metrics: m}
	if !*noJournal {
		j, err := OpenJournal(cfg, log)
		if err != nil {
			fatal("%v", err)
		}
		defer j.Close()
		AttachJournal(board, j, log, m)
		opts.Journal = j
		if *retain > 0 {
			go pruneJournal(ctx, j, *retain, log)
		}
	}

	if err := board.Start(); err != nil {
		fatal("%v", err)
	}
	defer board.Stop()

	srv := server.New(log, board, opts)
	if err := srv.Run(ctx); err != nil {
		log.Error("server stopped", logging.Err(err))
		board.Stop()
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// pruneJournal deletes rows older than maxAge once an hour.
func pruneJournal(ctx context.Context, j *journal.Journal, maxAge time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		n, err := j.Cleanup(ctx, maxAge)
		if err != nil {
			log.Warn("journal cleanup failed", logging.Err(err))
		} else if n > 0 {
			log.Info("journal cleanup", slog.Int64("deleted", n))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
