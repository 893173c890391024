package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tonhe/sol/internal/client"
	"github.com/tonhe/sol/internal/dashboard"
	"github.com/tonhe/sol/internal/panel"
	"github.com/tonhe/sol/internal/threshold"
)

func statusCmd(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	baseURL := fs.String("base-url", "", "Backend base URL")
	days := fs.Int("days", 5, "History range to check (5 or 30)")
	timeout := fs.Duration("timeout", 10*time.Second, "Per-request timeout")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: sol status [--base-url URL] [--days 5|30] [--timeout DURATION]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if !panel.ValidRange(*days) {
		fatal("%v", panel.ErrInvalidRange)
	}

	cfg, _, err := LoadConfig(Overrides{BaseURL: *baseURL})
	if err != nil {
		fatal("%v", err)
	}
	c, err := NewClient(cfg)
	if err != nil {
		fatal("%v", err)
	}

	fmt.Printf("Backend: %s\n\n", c.BaseURL())

	failed := 0
	call := func(name string, fn func(ctx context.Context) error) {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			failed++
			fmt.Printf("%-18s  FAILED (%s): %v\n", name, client.Kind(err), err)
		}
	}

	eval := threshold.Default()
	call("readings", func(ctx context.Context) error {
		d, err := c.CurrentData(ctx)
		if err != nil {
			return err
		}
		metrics := make([]threshold.Metric, len(dashboard.DefaultMetrics))
		for i, m := range dashboard.DefaultMetrics {
			metrics[i] = threshold.Metric(m)
		}
		r, err := panel.EvaluateReadings(eval, metrics, d)
		if err != nil {
			return err
		}
		fmt.Println("readings")
		for _, m := range r.Metrics {
			t, _ := eval.Lookup(m)
			value := "n/a"
			if v := r.Value(m); v != nil {
				value = fmt.Sprintf("%.2f %s", *v, t.Unit)
			}
			fmt.Printf("  %-14s  %12s  %-12s  [%g, %g]\n", t.Label, value, r.Statuses[m], t.Min, t.Max)
		}
		return nil
	})

	call("power", func(ctx context.Context) error {
		kw, err := c.CurrentPower(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%-18s  %.2f kW (%s)\n", "power", kw, threshold.PowerBand(kw))
		return nil
	})

	call("alerts", func(ctx context.Context) error {
		alerts, err := c.Alerts(ctx)
		if err != nil {
			return err
		}
		if len(alerts) == 0 {
			fmt.Printf("%-18s  none\n", "alerts")
			return nil
		}
		fmt.Printf("%-18s  %d active\n", "alerts", len(alerts))
		for _, a := range alerts {
			fmt.Printf("  - %s\n", a)
		}
		return nil
	})

	call("forecast", func(ctx context.Context) error {
		preds, err := c.PredictFuture(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%-18s  %d days\n", "forecast", len(preds))
		for _, p := range preds {
			fmt.Printf("  %-12s  %.2f kW\n", p.Date, p.Prediction)
		}
		return nil
	})

	call("history", func(ctx context.Context) error {
		points, err := c.History(ctx, *days)
		if err != nil {
			return err
		}
		fmt.Printf("%-18s  %d points over %d days\n", "history", len(points), *days)
		return nil
	})

	call("maintenance", func(ctx context.Context) error {
		mt, err := c.CheckMaintenance(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%-18s  %s\n", "maintenance", mt.Alert)
		return nil
	})

	call("faulty equipment", func(ctx context.Context) error {
		faulty, err := c.FaultyEquipment(ctx)
		if err != nil {
			return err
		}
		if len(faulty) == 0 {
			fmt.Printf("%-18s  none\n", "faulty equipment")
			return nil
		}
		fmt.Printf("%-18s  %v\n", "faulty equipment", faulty)
		return nil
	})

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "\n%d endpoint(s) failed\n", failed)
		os.Exit(1)
	}
}
