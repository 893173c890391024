package dashboard

import (
	"errors"
	"fmt"
	"time"
)

// Kind selects which backend endpoint and view-model a panel uses.
type Kind string

const (
	KindReadings    Kind = "readings"
	KindPower       Kind = "power"
	KindAlerts      Kind = "alerts"
	KindPredictions Kind = "predictions"
	KindHistory     Kind = "history"
)

// DefaultInterval is the poll period a panel of kind k gets when its
// definition leaves interval unset. Zero means fetch once.
func DefaultInterval(k Kind) time.Duration {
	switch k {
	case KindReadings, KindPower:
		return 5 * time.Second
	case KindAlerts:
		return 10 * time.Second
	case KindHistory:
		return 60 * time.Second
	default:
		return 0
	}
}

// DefaultMetrics are the readings a readings panel shows when none are listed.
var DefaultMetrics = []string{
	"AMBIENT_TEMPERATURE",
	"MODULE_TEMPERATURE",
	"IRRADIATION",
	"HUMIDITY",
}

// Dashboard represents a complete dashboard configuration loaded from TOML.
type Dashboard struct {
	Name        string  `toml:"name"`
	HistoryDays int     `toml:"history_days"`
	TrendLength int     `toml:"trend_length"`
	Panels      []Panel `toml:"panels"`
}

// Panel is one widget bound to one backend endpoint.
type Panel struct {
	Name        string        `toml:"name"`
	Kind        Kind          `toml:"kind"`
	IntervalStr string        `toml:"interval"`
	Interval    time.Duration `toml:"-"`
	Metrics     []string      `toml:"metrics,omitempty"`
}

// DefaultDashboard mirrors the backend's endpoint table.
func DefaultDashboard() *Dashboard {
	d := &Dashboard{
		Name:        "default",
		HistoryDays: 5,
		TrendLength: 120,
		Panels: []Panel{
			{Name: "readings", Kind: KindReadings, Metrics: append([]string(nil), DefaultMetrics...)},
			{Name: "power", Kind: KindPower},
			{Name: "alerts", Kind: KindAlerts},
			{Name: "predictions", Kind: KindPredictions},
			{Name: "history", Kind: KindHistory},
		},
	}
	for i := range d.Panels {
		d.Panels[i].Interval = DefaultInterval(d.Panels[i].Kind)
		d.Panels[i].IntervalStr = d.Panels[i].Interval.String()
	}
	return d
}

// Validate reports every problem in the definition at once.
func (d *Dashboard) Validate() error {
	var errs []error
	if len(d.Panels) == 0 {
		errs = append(errs, errors.New("dashboard has no panels"))
	}
	if d.HistoryDays != 5 && d.HistoryDays != 30 {
		errs = append(errs, fmt.Errorf("history_days must be 5 or 30, got %d", d.HistoryDays))
	}
	seen := make(map[string]bool, len(d.Panels))
	for _, p := range d.Panels {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("%s panel has no name", p.Kind))
			continue
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Errorf("duplicate panel name %q", p.Name))
		}
		seen[p.Name] = true
		switch p.Kind {
		case KindReadings, KindPower, KindAlerts, KindPredictions, KindHistory:
		default:
			errs = append(errs, fmt.Errorf("panel %q: unknown kind %q", p.Name, p.Kind))
		}
		if p.Interval < 0 {
			errs = append(errs, fmt.Errorf("panel %q: negative interval", p.Name))
		}
	}
	return errors.Join(errs...)
}

// PanelsOf returns the panels of kind k in definition order.
func (d *Dashboard) PanelsOf(k Kind) []Panel {
	var out []Panel
	for _, p := range d.Panels {
		if p.Kind == k {
			out = append(out, p)
		}
	}
	return out
}
