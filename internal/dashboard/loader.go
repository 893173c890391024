package dashboard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// LoadDashboard reads a TOML file at path and returns a populated Dashboard.
// Missing fields get defaults: history_days 5, trend_length 120, the kind's
// poll interval, and the four sensor metrics for readings panels. An
// explicit interval of "0s" makes the panel fetch once.
func LoadDashboard(path string) (*Dashboard, error) {
	var dash Dashboard
	if _, err := toml.DecodeFile(path, &dash); err != nil {
		return nil, err
	}
	if dash.Name == "" {
		dash.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if dash.HistoryDays == 0 {
		dash.HistoryDays = 5
	}
	if dash.TrendLength == 0 {
		dash.TrendLength = 120
	}
	for i := range dash.Panels {
		p := &dash.Panels[i]
		if p.Name == "" {
			p.Name = string(p.Kind)
		}
		if p.IntervalStr == "" {
			p.Interval = DefaultInterval(p.Kind)
		} else {
			d, err := time.ParseDuration(p.IntervalStr)
			if err != nil {
				return nil, fmt.Errorf("panel %q: interval: %w", p.Name, err)
			}
			p.Interval = d
		}
		if p.Kind == KindReadings && len(p.Metrics) == 0 {
			p.Metrics = append([]string(nil), DefaultMetrics...)
		}
	}
	if err := dash.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &dash, nil
}

// SaveDashboard writes a Dashboard to a TOML file at path.
// It serialises each panel's Interval into IntervalStr before encoding.
func SaveDashboard(dash *Dashboard, path string) error {
	for i := range dash.Panels {
		dash.Panels[i].IntervalStr = dash.Panels[i].Interval.String()
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(dash)
}

// ListDashboards returns the base names (without .toml extension) of all TOML
// files found in dir.
func ListDashboards(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".toml") {
			name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
			names = append(names, name)
		}
	}
	return names, nil
}

// Find loads <dir>/<name>.toml. The name "default" falls back to
// DefaultDashboard when no such file exists.
func Find(dir, name string) (*Dashboard, error) {
	path := filepath.Join(dir, name+".toml")
	dash, err := LoadDashboard(path)
	if err == nil {
		return dash, nil
	}
	if errors.Is(err, os.ErrNotExist) && name == "default" {
		return DefaultDashboard(), nil
	}
	return nil, err
}
