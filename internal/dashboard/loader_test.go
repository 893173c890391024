package dashboard

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testDashboardTOML = `
name = "Rooftop"
history_days = 30
trend_length = 60

[[panels]]
name = "sensors"
kind = "readings"
interval = "2s"
metrics = ["AMBIENT_TEMPERATURE", "HUMIDITY"]

[[panels]]
kind = "power"

[[panels]]
name = "forecast"
kind = "predictions"
interval = "0s"

[[panels]]
name = "history"
kind = "history"
`

func TestLoadDashboard(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "rooftop.toml")
	os.WriteFile(path, []byte(testDashboardTOML), 0644)

	dash, err := LoadDashboard(path)
	if err != nil {
		t.Fatalf("LoadDashboard() error: %v", err)
	}
	if dash.Name != "Rooftop" {
		t.Errorf("expected name 'Rooftop', got %q", dash.Name)
	}
	if dash.HistoryDays != 30 {
		t.Errorf("expected history days 30, got %d", dash.HistoryDays)
	}
	if len(dash.Panels) != 4 {
		t.Fatalf("expected 4 panels, got %d", len(dash.Panels))
	}
	if dash.Panels[0].Interval != 2*time.Second {
		t.Errorf("expected sensors interval 2s, got %v", dash.Panels[0].Interval)
	}
	if len(dash.Panels[0].Metrics) != 2 {
		t.Errorf("expected 2 metrics, got %v", dash.Panels[0].Metrics)
	}
	if dash.Panels[1].Name != "power" {
		t.Errorf("unnamed panel should take its kind as name, got %q", dash.Panels[1].Name)
	}
	if dash.Panels[1].Interval != 5*time.Second {
		t.Errorf("expected default power interval 5s, got %v", dash.Panels[1].Interval)
	}
	if dash.Panels[2].Interval != 0 {
		t.Errorf("expected one-shot forecast, got %v", dash.Panels[2].Interval)
	}
	if dash.Panels[3].Interval != 60*time.Second {
		t.Errorf("expected default history interval 60s, got %v", dash.Panels[3].Interval)
	}
}

func TestLoadDashboardRejectsUnknownKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	os.WriteFile(path, []byte("[[panels]]\nname = \"map\"\nkind = \"map\"\n"), 0644)

	if _, err := LoadDashboard(path); err == nil {
		t.Error("expected error for unknown panel kind")
	}
}

func TestLoadDashboardRejectsDuplicateNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.toml")
	os.WriteFile(path, []byte("[[panels]]\nkind = \"power\"\n[[panels]]\nkind = \"power\"\n"), 0644)

	if _, err := LoadDashboard(path); err == nil {
		t.Error("expected error for duplicate panel names")
	}
}

func TestSaveDashboard(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "out.toml")

	dash := DefaultDashboard()
	dash.Name = "Saved Dashboard"
	dash.Panels[0].Interval = 3 * time.Second

	if err := SaveDashboard(dash, path); err != nil {
		t.Fatalf("SaveDashboard() error: %v", err)
	}

	loaded, err := LoadDashboard(path)
	if err != nil {
		t.Fatalf("reload error: %v", err)
	}
	if loaded.Name != "Saved Dashboard" {
		t.Errorf("expected 'Saved Dashboard', got %q", loaded.Name)
	}
	if loaded.Panels[0].Interval != 3*time.Second {
		t.Errorf("expected 3s after reload, got %v", loaded.Panels[0].Interval)
	}
	if loaded.Panels[3].Interval != 0 {
		t.Errorf("predictions should stay one-shot after reload, got %v", loaded.Panels[3].Interval)
	}
}

func TestListDashboards(t *testing.T) {
	tmp := t.TempDir()
	os.WriteFile(filepath.Join(tmp, "a.toml"), []byte(testDashboardTOML), 0644)
	os.WriteFile(filepath.Join(tmp, "b.toml"), []byte(testDashboardTOML), 0644)
	os.WriteFile(filepath.Join(tmp, "not-toml.txt"), []byte("ignore"), 0644)

	names, err := ListDashboards(tmp)
	if err != nil {
		t.Fatalf("ListDashboards() error: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("expected 2 dashboards, got %d", len(names))
	}
}

func TestFindDefaultFallback(t *testing.T) {
	dash, err := Find(t.TempDir(), "default")
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if len(dash.Panels) != 5 {
		t.Errorf("expected the 5 built-in panels, got %d", len(dash.Panels))
	}
	if err := dash.Validate(); err != nil {
		t.Errorf("default dashboard should validate: %v", err)
	}
}

func TestFindMissingNamed(t *testing.T) {
	if _, err := Find(t.TempDir(), "rooftop"); err == nil {
		t.Error("expected error for missing named dashboard")
	}
}
