package panel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tonhe/sol/internal/client"
	"github.com/tonhe/sol/internal/dashboard"
	"github.com/tonhe/sol/internal/threshold"
)

func healthySource() *fakeSource {
	return &fakeSource{
		current: func(ctx context.Context) (client.CurrentData, error) {
			return client.CurrentData{AmbientTemperature: ptr(25), ModuleTemperature: ptr(30), Irradiation: ptr(0.6), Humidity: ptr(40)}, nil
		},
		power: func(ctx context.Context) (float64, error) { return 180, nil },
		history: func(ctx context.Context, days int) ([]client.HistoryPoint, error) {
			return seriesFor(days), nil
		},
		alerts: func(ctx context.Context) ([]string, error) { return []string{}, nil },
		future: func(ctx context.Context) ([]client.Prediction, error) {
			return []client.Prediction{{Date: "2024-06-02", Prediction: 140}}, nil
		},
	}
}

func TestBoardDefaultDashboard(t *testing.T) {
	b, err := NewBoard(dashboard.DefaultDashboard(), healthySource(), BoardOptions{})
	if err != nil {
		t.Fatalf("NewBoard() error: %v", err)
	}
	if err := b.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer b.Stop()

	if len(b.Panels()) != 5 {
		t.Fatalf("expected 5 panels, got %d", len(b.Panels()))
	}
	waitFor(t, "all panels ready", b.Healthy)

	if _, ok := b.Panel("power"); !ok {
		t.Error("expected a panel named power")
	}
	if len(b.Engines()) != 5 {
		t.Errorf("expected 5 engines registered, got %d", len(b.Engines()))
	}
	if err := b.Start(); err == nil {
		t.Error("second Start should fail")
	}
}

func TestBoardEvents(t *testing.T) {
	b, err := NewBoard(dashboard.DefaultDashboard(), healthySource(), BoardOptions{})
	if err != nil {
		t.Fatalf("NewBoard() error: %v", err)
	}
	b.Start()

	select {
	case ev := <-b.Events():
		if ev.Panel == "" {
			t.Errorf("event without panel name: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected at least one event")
	}

	b.Stop()
	for range b.Events() {
	}
}

func TestBoardSetHistoryRange(t *testing.T) {
	b, err := NewBoard(dashboard.DefaultDashboard(), healthySource(), BoardOptions{})
	if err != nil {
		t.Fatalf("NewBoard() error: %v", err)
	}
	b.Start()
	defer b.Stop()

	if b.HistoryRange() != 5 {
		t.Errorf("expected default range 5, got %d", b.HistoryRange())
	}
	if err := b.SetHistoryRange(30); err != nil {
		t.Fatalf("SetHistoryRange() error: %v", err)
	}
	if b.HistoryRange() != 30 {
		t.Errorf("expected range 30, got %d", b.HistoryRange())
	}
	if err := b.SetHistoryRange(1); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
	h := b.History()[0]
	waitFor(t, "30-day series", func() bool {
		s := h.Snapshot()
		return s.State == StateReady && s.Data.Days == 30
	})
}

func TestBoardUnknownMetricFailsConstruction(t *testing.T) {
	dash := dashboard.DefaultDashboard()
	dash.Panels[0].Metrics = append(dash.Panels[0].Metrics, "AC_POWER")

	_, err := NewBoard(dash, healthySource(), BoardOptions{})
	if !errors.Is(err, threshold.ErrUnknownMetric) {
		t.Fatalf("expected unknown metric error, got %v", err)
	}
}

func TestBoardOnReadings(t *testing.T) {
	b, err := NewBoard(dashboard.DefaultDashboard(), healthySource(), BoardOptions{})
	if err != nil {
		t.Fatalf("NewBoard() error: %v", err)
	}
	got := make(chan string, 4)
	b.OnReadings(func(panel string, r Readings) {
		select {
		case got <- panel:
		default:
		}
	})
	b.Start()
	defer b.Stop()

	select {
	case name := <-got:
		if name != "readings" {
			t.Errorf("expected hook for readings panel, got %q", name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("readings hook never ran")
	}
}

func TestBoardStaleNotHealthy(t *testing.T) {
	src := healthySource()
	src.alerts = func(ctx context.Context) ([]string, error) {
		return nil, &client.HTTPError{Status: 503}
	}
	b, err := NewBoard(dashboard.DefaultDashboard(), src, BoardOptions{})
	if err != nil {
		t.Fatalf("NewBoard() error: %v", err)
	}
	b.Start()
	defer b.Stop()

	waitFor(t, "alerts failure", func() bool {
		v, _ := b.Panel("alerts")
		return v.Summary().Failures > 0
	})
	if b.Healthy() {
		t.Error("board with a loading panel should not be healthy")
	}
}
