package panel

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tonhe/sol/internal/client"
)

func seriesFor(days int) []client.HistoryPoint {
	points := make([]client.HistoryPoint, days)
	for i := range points {
		points[i] = client.HistoryPoint{
			DateTime: fmt.Sprintf("range%d-%02d", days, i),
			ACPower:  float64(days*100 + i),
		}
	}
	return points
}

func TestHistorySetRangeDiscardsPreviousSeries(t *testing.T) {
	src := &fakeSource{history: func(ctx context.Context, days int) ([]client.HistoryPoint, error) {
		return seriesFor(days), nil
	}}
	h, err := NewHistoryPanel("history", src, 5, time.Hour, Options{})
	if err != nil {
		t.Fatalf("NewHistoryPanel() error: %v", err)
	}
	h.Start()
	defer h.Stop()

	waitFor(t, "5-day series", func() bool { return h.Snapshot().State == StateReady })
	if got := len(h.Snapshot().Data.Points); got != 5 {
		t.Fatalf("expected 5 points, got %d", got)
	}

	if err := h.SetRange(30); err != nil {
		t.Fatalf("SetRange(30) error: %v", err)
	}
	if h.Range() != 30 {
		t.Errorf("expected range 30, got %d", h.Range())
	}

	waitFor(t, "30-day series", func() bool {
		s := h.Snapshot()
		return s.State == StateReady && s.Data.Days == 30
	})
	for _, pt := range h.Snapshot().Data.Points {
		if pt.DateTime[:7] != "range30" {
			t.Fatalf("point %q from the previous range leaked into the new series", pt.DateTime)
		}
	}
}

func TestHistorySetRangeResetsToLoading(t *testing.T) {
	release := make(chan struct{})
	src := &fakeSource{history: func(ctx context.Context, days int) ([]client.HistoryPoint, error) {
		if days == 30 {
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return seriesFor(days), nil
	}}
	h, err := NewHistoryPanel("history", src, 5, time.Hour, Options{})
	if err != nil {
		t.Fatalf("NewHistoryPanel() error: %v", err)
	}
	h.Start()
	defer h.Stop()
	waitFor(t, "5-day series", func() bool { return h.Snapshot().State == StateReady })

	if err := h.SetRange(30); err != nil {
		t.Fatalf("SetRange(30) error: %v", err)
	}
	s := h.Snapshot()
	if s.State != StateLoading || s.HasData || len(s.Data.Points) != 0 {
		t.Errorf("expected empty loading panel after range change, got %v with %d points", s.State, len(s.Data.Points))
	}
	close(release)
	waitFor(t, "30-day series", func() bool { return h.Snapshot().State == StateReady })
}

func TestHistoryInFlightResultDroppedOnRangeChange(t *testing.T) {
	entered := make(chan struct{}, 1)
	src := &fakeSource{history: func(ctx context.Context, days int) ([]client.HistoryPoint, error) {
		if days == 5 {
			entered <- struct{}{}
			<-ctx.Done()
			return seriesFor(5), nil
		}
		return seriesFor(days), nil
	}}
	h, err := NewHistoryPanel("history", src, 5, time.Hour, Options{})
	if err != nil {
		t.Fatalf("NewHistoryPanel() error: %v", err)
	}
	h.Start()
	defer h.Stop()
	<-entered

	if err := h.SetRange(30); err != nil {
		t.Fatalf("SetRange(30) error: %v", err)
	}
	waitFor(t, "30-day series", func() bool { return h.Snapshot().State == StateReady })
	time.Sleep(20 * time.Millisecond)

	s := h.Snapshot()
	if s.Data.Days != 30 || len(s.Data.Points) != 30 {
		t.Errorf("expected only the 30-day series, got %d days with %d points", s.Data.Days, len(s.Data.Points))
	}
	if s.Attempts != 1 {
		t.Errorf("the cancelled 5-day attempt must not be delivered, got %d attempts", s.Attempts)
	}
}

func TestHistoryInvalidRange(t *testing.T) {
	if _, err := NewHistoryPanel("history", &fakeSource{}, 7, time.Hour, Options{}); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange from constructor, got %v", err)
	}
	h, _ := NewHistoryPanel("history", &fakeSource{}, 5, time.Hour, Options{})
	if err := h.SetRange(14); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
	if h.Range() != 5 {
		t.Errorf("range should be unchanged, got %d", h.Range())
	}
}

func TestHistorySetRangeAfterStop(t *testing.T) {
	h, _ := NewHistoryPanel("history", &fakeSource{}, 5, time.Hour, Options{})
	h.Stop()
	if err := h.SetRange(30); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestHistorySetRangeBeforeStart(t *testing.T) {
	h, _ := NewHistoryPanel("history", &fakeSource{history: func(ctx context.Context, days int) ([]client.HistoryPoint, error) {
		return seriesFor(days), nil
	}}, 5, time.Hour, Options{})
	if err := h.SetRange(30); err != nil {
		t.Fatalf("SetRange(30) error: %v", err)
	}
	h.Start()
	defer h.Stop()
	waitFor(t, "ready", func() bool { return h.Snapshot().State == StateReady })
	if h.Snapshot().Data.Days != 30 {
		t.Errorf("expected the range chosen before start, got %d", h.Snapshot().Data.Days)
	}
}

func TestHistorySeriesValues(t *testing.T) {
	h := History{Days: 5, Points: []client.HistoryPoint{
		{ACPower: 3, AmbientTemperature: 20, ModuleTemperature: 31},
		{ACPower: 1, AmbientTemperature: 22, ModuleTemperature: 35},
	}}
	if v := h.Values(SeriesACPower); v[0] != 3 || v[1] != 1 {
		t.Errorf("AC power values out of backend order: %v", v)
	}
	if v := h.Values(SeriesModule); v[1] != 35 {
		t.Errorf("unexpected module values %v", v)
	}
	if SeriesModule.Next() != SeriesACPower {
		t.Error("series should cycle back to AC power")
	}
}
