package panel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tonhe/sol/internal/client"
	"github.com/tonhe/sol/internal/dashboard"
	"github.com/tonhe/sol/internal/engine"
	"github.com/tonhe/sol/internal/threshold"
)

func okResult[T any](attempt int, v T) engine.Result[T] {
	return engine.Result[T]{Attempt: attempt, Value: v, Started: time.Now()}
}

func errResult[T any](attempt int, err error) engine.Result[T] {
	return engine.Result[T]{Attempt: attempt, Err: err, Started: time.Now()}
}

func TestPanelInitialState(t *testing.T) {
	p := NewAlertsPanel("alerts", &fakeSource{}, time.Hour, Options{})
	s := p.Snapshot()
	if s.State != StateLoading {
		t.Errorf("expected loading, got %v", s.State)
	}
	if s.HasData {
		t.Error("new panel should have no data")
	}
}

func TestPanelReadyStaleReady(t *testing.T) {
	p := NewAlertsPanel("alerts", &fakeSource{}, time.Hour, Options{})
	first := []string{"Module overheating"}
	second := []string{}
	netErr := &client.NetworkError{Method: "GET", URL: "/alerts", Err: errors.New("connection refused")}

	p.handle(okResult(1, first))
	if s := p.Snapshot(); s.State != StateReady || len(s.Data) != 1 {
		t.Fatalf("expected ready with first data, got %v %v", s.State, s.Data)
	}

	p.handle(errResult[[]string](2, netErr))
	s := p.Snapshot()
	if s.State != StateStale {
		t.Fatalf("expected stale after failure, got %v", s.State)
	}
	if len(s.Data) != 1 || s.Data[0] != "Module overheating" {
		t.Errorf("stale panel should keep the first data, got %v", s.Data)
	}
	var ne *client.NetworkError
	if !errors.As(s.Err, &ne) {
		t.Errorf("expected network error on stale panel, got %v", s.Err)
	}

	p.handle(okResult(3, second))
	s = p.Snapshot()
	if s.State != StateReady {
		t.Errorf("expected ready again, got %v", s.State)
	}
	if s.Err != nil {
		t.Errorf("error should clear on success, got %v", s.Err)
	}
	if s.Attempts != 3 || s.Failures != 1 {
		t.Errorf("expected 3 attempts and 1 failure, got %d and %d", s.Attempts, s.Failures)
	}
}

func TestPanelFailureWhileLoading(t *testing.T) {
	p := NewAlertsPanel("alerts", &fakeSource{}, time.Hour, Options{})
	p.handle(errResult[[]string](1, &client.HTTPError{Status: 500}))

	s := p.Snapshot()
	if s.State != StateLoading {
		t.Errorf("failure before any data should stay loading, got %v", s.State)
	}
	if s.Err == nil {
		t.Error("expected the failure to be recorded")
	}
	if s.HasData {
		t.Error("expected no data")
	}
}

func TestPanelStopIsTerminal(t *testing.T) {
	p := NewAlertsPanel("alerts", &fakeSource{}, time.Hour, Options{})
	p.handle(okResult(1, []string{"a"}))
	p.Stop()
	p.handle(errResult[[]string](2, errors.New("late")))
	p.handle(okResult(3, []string{"b"}))

	s := p.Snapshot()
	if !s.Stopped {
		t.Error("expected stopped flag")
	}
	if s.State != StateReady || s.Data[0] != "a" || s.Attempts != 1 {
		t.Errorf("no transition expected after Stop, got %+v", s)
	}
	p.Stop()
}

func TestPanelSubscribe(t *testing.T) {
	p := NewAlertsPanel("alerts", &fakeSource{}, time.Hour, Options{})
	ch := p.Subscribe()
	p.handle(okResult(1, []string{}))

	select {
	case ev := <-ch:
		if ev.Panel != "alerts" || ev.State != StateReady || ev.Kind != dashboard.KindAlerts {
			t.Errorf("unexpected event %+v", ev)
		}
	default:
		t.Fatal("expected an event after a transition")
	}
}

func TestPanelSummary(t *testing.T) {
	p := NewAlertsPanel("alerts", &fakeSource{}, time.Hour, Options{})
	if sum := p.Summary(); sum.Data != nil || sum.UpdatedAt != nil {
		t.Errorf("loading summary should carry no data, got %+v", sum)
	}
	p.handle(okResult(1, []string{"x"}))
	p.handle(errResult[[]string](2, errors.New("timeout")))

	sum := p.Summary()
	if sum.State != StateStale || sum.Error != "timeout" {
		t.Errorf("unexpected summary %+v", sum)
	}
	if data, ok := sum.Data.([]string); !ok || data[0] != "x" {
		t.Errorf("expected stale data in summary, got %#v", sum.Data)
	}
}

func TestPanelLivePolling(t *testing.T) {
	src := &fakeSource{alerts: func(ctx context.Context) ([]string, error) {
		return []string{"Low irradiation"}, nil
	}}
	p := NewAlertsPanel("alerts", src, time.Hour, Options{})
	p.Start()
	defer p.Stop()

	waitFor(t, "ready", func() bool { return p.Snapshot().State == StateReady })
	if info := p.Info(); info.PollCount != 1 || info.Name != "alerts" {
		t.Errorf("unexpected engine info %+v", info)
	}
}

func TestPanelTimeout(t *testing.T) {
	src := &fakeSource{alerts: func(ctx context.Context) ([]string, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	p := NewAlertsPanel("alerts", src, time.Hour, Options{Timeout: 10 * time.Millisecond})
	p.Start()
	defer p.Stop()

	waitFor(t, "timeout failure", func() bool { return p.Snapshot().Failures == 1 })
	if err := p.Snapshot().Err; !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestReadingsStatuses(t *testing.T) {
	src := &fakeSource{current: func(ctx context.Context) (client.CurrentData, error) {
		return client.CurrentData{
			AmbientTemperature: ptr(40),
			ModuleTemperature:  ptr(30),
			Irradiation:        ptr(0.5),
			Humidity:           ptr(50),
		}, nil
	}}
	metrics := []threshold.Metric{threshold.AmbientTemperature, threshold.ModuleTemperature, threshold.Irradiation, threshold.Humidity}
	p, err := NewReadingsPanel("readings", src, threshold.Default(), metrics, time.Hour, Options{})
	if err != nil {
		t.Fatalf("NewReadingsPanel() error: %v", err)
	}
	p.Start()
	defer p.Stop()

	waitFor(t, "ready", func() bool { return p.Snapshot().State == StateReady })
	r := p.Snapshot().Data
	want := map[threshold.Metric]threshold.Status{
		threshold.AmbientTemperature: threshold.OutOfRange,
		threshold.ModuleTemperature:  threshold.OK,
		threshold.Irradiation:        threshold.OK,
		threshold.Humidity:           threshold.OK,
	}
	for m, st := range want {
		if r.Statuses[m] != st {
			t.Errorf("%s: expected %v, got %v", m, st, r.Statuses[m])
		}
	}
	if oor := r.OutOfRange(); len(oor) != 1 || oor[0] != threshold.AmbientTemperature {
		t.Errorf("expected only ambient out of range, got %v", oor)
	}
}

func TestReadingsMissingValueOutOfRange(t *testing.T) {
	r, err := EvaluateReadings(threshold.Default(), []threshold.Metric{threshold.Humidity}, client.CurrentData{})
	if err != nil {
		t.Fatalf("EvaluateReadings() error: %v", err)
	}
	if r.Statuses[threshold.Humidity] != threshold.OutOfRange {
		t.Errorf("missing humidity should be out of range, got %v", r.Statuses[threshold.Humidity])
	}
}

func TestReadingsUnknownMetric(t *testing.T) {
	_, err := NewReadingsPanel("readings", &fakeSource{}, threshold.Default(),
		[]threshold.Metric{threshold.Humidity, threshold.ACPower}, time.Hour, Options{})
	if !errors.Is(err, threshold.ErrUnknownMetric) {
		t.Fatalf("expected config error, got %v", err)
	}
	var cfgErr *threshold.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected *threshold.ConfigError, got %T", err)
	}
}

func TestReadingsOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/current-data" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"AMBIENT_TEMPERATURE": 40, "MODULE_TEMPERATURE": 30, "IRRADIATION": 0.5, "HUMIDITY": 50}`))
	}))
	defer srv.Close()

	c, err := client.New(srv.URL, nil)
	if err != nil {
		t.Fatalf("client.New() error: %v", err)
	}
	p, err := NewReadingsPanel("readings", c, threshold.Default(), threshold.Default().Metrics(), time.Hour, Options{})
	if err != nil {
		t.Fatalf("NewReadingsPanel() error: %v", err)
	}
	p.Start()
	defer p.Stop()

	waitFor(t, "ready", func() bool { return p.Snapshot().State == StateReady })
	if st := p.Snapshot().Data.Statuses[threshold.AmbientTemperature]; st != threshold.OutOfRange {
		t.Errorf("expected ambient out of range, got %v", st)
	}
}

func TestPowerTrend(t *testing.T) {
	p := NewPowerPanel("power", &fakeSource{}, time.Hour, 3, Options{})
	for i, kw := range []float64{50, 150, 250, 350} {
		p.handle(okResult(i+1, Power{KW: kw, Band: threshold.PowerBand(kw)}))
	}
	p.handle(errResult[Power](5, errors.New("down")))

	trend := p.Trend()
	want := []float64{150, 250, 350}
	if len(trend) != len(want) {
		t.Fatalf("expected %d trend values, got %v", len(want), trend)
	}
	for i := range want {
		if trend[i] != want[i] {
			t.Errorf("trend[%d] = %v, want %v", i, trend[i], want[i])
		}
	}
	if s := p.Snapshot(); s.Data.Band != threshold.BandHigh {
		t.Errorf("expected high band, got %v", s.Data.Band)
	}
}

func TestPredictionsOneShot(t *testing.T) {
	src := &fakeSource{future: func(ctx context.Context) ([]client.Prediction, error) {
		return []client.Prediction{{Date: "2024-06-01", Prediction: 120}}, nil
	}}
	p := NewPredictionsPanel("predictions", src, 0, Options{})
	p.Start()
	defer p.Stop()

	waitFor(t, "ready", func() bool { return p.Snapshot().State == StateReady })
	time.Sleep(20 * time.Millisecond)
	if s := p.Snapshot(); s.Attempts != 1 {
		t.Errorf("expected a single fetch, got %d", s.Attempts)
	}
}

func TestPanelHooksRunOnSuccessOnly(t *testing.T) {
	p := NewAlertsPanel("alerts", &fakeSource{}, time.Hour, Options{})
	var order []string
	p.OnReady(func(a []string) {
		if s := p.Snapshot(); s.State != StateReady {
			t.Errorf("hook ran before the state update: %v", s.State)
		}
		order = append(order, "first")
	})
	p.OnReady(func(a []string) { order = append(order, "second") })

	p.handle(errResult[[]string](1, errors.New("down")))
	if len(order) != 0 {
		t.Fatalf("hooks ran on failure: %v", order)
	}

	p.handle(okResult(2, []string{"Panel 4 faulty"}))
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("unexpected hook order: %v", order)
	}
}
