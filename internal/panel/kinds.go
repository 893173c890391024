package panel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tonhe/sol/internal/client"
	"github.com/tonhe/sol/internal/dashboard"
	"github.com/tonhe/sol/internal/engine"
	"github.com/tonhe/sol/internal/threshold"
)

// Source is the backend as seen by the panels. *client.Client implements it.
type Source interface {
	CurrentData(ctx context.Context) (client.CurrentData, error)
	CurrentPower(ctx context.Context) (float64, error)
	History(ctx context.Context, days int) ([]client.HistoryPoint, error)
	Alerts(ctx context.Context) ([]string, error)
	PredictFuture(ctx context.Context) ([]client.Prediction, error)
	Predict(ctx context.Context, reading client.SensorReading) (float64, error)
}

// Readings is the current sensor sample with a status per displayed metric.
type Readings struct {
	Sample   client.CurrentData                    `json:"sample"`
	Metrics  []threshold.Metric                    `json:"metrics"`
	Statuses map[threshold.Metric]threshold.Status `json:"statuses"`
}

// Value returns the sampled value of m, nil when the backend omitted it.
func (r Readings) Value(m threshold.Metric) *float64 {
	return r.Sample.Value(string(m))
}

// OutOfRange lists the displayed metrics outside their threshold, in
// display order.
func (r Readings) OutOfRange() []threshold.Metric {
	var out []threshold.Metric
	for _, m := range r.Metrics {
		if r.Statuses[m] == threshold.OutOfRange {
			out = append(out, m)
		}
	}
	return out
}

// EvaluateReadings derives the status of every metric in metrics from d.
func EvaluateReadings(eval *threshold.Evaluator, metrics []threshold.Metric, d client.CurrentData) (Readings, error) {
	r := Readings{
		Sample:   d,
		Metrics:  metrics,
		Statuses: make(map[threshold.Metric]threshold.Status, len(metrics)),
	}
	for _, m := range metrics {
		st, err := eval.EvaluateOptional(m, d.Value(string(m)))
		if err != nil {
			return Readings{}, err
		}
		r.Statuses[m] = st
	}
	return r, nil
}

// NewReadingsPanel polls /current-data. Every metric must be in the
// evaluator's table; an unknown one fails construction with a
// *threshold.ConfigError.
func NewReadingsPanel(name string, src Source, eval *threshold.Evaluator, metrics []threshold.Metric, interval time.Duration, opts Options) (*Panel[Readings], error) {
	if err := eval.Require(metrics...); err != nil {
		return nil, fmt.Errorf("panel %q: %w", name, err)
	}
	metrics = append([]threshold.Metric(nil), metrics...)
	fetch := func(ctx context.Context) (Readings, error) {
		d, err := src.CurrentData(ctx)
		if err != nil {
			return Readings{}, err
		}
		return EvaluateReadings(eval, metrics, d)
	}
	return New[Readings](name, dashboard.KindReadings, fetch, interval, opts), nil
}

// Power is one generated-power sample.
type Power struct {
	KW   float64        `json:"kw"`
	Band threshold.Band `json:"band"`
	At   time.Time      `json:"at"`
}

// PowerPanel polls /current-power and keeps a bounded trend of good samples.
type PowerPanel struct {
	*Panel[Power]
	trend *engine.RingBuffer[Power]
}

// NewPowerPanel creates a power panel keeping trendLen samples.
func NewPowerPanel(name string, src Source, interval time.Duration, trendLen int, opts Options) *PowerPanel {
	fetch := func(ctx context.Context) (Power, error) {
		kw, err := src.CurrentPower(ctx)
		if err != nil {
			return Power{}, err
		}
		return Power{KW: kw, Band: threshold.PowerBand(kw), At: time.Now()}, nil
	}
	pp := &PowerPanel{
		Panel: New[Power](name, dashboard.KindPower, fetch, interval, opts),
		trend: engine.NewRingBuffer[Power](trendLen),
	}
	pp.OnReady(pp.trend.Add)
	return pp
}

// Trend returns the recorded power values, oldest first.
func (p *PowerPanel) Trend() []float64 {
	return engine.Values(p.trend, func(s Power) float64 { return s.KW })
}

// NewAlertsPanel polls /alerts.
func NewAlertsPanel(name string, src Source, interval time.Duration, opts Options) *Panel[[]string] {
	return New[[]string](name, dashboard.KindAlerts, src.Alerts, interval, opts)
}

// NewPredictionsPanel polls /predict-future. The forecast is normally
// fetched once, with interval 0.
func NewPredictionsPanel(name string, src Source, interval time.Duration, opts Options) *Panel[[]client.Prediction] {
	return New[[]client.Prediction](name, dashboard.KindPredictions, src.PredictFuture, interval, opts)
}

// ErrInvalidRange is returned for a history range other than 5 or 30 days.
var ErrInvalidRange = errors.New("history range must be 5 or 30 days")

// ValidRange reports whether days is a supported history range.
func ValidRange(days int) bool { return days == 5 || days == 30 }

// History is the series for one range, in backend order.
type History struct {
	Days   int                   `json:"days"`
	Points []client.HistoryPoint `json:"points"`
}

// Series selects one column of the history.
type Series int

const (
	SeriesACPower Series = iota
	SeriesAmbient
	SeriesModule
)

var seriesNames = [...]string{"AC power", "Ambient temperature", "Module temperature"}

func (s Series) String() string {
	if s < 0 || int(s) >= len(seriesNames) {
		return "unknown"
	}
	return seriesNames[s]
}

// Next cycles to the following series.
func (s Series) Next() Series { return (s + 1) % Series(len(seriesNames)) }

// Values returns the selected column in backend order.
func (h History) Values(s Series) []float64 {
	out := make([]float64, len(h.Points))
	for i, pt := range h.Points {
		switch s {
		case SeriesAmbient:
			out[i] = pt.AmbientTemperature
		case SeriesModule:
			out[i] = pt.ModuleTemperature
		default:
			out[i] = pt.ACPower
		}
	}
	return out
}

// HistoryPanel polls /history for a selectable range.
type HistoryPanel struct {
	*Panel[History]
	src Source

	rangeMu sync.Mutex
	days    int
}

// NewHistoryPanel creates a history panel for days (5 or 30).
func NewHistoryPanel(name string, src Source, days int, interval time.Duration, opts Options) (*HistoryPanel, error) {
	if !ValidRange(days) {
		return nil, fmt.Errorf("panel %q: %w", name, ErrInvalidRange)
	}
	h := &HistoryPanel{src: src, days: days}
	h.Panel = New[History](name, dashboard.KindHistory, h.fetcher(days), interval, opts)
	return h, nil
}

func (h *HistoryPanel) fetcher(days int) engine.Producer[History] {
	return func(ctx context.Context) (History, error) {
		points, err := h.src.History(ctx, days)
		if err != nil {
			return History{}, err
		}
		return History{Days: days, Points: points}, nil
	}
}

// SetRange stops the current poller, drops the loaded series and starts
// polling the new range from Loading.
func (h *HistoryPanel) SetRange(days int) error {
	if !ValidRange(days) {
		return ErrInvalidRange
	}
	h.rangeMu.Lock()
	defer h.rangeMu.Unlock()
	if err := h.replace(h.fetcher(days)); err != nil {
		return err
	}
	h.days = days
	return nil
}

// Range returns the selected number of days.
func (h *HistoryPanel) Range() int {
	h.rangeMu.Lock()
	defer h.rangeMu.Unlock()
	return h.days
}
