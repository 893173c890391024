package panel

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tonhe/sol/internal/client"
	"github.com/tonhe/sol/internal/dashboard"
	"github.com/tonhe/sol/internal/engine"
	"github.com/tonhe/sol/internal/threshold"
)

// BoardOptions configures NewBoard.
type BoardOptions struct {
	Options
	Evaluator   *threshold.Evaluator
	PredictRate int
}

// Board is the full panel set for one dashboard definition.
type Board struct {
	dash      *dashboard.Dashboard
	manager   *engine.Manager
	log       *slog.Logger
	eval      *threshold.Evaluator
	views     []View
	byName    map[string]View
	readings  []*Panel[Readings]
	power     []*PowerPanel
	alerts    []*Panel[[]string]
	forecasts []*Panel[[]client.Prediction]
	history   []*HistoryPanel
	predictor *Predictor

	events   chan Event
	done     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
}

// NewBoard builds every panel in dash. Metric names are checked against the
// threshold table here so a mismatch fails before anything polls.
func NewBoard(dash *dashboard.Dashboard, src Source, opts BoardOptions) (*Board, error) {
	if err := dash.Validate(); err != nil {
		return nil, err
	}
	eval := opts.Evaluator
	if eval == nil {
		eval = threshold.Default()
	}

	b := &Board{
		dash:      dash,
		manager:   engine.NewManager(),
		eval:      eval,
		log:       opts.logger().With(slog.String("dashboard", dash.Name)),
		byName:    make(map[string]View, len(dash.Panels)),
		predictor: NewPredictor(src, opts.PredictRate, opts.Options),
		events:    make(chan Event, 64),
		done:      make(chan struct{}),
	}

	for _, def := range dash.Panels {
		var v View
		switch def.Kind {
		case dashboard.KindReadings:
			metrics := make([]threshold.Metric, len(def.Metrics))
			for i, m := range def.Metrics {
				metrics[i] = threshold.Metric(m)
			}
			p, err := NewReadingsPanel(def.Name, src, eval, metrics, def.Interval, opts.Options)
			if err != nil {
				return nil, err
			}
			b.readings = append(b.readings, p)
			v = p
		case dashboard.KindPower:
			p := NewPowerPanel(def.Name, src, def.Interval, dash.TrendLength, opts.Options)
			b.power = append(b.power, p)
			v = p
		case dashboard.KindAlerts:
			p := NewAlertsPanel(def.Name, src, def.Interval, opts.Options)
			b.alerts = append(b.alerts, p)
			v = p
		case dashboard.KindPredictions:
			p := NewPredictionsPanel(def.Name, src, def.Interval, opts.Options)
			b.forecasts = append(b.forecasts, p)
			v = p
		case dashboard.KindHistory:
			p, err := NewHistoryPanel(def.Name, src, dash.HistoryDays, def.Interval, opts.Options)
			if err != nil {
				return nil, err
			}
			b.history = append(b.history, p)
			v = p
		default:
			return nil, fmt.Errorf("panel %q: unknown kind %q", def.Name, def.Kind)
		}
		b.views = append(b.views, v)
		b.byName[def.Name] = v
	}
	return b, nil
}

// Name returns the dashboard name.
func (b *Board) Name() string { return b.dash.Name }

// Start launches every panel and begins merging their events.
func (b *Board) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return fmt.Errorf("board %q already started", b.dash.Name)
	}
	b.started = true

	for _, v := range b.views {
		ch := v.Subscribe()
		b.wg.Add(1)
		go b.forward(ch)
	}
	for _, v := range b.views {
		if err := b.manager.Start(v); err != nil {
			return err
		}
	}
	b.log.Info("board started", slog.Int("panels", len(b.views)))
	return nil
}

func (b *Board) forward(ch <-chan Event) {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case ev := <-ch:
			select {
			case b.events <- ev:
			default:
			}
		}
	}
}

// Stop stops every panel. The event channel is closed once all forwarders
// have exited.
func (b *Board) Stop() {
	b.stopOnce.Do(func() {
		b.manager.StopAll()
		for _, v := range b.views {
			v.Stop()
		}
		close(b.done)
		b.wg.Wait()
		close(b.events)
		b.log.Info("board stopped")
	})
}

// Events delivers panel change notifications from every panel.
func (b *Board) Events() <-chan Event { return b.events }

// Panels returns the panels in definition order.
func (b *Board) Panels() []View { return append([]View(nil), b.views...) }

// Panel looks up a panel by name.
func (b *Board) Panel(name string) (View, bool) {
	v, ok := b.byName[name]
	return v, ok
}

func (b *Board) Readings() []*Panel[Readings] { return b.readings }
func (b *Board) Power() []*PowerPanel { return b.power }
func (b *Board) Alerts() []*Panel[[]string] { return b.alerts }
func (b *Board) Forecasts() []*Panel[[]client.Prediction] { return b.forecasts }
func (b *Board) History() []*HistoryPanel { return b.history }
func (b *Board) Predictor() *Predictor { return b.predictor }

// Evaluator returns the threshold table the readings panels use.
func (b *Board) Evaluator() *threshold.Evaluator { return b.eval }

// OnReadings runs fn after each successful readings poll. Register before
// Start.
func (b *Board) OnReadings(fn func(panel string, r Readings)) {
	for _, p := range b.readings {
		name := p.Name()
		p.OnReady(func(r Readings) { fn(name, r) })
	}
}

// SetHistoryRange switches every history panel to days.
func (b *Board) SetHistoryRange(days int) error {
	if !ValidRange(days) {
		return ErrInvalidRange
	}
	for _, h := range b.history {
		if err := h.SetRange(days); err != nil {
			return err
		}
	}
	b.log.Info("history range changed", slog.Int("days", days))
	return nil
}

// HistoryRange returns the range of the first history panel, or the
// dashboard default when there is none.
func (b *Board) HistoryRange() int {
	if len(b.history) == 0 {
		return b.dash.HistoryDays
	}
	return b.history[0].Range()
}

// Summaries returns every panel summary in definition order.
func (b *Board) Summaries() []Summary {
	out := make([]Summary, len(b.views))
	for i, v := range b.views {
		out[i] = v.Summary()
	}
	return out
}

// Healthy reports whether every panel is Ready.
func (b *Board) Healthy() bool {
	for _, v := range b.views {
		s := v.Summary()
		if s.Stopped || s.State != StateReady {
			return false
		}
	}
	return true
}

// Engines returns poller info for every running panel.
func (b *Board) Engines() []engine.EngineInfo { return b.manager.ListEngines() }
