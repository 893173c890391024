// Package panel holds the dashboard view-models. Each panel owns one poller
// bound to one backend endpoint and keeps the latest good payload.
package panel

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/tonhe/sol/internal/client"
	"github.com/tonhe/sol/internal/dashboard"
	"github.com/tonhe/sol/internal/engine"
	"github.com/tonhe/sol/internal/logging"
	"github.com/tonhe/sol/internal/metrics"
)

// ErrStopped is returned when a stopped panel is asked to change.
var ErrStopped = errors.New("panel stopped")

// State is a panel's position in the Loading → Ready ⇄ Stale machine.
type State int

const (
	StateLoading State = iota
	StateReady
	StateStale
)

// stoppedCode is the metrics gauge value of a torn-down panel.
const stoppedCode = 3

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateStale:
		return "stale"
	default:
		return "loading"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Event tells subscribers a panel changed. Read the panel's snapshot for
// the new contents.
type Event struct {
	Panel   string
	Kind    dashboard.Kind
	State   State
	Stopped bool
}

// Options carries the ambient collaborators shared by every panel.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Timeout bounds each fetch when positive.
	Timeout time.Duration
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return logging.Discard()
	}
	return o.Logger
}

// Snapshot is a point-in-time copy of a panel. Data is the last good
// payload and must not be modified.
type Snapshot[T any] struct {
	Name      string
	Kind      dashboard.Kind
	State     State
	Data      T
	HasData   bool
	Err       error
	UpdatedAt time.Time
	Attempts  int
	Failures  int
	Stopped   bool
}

// Summary is a Snapshot with the payload erased, for callers that handle
// every panel kind the same way.
type Summary struct {
	Name      string         `json:"name"`
	Kind      dashboard.Kind `json:"kind"`
	State     State          `json:"state"`
	Error     string         `json:"error,omitempty"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
	Attempts  int            `json:"attempts"`
	Failures  int            `json:"failures"`
	Stopped   bool           `json:"stopped,omitempty"`
	Data      any            `json:"data"`
}

// View is the kind-independent face of a panel.
type View interface {
	engine.Runner
	Kind() dashboard.Kind
	Subscribe() <-chan Event
	Summary() Summary
}

// Panel is the generic view-model: one poller, one endpoint, latest
// snapshot wins.
type Panel[T any] struct {
	name     string
	kind     dashboard.Kind
	interval time.Duration
	opts     Options
	log      *slog.Logger

	// ctlMu serialises Start, Stop and source replacement. It is never
	// taken from the delivery path.
	ctlMu   sync.Mutex
	poller  *engine.Poller[T]
	fetch   engine.Producer[T]
	running bool

	mu          sync.RWMutex
	state       State
	data        T
	hasData     bool
	err         error
	updatedAt   time.Time
	attempts    int
	failures    int
	stopped     bool
	hooks       []func(T)
	subscribers []chan Event
}

// New creates a panel in the Loading state. interval <= 0 fetches once.
func New[T any](name string, kind dashboard.Kind, fetch engine.Producer[T], interval time.Duration, opts Options) *Panel[T] {
	p := &Panel[T]{
		name:     name,
		kind:     kind,
		interval: interval,
		opts:     opts,
		log:      opts.logger().With(slog.String("panel", name)),
		fetch:    fetch,
	}
	p.opts.Metrics.SetPanelState(name, int(StateLoading))
	return p
}

func (p *Panel[T]) Name() string         { return p.name }
func (p *Panel[T]) Kind() dashboard.Kind { return p.kind }

// Interval returns the poll period.
func (p *Panel[T]) Interval() time.Duration { return p.interval }

// OnReady registers fn to run after every successful poll, outside the
// panel lock. fn must not stop or reconfigure this panel.
func (p *Panel[T]) OnReady(fn func(T)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, fn)
}

// Start launches polling. It is a no-op if already running or stopped.
func (p *Panel[T]) Start() {
	p.ctlMu.Lock()
	defer p.ctlMu.Unlock()
	if p.running || p.isStopped() {
		return
	}
	p.running = true
	p.startPollerLocked()
}

func (p *Panel[T]) startPollerLocked() {
	p.poller = engine.NewPoller(p.name, p.wrap(p.fetch), p.interval, p.handle)
	p.poller.Start()
}

// wrap applies the per-fetch timeout.
func (p *Panel[T]) wrap(fetch engine.Producer[T]) engine.Producer[T] {
	if p.opts.Timeout <= 0 {
		return fetch
	}
	timeout := p.opts.Timeout
	return func(ctx context.Context) (T, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return fetch(ctx)
	}
}

// Stop tears the panel down. No transition happens after it returns.
func (p *Panel[T]) Stop() {
	p.ctlMu.Lock()
	defer p.ctlMu.Unlock()

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.notifyLocked()
	p.mu.Unlock()

	if p.poller != nil {
		p.poller.Stop()
	}
	p.running = false
	p.opts.Metrics.SetPanelState(p.name, stoppedCode)
}

// replace swaps the fetch function, discards the current data and, when
// the panel is running, restarts polling against the new source.
func (p *Panel[T]) replace(fetch engine.Producer[T]) error {
	p.ctlMu.Lock()
	defer p.ctlMu.Unlock()
	if p.isStopped() {
		return ErrStopped
	}

	if p.poller != nil {
		p.poller.Stop()
		p.poller = nil
	}

	var zero T
	p.mu.Lock()
	p.fetch = fetch
	p.state = StateLoading
	p.data = zero
	p.hasData = false
	p.err = nil
	p.updatedAt = time.Time{}
	p.notifyLocked()
	p.mu.Unlock()
	p.opts.Metrics.SetPanelState(p.name, int(StateLoading))

	if p.running {
		p.startPollerLocked()
	}
	return nil
}

func (p *Panel[T]) isStopped() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stopped
}

// handle is the poller callback.
func (p *Panel[T]) handle(res engine.Result[T]) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.attempts++
	if res.Err == nil {
		p.state = StateReady
		p.data = res.Value
		p.hasData = true
		p.err = nil
		p.updatedAt = res.Started.Add(res.Duration)
	} else {
		p.failures++
		p.err = res.Err
		if p.hasData {
			p.state = StateStale
		}
	}
	state := p.state
	hooks := slices.Clone(p.hooks)
	p.notifyLocked()
	p.mu.Unlock()

	p.opts.Metrics.ObservePoll(p.name, client.Kind(res.Err), res.Duration)
	p.opts.Metrics.SetPanelState(p.name, int(state))

	if res.Err != nil {
		if state == StateLoading {
			p.log.Warn("poll failed, no data yet",
				slog.Int("attempt", res.Attempt),
				slog.String("kind", client.Kind(res.Err)),
				logging.Err(res.Err),
			)
		} else {
			p.log.Warn("poll failed, showing stale data",
				slog.Int("attempt", res.Attempt),
				slog.String("kind", client.Kind(res.Err)),
				logging.Err(res.Err),
			)
		}
		return
	}

	p.log.Debug("poll ok", slog.Int("attempt", res.Attempt), slog.Duration("took", res.Duration))
	for _, fn := range hooks {
		fn(res.Value)
	}
}

// Snapshot returns a point-in-time copy of the panel.
func (p *Panel[T]) Snapshot() Snapshot[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Snapshot[T]{
		Name:      p.name,
		Kind:      p.kind,
		State:     p.state,
		Data:      p.data,
		HasData:   p.hasData,
		Err:       p.err,
		UpdatedAt: p.updatedAt,
		Attempts:  p.attempts,
		Failures:  p.failures,
		Stopped:   p.stopped,
	}
}

// Summary implements View.
func (p *Panel[T]) Summary() Summary {
	s := p.Snapshot()
	sum := Summary{
		Name:     s.Name,
		Kind:     s.Kind,
		State:    s.State,
		Attempts: s.Attempts,
		Failures: s.Failures,
		Stopped:  s.Stopped,
	}
	if s.Err != nil {
		sum.Error = s.Err.Error()
	}
	if s.HasData {
		at := s.UpdatedAt
		sum.UpdatedAt = &at
		sum.Data = s.Data
	}
	return sum
}

// Subscribe returns a channel that receives an event after every change.
func (p *Panel[T]) Subscribe() <-chan Event {
	ch := make(chan Event, 1)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, ch)
	return ch
}

// notifyLocked sends to every subscriber without blocking. Must be called
// while holding the write lock on p.mu.
func (p *Panel[T]) notifyLocked() {
	ev := Event{Panel: p.name, Kind: p.kind, State: p.state, Stopped: p.stopped}
	for _, ch := range p.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Info implements engine.Runner.
func (p *Panel[T]) Info() engine.EngineInfo {
	p.ctlMu.Lock()
	poller := p.poller
	p.ctlMu.Unlock()
	if poller == nil {
		return engine.EngineInfo{Name: p.name, State: engine.EngineStopped}
	}
	info := poller.Info()
	info.Name = p.name
	return info
}
