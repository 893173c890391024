package engine

import (
	"context"
	"sync"
	"time"
)

// Producer fetches one value. It must honour ctx cancellation.
type Producer[T any] func(ctx context.Context) (T, error)

// Poller runs a producer repeatedly and hands each outcome to a single
// callback. The first attempt runs as soon as Start is called; each later
// attempt waits interval after the previous delivery returned, so attempts
// never overlap and there is only ever one timer. An interval <= 0 runs the
// producer exactly once.
type Poller[T any] struct {
	name     string
	producer Producer[T]
	interval time.Duration
	onResult func(Result[T])

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// deliverMu serialises onResult with Stop. Once stopped is set no
	// result reaches onResult.
	deliverMu sync.Mutex
	stopped   bool

	mu         sync.RWMutex
	started    bool
	halted     bool
	state      EngineState
	pollCount  int
	errorCount int
	lastPoll   time.Time
	lastErr    error
}

// NewPoller creates a Poller. Nothing runs until Start.
func NewPoller[T any](name string, producer Producer[T], interval time.Duration, onResult func(Result[T])) *Poller[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller[T]{
		name:     name,
		producer: producer,
		interval: interval,
		onResult: onResult,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Name returns the poller's name.
func (p *Poller[T]) Name() string { return p.name }

// Start launches the polling goroutine. Calling Start more than once, or
// after Stop, does nothing.
func (p *Poller[T]) Start() {
	p.mu.Lock()
	if p.started || p.halted {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.state = EngineRunning
	p.mu.Unlock()

	go p.run()
}

// Stop ends polling. It is idempotent and safe to call from any goroutine
// except from within the poller's own onResult callback. When Stop returns
// no further result is delivered; an attempt still in flight has its
// context cancelled and its outcome dropped. Stop does not wait for the
// producer to return, use Done for that.
func (p *Poller[T]) Stop() {
	p.deliverMu.Lock()
	p.stopped = true
	p.deliverMu.Unlock()

	p.cancel()

	p.mu.Lock()
	neverStarted := !p.started && !p.halted
	p.halted = true
	p.state = EngineStopped
	p.mu.Unlock()

	if neverStarted {
		close(p.done)
	}
}

// Done is closed once the polling goroutine has exited, or on Stop if the
// poller was never started.
func (p *Poller[T]) Done() <-chan struct{} { return p.done }

func (p *Poller[T]) run() {
	defer close(p.done)

	var timer *time.Timer
	if p.interval > 0 {
		timer = time.NewTimer(p.interval)
		timer.Stop()
		defer timer.Stop()
	}

	for attempt := 1; ; attempt++ {
		if p.ctx.Err() != nil {
			return
		}

		started := time.Now()
		value, err := p.producer(p.ctx)
		res := Result[T]{
			Attempt:  attempt,
			Value:    value,
			Err:      err,
			Started:  started,
			Duration: time.Since(started),
		}
		if !p.deliver(res) {
			return
		}

		if timer == nil {
			p.mu.Lock()
			p.halted = true
			p.state = EngineStopped
			p.mu.Unlock()
			return
		}
		timer.Reset(p.interval)
		select {
		case <-p.ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// deliver hands res to onResult unless the poller has been stopped.
func (p *Poller[T]) deliver(res Result[T]) bool {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()
	if p.stopped || p.ctx.Err() != nil {
		return false
	}

	p.mu.Lock()
	p.pollCount++
	p.lastPoll = res.Started.Add(res.Duration)
	if res.Err != nil {
		p.errorCount++
		p.lastErr = res.Err
		p.state = EngineError
	} else {
		p.lastErr = nil
		p.state = EngineRunning
	}
	p.mu.Unlock()

	if p.onResult != nil {
		p.onResult(res)
	}
	return true
}

// Info returns summary information about this poller.
func (p *Poller[T]) Info() EngineInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return EngineInfo{
		Name:       p.name,
		State:      p.state,
		LastPoll:   p.lastPoll,
		PollCount:  p.pollCount,
		ErrorCount: p.errorCount,
		LastError:  p.lastErr,
	}
}
