package engine

import "time"

// EngineState represents the lifecycle state of a polling engine.
type EngineState int

const (
	EngineStopped EngineState = iota
	EngineRunning
	EngineError
)

func (s EngineState) String() string {
	switch s {
	case EngineRunning:
		return "running"
	case EngineError:
		return "error"
	default:
		return "stopped"
	}
}

// EngineInfo provides summary information about a running engine.
type EngineInfo struct {
	Name       string
	State      EngineState
	LastPoll   time.Time
	PollCount  int
	ErrorCount int
	LastError  error
}

// Result is the outcome of one producer attempt. Attempt numbers start at 1
// and increase by one per invocation.
type Result[T any] struct {
	Attempt  int
	Value    T
	Err      error
	Started  time.Time
	Duration time.Duration
}

// OK reports whether the attempt succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }
