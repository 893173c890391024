package engine

import (
	"fmt"
	"sort"
	"sync"
)

// Runner is anything the Manager can start, stop and report on. Panels
// implement it.
type Runner interface {
	Name() string
	Start()
	Stop()
	Info() EngineInfo
}

// Manager coordinates multiple Runners, keyed by name.
type Manager struct {
	mu      sync.RWMutex
	engines map[string]Runner
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		engines: make(map[string]Runner),
	}
}

// Start registers r and launches it.
func (m *Manager) Start(r Runner) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := r.Name()
	if _, exists := m.engines[name]; exists {
		return fmt.Errorf("engine %q already running", name)
	}

	m.engines[name] = r
	r.Start()
	return nil
}

// Get returns the named Runner.
func (m *Manager) Get(name string) (Runner, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.engines[name]
	return r, ok
}

// Stop halts the named Runner and removes it.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	r, ok := m.engines[name]
	if ok {
		delete(m.engines, name)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("engine %q not found", name)
	}
	r.Stop()
	return nil
}

// ListEngines returns summary info for all registered engines, sorted by name.
func (m *Manager) ListEngines() []EngineInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]EngineInfo, 0, len(m.engines))
	for _, r := range m.engines {
		infos = append(infos, r.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// StopAll halts and removes all registered engines.
func (m *Manager) StopAll() {
	m.mu.Lock()
	runners := make([]Runner, 0, len(m.engines))
	for name, r := range m.engines {
		runners = append(runners, r)
		delete(m.engines, name)
	}
	m.mu.Unlock()

	for _, r := range runners {
		r.Stop()
	}
}
