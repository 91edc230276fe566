package watchstate

import (
	"sync"

	"go.uber.org/zap"

	"SmartRental/internal/model"
)

// Change describes a verdict that moved since the previous run.
type Change struct {
	Name     string
	Previous model.Verdict
	Current  model.Verdict
	First    bool
}

// Manager tracks verdicts across watch runs with concurrency safety. An empty
// file path keeps the state in memory only.
type Manager struct {
	mu       sync.Mutex
	state    *State
	filePath string
}

// NewManager creates a Manager, loading state from disk when a path is given.
func NewManager(filePath string) (*Manager, error) {
	state := &State{Properties: map[string]Entry{}}
	if filePath != "" {
		var err error
		if state, err = LoadState(filePath); err != nil {
			return nil, err
		}
	}
	return &Manager{state: state, filePath: filePath}, nil
}

// Observe stores the outcome of ev and reports whether its verdict changed.
func (m *Manager) Observe(ev *model.Evaluation) (Change, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, seen := m.state.Properties[ev.Name]
	m.state.Properties[ev.Name] = Entry{
		Verdict:     ev.Verdict,
		IRR:         ev.IRR,
		FailureKind: ev.FailureKind,
		CheckedAt:   ev.EvaluatedAt,
	}
	change := Change{Name: ev.Name, Previous: prev.Verdict, Current: ev.Verdict, First: !seen}
	return change, !seen || prev.Verdict != ev.Verdict
}

// Get returns the last stored entry for a property.
func (m *Manager) Get(name string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.state.Properties[name]
	return e, ok
}

// FinishRun bumps the run counter and persists.
func (m *Manager) FinishRun() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Runs++
	if err := m.save(); err != nil {
		zap.L().Error("failed to save watch state", zap.Error(err))
	}
	return m.state.Runs
}

func (m *Manager) save() error {
	if m.filePath == "" {
		return nil
	}
	return SaveState(m.filePath, m.state)
}
