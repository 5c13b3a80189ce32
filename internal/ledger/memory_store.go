package ledger

import (
	"context"
	"sync"
)

// MemoryStore keeps state in process memory. CommitErr, when set, is
// returned by every Commit without changing the stored state.
type MemoryStore struct {
	mu        sync.Mutex
	state     State
	commits   int
	CommitErr error
}

// NewMemoryStore seeds a store with an initial state.
func NewMemoryStore(initial State) *MemoryStore {
	return &MemoryStore{state: cloneState(initial)}
}

func (m *MemoryStore) Load(context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneState(m.state), nil
}

func (m *MemoryStore) Commit(_ context.Context, next State, _ Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CommitErr != nil {
		return m.CommitErr
	}
	m.state = cloneState(next)
	m.commits++
	return nil
}

func (m *MemoryStore) Location() string { return "memory" }

func (m *MemoryStore) Close() error { return nil }

// Persisted returns the last committed state.
func (m *MemoryStore) Persisted() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneState(m.state)
}

// Commits counts successful commits.
func (m *MemoryStore) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

func cloneState(s State) State {
	entries := make([]Entry, len(s.Entries))
	copy(entries, s.Entries)
	return State{TotalSpent: s.TotalSpent, Entries: entries}
}
