package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"assetgen/internal/logging"
	"assetgen/internal/money"
)

// ErrCorrupt marks a persisted ledger that cannot be trusted: unreadable,
// empty, or with a total that disagrees with its entries.
var ErrCorrupt = errors.New("ledger corrupt")

// Entry records one billed job.
type Entry struct {
	JobID     string       `json:"job_id"`
	Cost      money.Amount `json:"cost"`
	Timestamp time.Time    `json:"timestamp"`
	RunID     string       `json:"run_id,omitempty"`
	Class     string       `json:"class,omitempty"`
	Bytes     int64        `json:"bytes,omitempty"`
}

// State is the full accounting snapshot. At rest TotalSpent equals the sum of
// Entries[*].Cost.
type State struct {
	TotalSpent money.Amount
	Entries    []Entry
}

// Sum adds the entry costs.
func (s State) Sum() money.Amount {
	var total money.Amount
	for _, entry := range s.Entries {
		total += entry.Cost
	}
	return total
}

// Verify checks the at-rest invariants.
func (s State) Verify() error {
	if s.TotalSpent.IsNegative() {
		return fmt.Errorf("%w: negative total %s", ErrCorrupt, s.TotalSpent)
	}
	for i, entry := range s.Entries {
		if strings.TrimSpace(entry.JobID) == "" {
			return fmt.Errorf("%w: entry %d has no job id", ErrCorrupt, i)
		}
		if entry.Cost.IsNegative() {
			return fmt.Errorf("%w: entry %d (%s) has negative cost %s", ErrCorrupt, i, entry.JobID, entry.Cost)
		}
	}
	if sum := s.Sum(); sum != s.TotalSpent {
		return fmt.Errorf("%w: total %s does not match entry sum %s", ErrCorrupt, s.TotalSpent, sum)
	}
	return nil
}

// Append returns a new state with entry added; the receiver is not modified.
func (s State) Append(entry Entry) State {
	entries := make([]Entry, len(s.Entries), len(s.Entries)+1)
	copy(entries, s.Entries)
	entries = append(entries, entry)
	return State{TotalSpent: s.TotalSpent + entry.Cost, Entries: entries}
}

// Store persists ledger state.
type Store interface {
	// Load returns the persisted state, or a zero state when none exists yet.
	Load(ctx context.Context) (State, error)
	// Commit durably replaces the persisted state with next, which is the
	// previous state plus entry. Either all of it becomes durable or none.
	Commit(ctx context.Context, next State, entry Entry) error
	// Location describes where the ledger lives, for logs and reports.
	Location() string
	Close() error
}

// Ledger is the in-memory view of a Store.
type Ledger struct {
	mu     sync.RWMutex
	store  Store
	state  State
	logger *slog.Logger
	now    func() time.Time
}

// Option customises a Ledger.
type Option func(*Ledger)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logging.NewComponentLogger(logger, "ledger")
		}
	}
}

// WithClock overrides the timestamp source for entries recorded without one.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// Open loads and verifies the store's state.
func Open(ctx context.Context, store Store, opts ...Option) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("ledger store is required")
	}
	l := &Ledger{
		store:  store,
		logger: logging.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}

	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger load %s: %w", store.Location(), err)
	}
	if err := state.Verify(); err != nil {
		return nil, fmt.Errorf("ledger load %s: %w", store.Location(), err)
	}
	l.state = state

	l.logger.Debug("ledger loaded",
		logging.String("location", store.Location()),
		logging.Amount("total_spent", state.TotalSpent),
		logging.Int("entry_count", len(state.Entries)))
	return l, nil
}

// Total returns the current spend.
func (l *Ledger) Total() money.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.TotalSpent
}

// Entries returns a copy of the billed entries in insertion order.
func (l *Ledger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.state.Entries))
	copy(out, l.state.Entries)
	return out
}

// Snapshot returns a copy of the full state.
func (l *Ledger) Snapshot() State {
	return State{TotalSpent: l.Total(), Entries: l.Entries()}
}

// Location reports the backing store location.
func (l *Ledger) Location() string {
	return l.store.Location()
}

// Record appends a billed entry and persists it. The in-memory state changes
// only after the store commit succeeds.
func (l *Ledger) Record(ctx context.Context, entry Entry) error {
	entry.JobID = strings.TrimSpace(entry.JobID)
	if entry.JobID == "" {
		return errors.New("ledger record: job id is required")
	}
	if entry.Cost.IsNegative() {
		return fmt.Errorf("ledger record %s: negative cost %s", entry.JobID, entry.Cost)
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.state.Append(entry)
	if err := l.store.Commit(ctx, next, entry); err != nil {
		return fmt.Errorf("ledger record %s: %w", entry.JobID, err)
	}
	l.state = next

	l.logger.Debug("ledger entry recorded",
		logging.String(logging.FieldJobID, entry.JobID),
		logging.Amount("cost", entry.Cost),
		logging.Amount("total_spent", next.TotalSpent))
	return nil
}

// Close releases the store.
func (l *Ledger) Close() error {
	if l == nil || l.store == nil {
		return nil
	}
	return l.store.Close()
}
