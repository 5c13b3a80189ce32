package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the ledger lock.
var ErrLocked = errors.New("ledger is locked by another run")

// Lock is an advisory lock guarding one ledger against concurrent runs.
type Lock struct {
	path  string
	flock *flock.Flock
}

// LockPath returns the lock file used for ledgerPath.
func LockPath(ledgerPath string) string {
	return ledgerPath + ".lock"
}

// AcquireLock takes the lock for ledgerPath without blocking.
func AcquireLock(ledgerPath string) (*Lock, error) {
	path := LockPath(ledgerPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire ledger lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &Lock{path: path, flock: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release drops the lock. The lock file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	return l.flock.Unlock()
}
