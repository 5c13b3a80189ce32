package ledger

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Backend names accepted by OpenStore.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// ResolveBackend returns backend when set, otherwise infers it from the
// ledger path extension (".db", ".sqlite", ".sqlite3" select SQLite).
func ResolveBackend(backend, path string) string {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend != "" {
		return backend
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return BackendSQLite
	default:
		return BackendJSON
	}
}

// OpenStore constructs the Store for backend at path.
func OpenStore(ctx context.Context, backend, path string) (Store, error) {
	switch ResolveBackend(backend, path) {
	case BackendJSON:
		return NewFileStore(path), nil
	case BackendSQLite:
		return OpenSQLiteStore(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported ledger backend %q", backend)
	}
}
