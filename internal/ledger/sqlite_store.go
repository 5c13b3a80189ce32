package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"assetgen/internal/money"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes shape.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an incompatible build.
var ErrSchemaMismatch = errors.New("ledger schema version mismatch")

// ErrConflict means the persisted total moved underneath this process, which
// only happens when the advisory lock was bypassed.
var ErrConflict = errors.New("ledger total changed concurrently")

// SQLiteStore keeps the ledger in a SQLite database. Each commit inserts one
// entry and advances the stored total inside a single transaction.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens or creates the database at path.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *SQLiteStore) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Location() string { return s.path }

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load reads the stored total and all entries in insertion order.
func (s *SQLiteStore) Load(ctx context.Context) (State, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT total_micros FROM ledger_totals WHERE id = 1").Scan(&total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return State{}, fmt.Errorf("%w: %s has no totals row", ErrCorrupt, s.path)
		}
		return State{}, fmt.Errorf("read ledger total: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT job_id, cost_micros, recorded_at, run_id, class, bytes FROM ledger_entries ORDER BY seq")
	if err != nil {
		return State{}, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	state := State{TotalSpent: money.FromMicros(total)}
	for rows.Next() {
		var (
			entry    Entry
			cost     int64
			recorded string
		)
		if err := rows.Scan(&entry.JobID, &cost, &recorded, &entry.RunID, &entry.Class, &entry.Bytes); err != nil {
			return State{}, fmt.Errorf("scan ledger entry: %w", err)
		}
		entry.Cost = money.FromMicros(cost)
		ts, err := time.Parse(time.RFC3339Nano, recorded)
		if err != nil {
			return State{}, fmt.Errorf("%w: entry %s has bad timestamp %q", ErrCorrupt, entry.JobID, recorded)
		}
		entry.Timestamp = ts
		state.Entries = append(state.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return State{}, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return state, nil
}

// Commit inserts entry and moves the stored total from next.TotalSpent -
// entry.Cost to next.TotalSpent in one transaction.
func (s *SQLiteStore) Commit(ctx context.Context, next State, entry Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	previous := next.TotalSpent - entry.Cost
	res, err := tx.ExecContext(ctx,
		"UPDATE ledger_totals SET total_micros = ? WHERE id = 1 AND total_micros = ?",
		next.TotalSpent.Micros(), previous.Micros())
	if err != nil {
		return fmt.Errorf("update ledger total: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update ledger total: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("%w: expected stored total %s", ErrConflict, previous)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO ledger_entries (job_id, cost_micros, recorded_at, run_id, class, bytes) VALUES (?, ?, ?, ?, ?, ?)",
		entry.JobID, entry.Cost.Micros(), entry.Timestamp.UTC().Format(time.RFC3339Nano), entry.RunID, entry.Class, entry.Bytes,
	); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}
