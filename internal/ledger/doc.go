// Package ledger records billed generation work and the running spend total.
//
// A Ledger is an explicit value loaded from a Store at the start of a run and
// passed to the runner. Every Record call persists the complete next state
// through the Store before the in-memory view changes, so a failed write never
// leaves memory and disk disagreeing. Two Store implementations ship with the
// package: FileStore (a JSON document replaced atomically) and SQLiteStore
// (one transaction per entry). MemoryStore backs tests.
//
// Concurrent runs against the same ledger are excluded with AcquireLock, an
// advisory flock on "<ledger>.lock".
package ledger
