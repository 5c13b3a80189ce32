// Package runner executes a built catalog against a ledger.
//
// Jobs run strictly in order. For each job the runner checks the artifact
// store first, then the budget guard with the ledger's current total, and only
// then calls the producer. A produced artifact is written atomically before
// its ledger entry is recorded, so a crash between the two leaves an unbilled
// artifact that the next run skips, never a billed job without output.
//
// The producer call ignores parent cancellation and is bounded by its own
// timeout. Cancellation is honoured between jobs and during the throttle wait.
package runner
