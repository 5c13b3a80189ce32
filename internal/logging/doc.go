// Package logging assembles structured slog loggers for assetgen.
//
// It owns the console and JSON handlers, level and output plumbing, the
// standard field keys (component, run_id, job_id, event_type, error_hint,
// impact), and context helpers that let deeper layers such as producers tag
// lines with the run and job they serve. NewNop provides a silent logger for
// tests and optional wiring.
package logging
