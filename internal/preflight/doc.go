// Package preflight provides readiness checks for the credentials, paths,
// and remote services a catalog run depends on.
//
// These checks run in two contexts:
//   - "assetgen run" calls RunAll before the first job. A failed required
//     check aborts the run before any money is spent.
//   - "assetgen preflight" prints every result, optionally including the
//     remote checks that contact each provider.
//
// Checks are gated by the producer kinds a catalog actually uses.
package preflight
