// Package main hosts the assetgen CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once per invocation, loads a
// catalog, and hands the built jobs to the runner. Commands here only wire
// packages together and render results; budget, ledger, and producer logic
// live under internal/.
package main
