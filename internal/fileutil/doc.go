// Package fileutil holds small filesystem helpers shared by the ledger and
// artifact stores: crash-safe atomic replacement and existence probing.
package fileutil
