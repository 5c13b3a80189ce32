package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"assetgen/internal/preflight"
)

func TestRenderCheckAlignsNames(t *testing.T) {
	got := renderCheck(preflight.Result{Name: "Ledger", Passed: false, Detail: "in use by another run"}, 10, false)
	want := "  Ledger     [FAIL] in use by another run"
	if got != want {
		t.Fatalf("renderCheck mismatch\n got: %q\nwant: %q", got, want)
	}
	if got := renderCheck(preflight.Result{Name: "Assets", Passed: true}, 6, false); got != "  Assets [PASS]" {
		t.Fatalf("passing check without detail = %q", got)
	}
}

func TestRenderCheckColorKeepsText(t *testing.T) {
	got := renderCheck(preflight.Result{Name: "Ledger", Passed: true, Detail: "ready"}, 6, true)
	if !strings.Contains(got, "[PASS] ready") {
		t.Fatalf("colorized line lost its text: %q", got)
	}
}

func TestRenderChecksCountsFailures(t *testing.T) {
	var buf bytes.Buffer
	failed := renderChecks(&buf, "Preflight: abc", []preflight.Result{
		{Name: "OpenAI API key", Passed: false, Detail: "not set"},
		{Name: "Assets", Passed: true},
		{Name: "Ledger", Passed: false, Detail: "locked"},
	})
	if failed != 2 {
		t.Fatalf("failed = %d, want 2", failed)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected heading, rule and 3 checks, got %q", buf.String())
	}
	if lines[0] != "Preflight: abc" || lines[1] != strings.Repeat("─", len("Preflight: abc")) {
		t.Fatalf("unexpected heading %q / %q", lines[0], lines[1])
	}
	if !strings.HasPrefix(lines[3], "  Assets         [PASS]") {
		t.Fatalf("names should pad to the longest check: %q", lines[3])
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("non-terminal output must not be colorized: %q", buf.String())
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
