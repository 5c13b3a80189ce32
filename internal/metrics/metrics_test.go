package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"assetgen/internal/money"
	"assetgen/internal/producer"
	"assetgen/internal/runner"
)

func TestWriteTextfile(t *testing.T) {
	started := time.Unix(1_700_000_000, 0)
	summary := runner.Summary{
		Catalog:         "images",
		Generated:       2,
		SkippedComplete: 3,
		SkippedBudget:   1,
		TotalSpent:      money.FromFloat(0.08),
		Spent:           money.FromFloat(0.08),
		BudgetCap:       money.FromFloat(0.10),
		Started:         started,
		Finished:        started.Add(30 * time.Second),
		Results: []runner.JobResult{
			{ID: "a", Kind: producer.KindImage, State: runner.StateCommitted, Called: true, Duration: 2 * time.Second},
			{ID: "b", Kind: producer.KindImage, State: runner.StateCommitted, Called: true, Duration: 3 * time.Second},
		},
	}
	m := New()
	m.Observe(summary)

	path := filepath.Join(t.TempDir(), "textfile", "assetgen.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`assetgen_jobs_total{catalog="images",outcome="committed"} 2`,
		`assetgen_jobs_total{catalog="images",outcome="skipped_complete"} 3`,
		`assetgen_jobs_total{catalog="images",outcome="skipped_budget"} 1`,
		`assetgen_ledger_spent{catalog="images"} 0.08`,
		`assetgen_budget_cap{catalog="images"} 0.1`,
		`assetgen_run_duration_seconds{catalog="images"} 30`,
		`assetgen_producer_call_seconds_count{catalog="images",kind="image"} 2`,
		`assetgen_run_interrupted{catalog="images"} 0`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in:\n%s", want, text)
		}
	}
}
