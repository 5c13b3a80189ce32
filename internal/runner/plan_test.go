package runner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"assetgen/internal/artifact"
	"assetgen/internal/money"
)

func TestBuildPlanMatchesRunDecisions(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "B.png"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	jobs := makeJobs(&fakeProducer{}, amount(0.04), "A", "B", "C", "D")

	plan := BuildPlan(jobs, artifact.NewStore(root), amount(0.02), amount(0.10))
	want := []State{StateCommitted, StateSkippedComplete, StateCommitted, StateSkippedBudget}
	for i, w := range want {
		if plan.Items[i].State != w {
			t.Fatalf("item %d = %s, want %s", i, plan.Items[i].State, w)
		}
	}
	if plan.Generate != 2 || plan.Present != 1 || plan.OverCap != 1 {
		t.Fatalf("unexpected counts %+v", plan)
	}
	if plan.Estimate != amount(0.12) || plan.Committed != amount(0.08) {
		t.Fatalf("estimate %s committed %s", plan.Estimate, plan.Committed)
	}
	if plan.Items[3].Projected != amount(0.10) {
		t.Fatalf("projected after D = %s", plan.Items[3].Projected)
	}
	if plan.Remaining() != amount(0.08) || !plan.ExceedsBudget() {
		t.Fatalf("remaining %s exceeds %v", plan.Remaining(), plan.ExceedsBudget())
	}
}

func TestBuildPlanReportsStatErrors(t *testing.T) {
	jobs := makeJobs(&fakeProducer{}, amount(0.04), "A")
	plan := BuildPlan(jobs, brokenArtifacts{existsErr: errors.New("denied")}, money.Zero, amount(1))
	if plan.Errored != 1 || plan.Items[0].Err == nil {
		t.Fatalf("unexpected plan %+v", plan)
	}
}
