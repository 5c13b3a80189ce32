package runner

import (
	"fmt"

	"assetgen/internal/budget"
	"assetgen/internal/catalog"
	"assetgen/internal/money"
)

// PlanItem is the predicted outcome of one job, assuming every producer call
// before it succeeds.
type PlanItem struct {
	Job       catalog.Job
	State     State
	Projected money.Amount
	Err       error
}

// Plan is a dry run over a catalog.
type Plan struct {
	Items     []PlanItem
	Spent     money.Amount
	BudgetCap money.Amount
	// Estimate is the cost of every job not yet present.
	Estimate money.Amount
	// Committed is the cost of the jobs that fit under the cap.
	Committed money.Amount
	Generate  int
	Present   int
	OverCap   int
	Errored   int
}

// Remaining is the budget left before the run.
func (p Plan) Remaining() money.Amount {
	return budget.Remaining(p.Spent, p.BudgetCap)
}

// ExceedsBudget reports whether generating everything missing would pass
// the cap.
func (p Plan) ExceedsBudget() bool {
	return p.Estimate > p.Remaining()
}

// BuildPlan applies the run decisions without calling producers or touching
// the ledger: present artifacts are skipped first, then each remaining job is
// admitted while the projected total stays within budgetCap.
func BuildPlan(jobs []catalog.Job, artifacts Artifacts, spent, budgetCap money.Amount) Plan {
	plan := Plan{Spent: spent, BudgetCap: budgetCap, Items: make([]PlanItem, 0, len(jobs))}
	running := spent
	for _, job := range jobs {
		item := PlanItem{Job: job, State: StatePending}
		exists, err := artifacts.Exists(job.ID, job.Extension)
		switch {
		case err != nil:
			item.State = StateErrored
			item.Err = fmt.Errorf("artifact check: %w", err)
			plan.Errored++
		case exists:
			item.State = StateSkippedComplete
			plan.Present++
		default:
			plan.Estimate += job.Cost
			if budget.Allow(running, job.Cost, budgetCap) {
				running += job.Cost
				item.State = StateCommitted
				plan.Committed += job.Cost
				plan.Generate++
			} else {
				item.State = StateSkippedBudget
				plan.OverCap++
			}
		}
		item.Projected = running
		plan.Items = append(plan.Items, item)
	}
	return plan
}
