package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"assetgen/internal/artifact"
	"assetgen/internal/catalog"
	"assetgen/internal/money"
	"assetgen/internal/runner"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var overrides catalogOverrides

	cmd := &cobra.Command{
		Use:   "plan <catalog>",
		Short: "Show what a run would generate and what it would cost",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setup, err := prepareCatalog(cmd, ctx, args[0], overrides)
			if err != nil {
				return err
			}
			spent, err := readSpent(cmd, setup)
			if err != nil {
				return err
			}
			plan := runner.BuildPlan(setup.jobs, artifact.NewStore(setup.assetsRoot), spent, setup.budgetCap)
			fmt.Fprint(cmd.OutOrStdout(), renderPlan(setup.catalog, plan))
			return nil
		},
	}

	overrides.bind(cmd)
	return cmd
}

// readSpent loads the ledger total without taking the run lock. A ledger
// that does not exist yet counts as nothing spent.
func readSpent(cmd *cobra.Command, setup *runSetup) (money.Amount, error) {
	if _, err := os.Stat(setup.ledgerPath); errors.Is(err, fs.ErrNotExist) {
		return money.Zero, nil
	}
	book, err := openLedger(cmd, setup.cfg, setup.ledgerPath)
	if err != nil {
		return 0, err
	}
	defer book.Close()
	return book.Total(), nil
}

func renderPlan(cat *catalog.Catalog, plan runner.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Catalog %s (%d jobs)\n", cat.Name(), len(plan.Items))

	report := newJobReport(indexColumn, textColumn("Job"), textColumn("Category"), textColumn("Class"),
		moneyColumn("Cost"), textColumn("Status"), moneyColumn("Projected"))
	for i, item := range plan.Items {
		class := item.Job.Class
		if !item.Job.Priced {
			class += " (default price)"
		}
		report.add(
			fmt.Sprintf("%d", i+1),
			item.Job.ID,
			item.Job.Category,
			class,
			item.Job.Cost.String(),
			planStatus(item),
			item.Projected.String(),
		)
	}
	report.total("Missing", "Cost", plan.Estimate)
	b.WriteString(report.render())
	b.WriteString("\n")

	fmt.Fprintf(&b, "Estimated cost: %s for %d missing job(s); %d already present\n",
		plan.Estimate.Dollars(), plan.Generate+plan.OverCap, plan.Present)
	fmt.Fprintf(&b, "Budget: %s spent of %s, %s remaining\n",
		plan.Spent.Dollars(), plan.BudgetCap.Dollars(), plan.Remaining().Dollars())
	fmt.Fprintf(&b, "A run would generate %d job(s) for %s\n", plan.Generate, plan.Committed.Dollars())
	if plan.ExceedsBudget() {
		fmt.Fprintf(&b, "Warning: the estimate exceeds the remaining budget; %d job(s) would be skipped\n", plan.OverCap)
	}
	if plan.Errored > 0 {
		fmt.Fprintf(&b, "Warning: %d artifact check(s) failed\n", plan.Errored)
	}
	return b.String()
}

func planStatus(item runner.PlanItem) string {
	switch item.State {
	case runner.StateSkippedComplete:
		return "present"
	case runner.StateCommitted:
		return "would generate"
	case runner.StateSkippedBudget:
		return "over budget"
	case runner.StateErrored:
		if item.Err != nil {
			return "error: " + item.Err.Error()
		}
		return "error"
	default:
		return strings.ToLower(item.State.String())
	}
}
