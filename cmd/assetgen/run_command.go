package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"assetgen/internal/artifact"
	"assetgen/internal/ledger"
	"assetgen/internal/logging"
	"assetgen/internal/metrics"
	"assetgen/internal/preflight"
	"assetgen/internal/runner"
	"assetgen/internal/throttle"
)

// staleTempAge keeps the sweep clear of writes still in flight from another
// catalog sharing the asset tree.
const staleTempAge = 15 * time.Minute

func newRunCommand(ctx *commandContext) *cobra.Command {
	var overrides catalogOverrides
	var strict bool
	var metricsTextfile string

	cmd := &cobra.Command{
		Use:   "run <catalog>",
		Short: "Generate every missing asset in a catalog within the budget",
		Long: "Run walks the catalog in order. Assets already on disk are skipped, jobs that\n" +
			"would push the ledger past the budget cap are skipped, and everything else is\n" +
			"generated, written, and billed. Rerunning the same catalog resumes where the\n" +
			"last run stopped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setup, err := prepareCatalog(cmd, ctx, args[0], overrides)
			if err != nil {
				return err
			}
			return executeRun(cmd, setup, strict, metricsTextfile)
		},
	}

	overrides.bind(cmd)
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with status 2 when any job errored")
	cmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics for this run to the given file")
	return cmd
}

func executeRun(cmd *cobra.Command, setup *runSetup, strict bool, metricsTextfile string) error {
	logger := setup.logger
	baseCtx := cmd.Context()

	results := preflight.RunAll(baseCtx, setup.cfg, preflight.Options{
		Kinds:      setup.kinds(),
		AssetsDir:  setup.assetsRoot,
		LedgerPath: setup.ledgerPath,
	})
	if failed := preflight.Failed(results); len(failed) > 0 {
		renderChecks(cmd.ErrOrStderr(), "Preflight failed", failed)
		return fmt.Errorf("preflight failed: %d check(s) did not pass", len(failed))
	}
	if err := setup.registry.Validate(setup.kinds()...); err != nil {
		return err
	}

	lock, err := ledger.AcquireLock(setup.ledgerPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logging.WarnWithContext(logger, "ledger lock release failed", "ledger_unlock_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove "+lock.Path()+" if no run is active"))
		}
	}()

	store, err := ledger.OpenStore(baseCtx, setup.cfg.Ledger.Backend, setup.ledgerPath)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	book, err := ledger.Open(baseCtx, store, ledger.WithLogger(logger))
	if err != nil {
		_ = store.Close()
		return err
	}
	defer book.Close()

	runCtx, stop := signal.NotifyContext(baseCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	artifacts := artifact.NewStore(setup.assetsRoot)
	if removed, err := artifacts.Sweep(staleTempAge); err != nil {
		logging.WarnWithContext(logger, "stale temp sweep failed", "temp_sweep_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "leftover temp files stay in the asset tree"))
	} else if removed > 0 {
		logger.Info("removed stale temp files", logging.Int("count", removed), logging.String("root", artifacts.Root()))
	}

	r := runner.New(artifacts, setup.budgetCap,
		runner.WithLogger(logger),
		runner.WithThrottle(throttle.New(setup.throttle)),
		runner.WithTimeout(setup.cfg.ProducerTimeout()),
		runner.WithCatalogName(setup.catalog.Name()),
	)
	summary, err := r.Run(runCtx, setup.jobs, book)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, renderRunSummary(summary))

	if path := firstNonEmpty(metricsTextfile, setup.cfg.Metrics.Textfile); path != "" {
		m := metrics.New()
		m.Observe(summary)
		if err := m.WriteTextfile(path); err != nil {
			logging.WarnWithContext(logger, "metrics export failed", "metrics_write_failed",
				logging.Error(err),
				logging.String("path", path),
				logging.String(logging.FieldImpact, "run results are unaffected"))
		}
	}

	switch {
	case summary.Interrupted:
		return &exitError{code: exitInterrupted, err: fmt.Errorf("run interrupted: %w", context.Canceled)}
	case strict && summary.Errored > 0:
		return &exitError{code: exitJobsErrored, err: fmt.Errorf("%d job(s) errored", summary.Errored)}
	}
	return nil
}

func renderRunSummary(s runner.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s (catalog %s)\n", s.RunID, s.Catalog)

	if len(s.Results) > 0 {
		report := newJobReport(indexColumn, textColumn("Job"), textColumn("Class"), moneyColumn("Cost"),
			textColumn("Outcome"), moneyColumn("Charged"), textColumn("Detail"))
		for _, r := range s.Results {
			detail := r.Path
			if r.Err != nil {
				detail = r.Cause()
			}
			charged := ""
			if r.State == runner.StateCommitted {
				charged = r.Charged.String()
			}
			report.add(
				fmt.Sprintf("%d", r.Index+1),
				r.ID,
				r.Class,
				r.Cost.String(),
				outcomeLabel(r.State),
				charged,
				detail,
			)
		}
		report.total("This run", "Charged", s.Spent)
		b.WriteString(report.render())
		b.WriteString("\n")
	}

	pairs := [][2]string{
		{"Generated", fmt.Sprintf("%d", s.Generated)},
		{"Skipped (exists)", fmt.Sprintf("%d", s.SkippedComplete)},
		{"Skipped (budget)", fmt.Sprintf("%d", s.SkippedBudget)},
		{"Errored", fmt.Sprintf("%d", s.Errored)},
	}
	if s.Interrupted {
		pairs = append(pairs, [2]string{"Not attempted", fmt.Sprintf("%d", s.NotAttempted)})
	}
	pairs = append(pairs,
		[2]string{"Spent this run", s.Spent.Dollars()},
		[2]string{"Total spent", s.TotalSpent.Dollars()},
		[2]string{"Budget cap", s.BudgetCap.Dollars()},
		[2]string{"Remaining", s.Remaining().Dollars()},
		[2]string{"Duration", s.Duration().Round(10 * time.Millisecond).String()},
	)
	b.WriteString(renderTotals(pairs))
	b.WriteString("\n")
	if s.Interrupted {
		b.WriteString("Run interrupted; rerun the catalog to continue.\n")
	}
	return b.String()
}

func outcomeLabel(state runner.State) string {
	switch state {
	case runner.StateCommitted:
		return "generated"
	case runner.StateSkippedComplete:
		return "skipped (exists)"
	case runner.StateSkippedBudget:
		return "skipped (budget)"
	case runner.StateErrored:
		return "errored"
	default:
		return strings.ToLower(state.String())
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
