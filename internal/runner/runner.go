package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"assetgen/internal/budget"
	"assetgen/internal/catalog"
	"assetgen/internal/ledger"
	"assetgen/internal/logging"
	"assetgen/internal/money"
	"assetgen/internal/producer"
	"assetgen/internal/throttle"
)

// Artifacts is the completion oracle and output sink.
type Artifacts interface {
	Exists(id, ext string) (bool, error)
	Write(id, ext string, data []byte) (string, error)
}

// Runner drives jobs through the pipeline.
type Runner struct {
	artifacts Artifacts
	budgetCap money.Amount
	timeout   time.Duration
	throttle  *throttle.Throttle
	logger    *slog.Logger
	now       func() time.Time
	runID     string
	catalog   string
}

// Option customises a Runner.
type Option func(*Runner)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logging.NewComponentLogger(logger, "runner")
		}
	}
}

// WithThrottle sets the pause applied after producer calls.
func WithThrottle(t *throttle.Throttle) Option {
	return func(r *Runner) { r.throttle = t }
}

// WithTimeout bounds each producer call. Zero means no runner-imposed limit.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.timeout = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(r *Runner) {
		if id != "" {
			r.runID = id
		}
	}
}

// WithCatalogName labels the summary and logs.
func WithCatalogName(name string) Option {
	return func(r *Runner) { r.catalog = name }
}

// New constructs a runner enforcing budgetCap.
func New(artifacts Artifacts, budgetCap money.Amount, opts ...Option) *Runner {
	r := &Runner{
		artifacts: artifacts,
		budgetCap: budgetCap,
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	return r
}

// RunID returns the identifier stamped on ledger entries and logs.
func (r *Runner) RunID() string { return r.runID }

// Run executes jobs in order and returns the summary. The error is non-nil
// only for unusable inputs; per-job failures are reported in the summary.
func (r *Runner) Run(ctx context.Context, jobs []catalog.Job, l *ledger.Ledger) (Summary, error) {
	if l == nil {
		return Summary{}, errors.New("runner: ledger is required")
	}
	if r.artifacts == nil {
		return Summary{}, errors.New("runner: artifact store is required")
	}
	if r.budgetCap.IsNegative() {
		return Summary{}, fmt.Errorf("runner: negative budget cap %s", r.budgetCap)
	}

	ctx = logging.WithRunID(ctx, r.runID)
	logger := logging.WithContext(ctx, r.logger)

	summary := Summary{
		RunID:      r.runID,
		Catalog:    r.catalog,
		Total:      len(jobs),
		StartSpent: l.Total(),
		BudgetCap:  r.budgetCap,
		Started:    r.now(),
		Results:    make([]JobResult, 0, len(jobs)),
	}
	logger.Info("run starting",
		logging.String("catalog", r.catalog),
		logging.Int("jobs", len(jobs)),
		logging.Amount("budget_cap", r.budgetCap),
		logging.Amount("spent", summary.StartSpent),
		logging.Amount("estimate", catalog.Estimate(jobs)),
		logging.String("ledger", l.Location()))

	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			r.interrupt(logger, &summary, len(jobs)-i, err)
			break
		}
		result := r.runJob(logging.WithJobID(ctx, job.ID), i, len(jobs), job, l)
		summary.add(result)

		if result.Called && i < len(jobs)-1 {
			if err := r.throttle.Wait(ctx); err != nil {
				r.interrupt(logger, &summary, len(jobs)-i-1, err)
				break
			}
		}
	}

	summary.TotalSpent = l.Total()
	summary.Finished = r.now()
	logger.Info("run finished",
		logging.Int("generated", summary.Generated),
		logging.Int("skipped_complete", summary.SkippedComplete),
		logging.Int("skipped_budget", summary.SkippedBudget),
		logging.Int("errored", summary.Errored),
		logging.Int("not_attempted", summary.NotAttempted),
		logging.Amount("spent", summary.Spent),
		logging.Amount("total_spent", summary.TotalSpent),
		logging.Amount("budget_cap", summary.BudgetCap),
		logging.Duration("duration", summary.Duration()))
	return summary, nil
}

func (r *Runner) interrupt(logger *slog.Logger, summary *Summary, remaining int, cause error) {
	summary.Interrupted = true
	summary.NotAttempted = remaining
	logging.WarnWithContext(logger, "run interrupted", "run_interrupted",
		logging.Int("not_attempted", remaining),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "rerun the same catalog to continue; completed jobs are skipped"),
		logging.String(logging.FieldImpact, "remaining jobs were not attempted"))
}

func (r *Runner) runJob(ctx context.Context, index, total int, job catalog.Job, l *ledger.Ledger) JobResult {
	started := r.now()
	result := JobResult{
		Index: index,
		ID:    job.ID,
		Kind:  job.Kind,
		Class: job.Class,
		Cost:  job.Cost,
		State: StatePending,
	}
	logger := logging.WithContext(ctx, r.logger).With(
		logging.String("progress", fmt.Sprintf("%d/%d", index+1, total)))
	finish := func() JobResult {
		result.Duration = r.now().Sub(started)
		return result
	}

	exists, err := r.artifacts.Exists(job.ID, job.Extension)
	if err != nil {
		result.State = StateErrored
		result.Err = fmt.Errorf("artifact check: %w", err)
		logging.ErrorWithContext(logger, "job failed", "artifact_check_failed",
			logging.Error(result.Err),
			logging.String(logging.FieldErrorHint, "check permissions on the asset directory"))
		return finish()
	}
	if exists {
		result.State = StateSkippedComplete
		logger.Info("skip: artifact exists")
		return finish()
	}

	decision := budget.Evaluate(l.Total(), job.Cost, r.budgetCap)
	if !decision.Allowed {
		result.State = StateSkippedBudget
		logger.Info("skip: over budget", logging.String("reason", decision.Reason()))
		return finish()
	}

	result.State = StateGenerating
	logger.Info("generating",
		logging.String("kind", string(job.Kind)),
		logging.String("class", job.Class),
		logging.Amount("cost", job.Cost))

	data, err := r.produce(ctx, job)
	result.Called = true
	if err != nil {
		result.State = StateErrored
		result.Err = err
		logging.ErrorWithContext(logger, "job failed", "producer_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(err)))
		return finish()
	}

	path, err := r.artifacts.Write(job.ID, job.Extension, data)
	if err != nil {
		result.State = StateErrored
		result.Err = fmt.Errorf("%w: write artifact: %w", ErrPersist, err)
		logging.ErrorWithContext(logger, "job failed", "artifact_write_failed",
			logging.Error(result.Err),
			logging.String(logging.FieldErrorHint, "check free space and permissions on the asset directory"))
		return finish()
	}
	result.Path = path
	result.Bytes = len(data)

	entry := ledger.Entry{
		JobID: job.ID,
		Cost:  job.Cost,
		RunID: r.runID,
		Class: job.Class,
		Bytes: int64(len(data)),
	}
	if err := l.Record(context.WithoutCancel(ctx), entry); err != nil {
		result.State = StateErrored
		result.Err = fmt.Errorf("%w: %w", ErrPersist, err)
		logging.ErrorWithContext(logger, "job failed", "ledger_commit_failed",
			logging.Error(result.Err),
			logging.String("artifact", path),
			logging.String(logging.FieldErrorHint, "artifact is on disk but unbilled; the next run will skip it"))
		return finish()
	}

	result.State = StateCommitted
	result.Charged = job.Cost
	logger.Info("committed",
		logging.String("path", path),
		logging.Int("bytes", len(data)),
		logging.Amount("cost", job.Cost),
		logging.Amount("total_spent", l.Total()))
	return finish()
}

// produce calls the job's producer detached from parent cancellation and
// bounded by the runner timeout.
func (r *Runner) produce(ctx context.Context, job catalog.Job) ([]byte, error) {
	if job.Producer == nil {
		return nil, producer.Wrap(producer.ErrConfiguration, string(job.Kind), "produce", "no producer bound", nil)
	}
	callCtx := context.WithoutCancel(ctx)
	cancel := context.CancelFunc(func() {})
	if r.timeout > 0 {
		callCtx, cancel = context.WithTimeout(callCtx, r.timeout)
	}
	defer cancel()

	data, err := job.Producer.Produce(callCtx, job.Parameters.Clone())
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, producer.ErrTimeout) {
			return nil, producer.Wrap(producer.ErrTimeout, string(job.Kind), "produce", fmt.Sprintf("exceeded %s", r.timeout), err)
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, producer.Wrap(producer.ErrShortOutput, string(job.Kind), "produce", "empty output", nil)
	}
	return data, nil
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, producer.ErrTimeout):
		return "provider did not answer in time; raise producer.timeout_seconds or rerun later"
	case errors.Is(err, producer.ErrConfiguration):
		return "check provider credentials and settings"
	case errors.Is(err, producer.ErrInvalidParameters):
		return "fix the job parameters in the catalog"
	case errors.Is(err, producer.ErrResponse):
		return "provider rejected the request; inspect the cause and adjust the prompt"
	default:
		return "transient provider failure; rerun to retry this job"
	}
}
