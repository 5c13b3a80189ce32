// Package metrics exports run outcomes in the Prometheus text format so a
// node_exporter textfile collector can pick them up after each batch.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"assetgen/internal/runner"
)

// RunMetrics holds the collectors for one run.
type RunMetrics struct {
	registry    *prometheus.Registry
	jobs        *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	spent       *prometheus.GaugeVec
	runSpent    *prometheus.GaugeVec
	budgetCap   *prometheus.GaugeVec
	runDuration *prometheus.GaugeVec
	lastRun     *prometheus.GaugeVec
	interrupted *prometheus.GaugeVec
}

// New registers the collectors on a private registry.
func New() *RunMetrics {
	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetgen_jobs_total",
				Help: "Jobs processed in the last run by outcome",
			},
			[]string{"catalog", "outcome"},
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assetgen_producer_call_seconds",
				Help:    "Wall time of jobs that called a producer",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			},
			[]string{"catalog", "kind"},
		),
		spent: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "assetgen_ledger_spent",
				Help: "Total spend recorded in the ledger, in budget currency",
			},
			[]string{"catalog"},
		),
		runSpent: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "assetgen_run_spent",
				Help: "Spend added by the last run, in budget currency",
			},
			[]string{"catalog"},
		),
		budgetCap: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "assetgen_budget_cap",
				Help: "Budget cap in force for the last run",
			},
			[]string{"catalog"},
		),
		runDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "assetgen_run_duration_seconds",
				Help: "Wall time of the last run",
			},
			[]string{"catalog"},
		),
		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "assetgen_last_run_timestamp_seconds",
				Help: "Unix time the last run finished",
			},
			[]string{"catalog"},
		),
		interrupted: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "assetgen_run_interrupted",
				Help: "1 when the last run stopped before its final job",
			},
			[]string{"catalog"},
		),
	}
	m.registry.MustRegister(m.jobs, m.jobDuration, m.spent, m.runSpent, m.budgetCap, m.runDuration, m.lastRun, m.interrupted)
	return m
}

// Registry exposes the underlying registry.
func (m *RunMetrics) Registry() *prometheus.Registry { return m.registry }

// Observe records a finished run.
func (m *RunMetrics) Observe(summary runner.Summary) {
	name := summary.Catalog
	outcomes := map[string]int{
		runner.StateCommitted.String():       summary.Generated,
		runner.StateSkippedComplete.String(): summary.SkippedComplete,
		runner.StateSkippedBudget.String():   summary.SkippedBudget,
		runner.StateErrored.String():         summary.Errored,
		"not_attempted":                      summary.NotAttempted,
	}
	for outcome, count := range outcomes {
		m.jobs.WithLabelValues(name, outcome).Add(float64(count))
	}
	for _, result := range summary.Results {
		if result.Called {
			m.jobDuration.WithLabelValues(name, string(result.Kind)).Observe(result.Duration.Seconds())
		}
	}
	m.spent.WithLabelValues(name).Set(summary.TotalSpent.Float64())
	m.runSpent.WithLabelValues(name).Set(summary.Spent.Float64())
	m.budgetCap.WithLabelValues(name).Set(summary.BudgetCap.Float64())
	m.runDuration.WithLabelValues(name).Set(summary.Duration().Seconds())
	m.lastRun.WithLabelValues(name).Set(float64(summary.Finished.Unix()))
	interrupted := 0.0
	if summary.Interrupted {
		interrupted = 1
	}
	m.interrupted.WithLabelValues(name).Set(interrupted)
}

// WriteTextfile writes the collected metrics to path. The write goes through
// a temporary file so collectors never read a partial export.
func (m *RunMetrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
