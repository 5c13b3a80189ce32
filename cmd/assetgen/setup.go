package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"assetgen/internal/catalog"
	"assetgen/internal/config"
	"assetgen/internal/money"
	"assetgen/internal/producer"
)

// catalogOverrides are the command-line values that win over both the
// catalog header and the config file.
type catalogOverrides struct {
	budget   string
	throttle float64
	ledger   string
	assets   string
}

func (o *catalogOverrides) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.budget, "budget", "", "Budget cap for this run (e.g. 2.50)")
	cmd.Flags().Float64Var(&o.throttle, "throttle", 0, "Seconds to wait after each producer call")
	cmd.Flags().StringVar(&o.ledger, "ledger", "", "Ledger file path")
	cmd.Flags().StringVar(&o.assets, "assets", "", "Asset output directory")
}

// runSetup is everything a catalog-driven command resolves before acting.
type runSetup struct {
	cfg        *config.Config
	logger     *slog.Logger
	catalog    *catalog.Catalog
	registry   *producer.Registry
	jobs       []catalog.Job
	budgetCap  money.Amount
	throttle   time.Duration
	ledgerPath string
	assetsRoot string
}

func (s *runSetup) kinds() []producer.Kind {
	return s.catalog.Kinds()
}

// prepareCatalog loads the named catalog and applies precedence
// flag > catalog header > config for cap, throttle, ledger, and assets.
func prepareCatalog(cmd *cobra.Command, ctx *commandContext, name string, overrides catalogOverrides) (*runSetup, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	path, err := catalog.Resolve(name, cfg.Paths.CatalogDir)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	setup := &runSetup{
		cfg:        cfg,
		logger:     logger,
		catalog:    cat,
		budgetCap:  cat.BudgetCap(cfg.BudgetCap()),
		throttle:   cat.ThrottleInterval(cfg.ThrottleInterval()),
		ledgerPath: cat.LedgerPath(cfg.Paths.LedgerPath),
	}

	if value := strings.TrimSpace(overrides.budget); value != "" {
		amount, err := money.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("--budget: %w", err)
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("--budget must be non-negative, got %s", amount)
		}
		setup.budgetCap = amount
	}
	if cmd.Flags().Changed("throttle") {
		if overrides.throttle < 0 {
			return nil, fmt.Errorf("--throttle must be non-negative, got %g", overrides.throttle)
		}
		setup.throttle = time.Duration(overrides.throttle * float64(time.Second))
	}
	if value := strings.TrimSpace(overrides.ledger); value != "" {
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return nil, fmt.Errorf("--ledger: %w", err)
		}
		setup.ledgerPath = expanded
	}
	assetsDir := cfg.Paths.AssetsDir
	if value := strings.TrimSpace(overrides.assets); value != "" {
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return nil, fmt.Errorf("--assets: %w", err)
		}
		assetsDir = expanded
	}
	setup.assetsRoot = cat.ArtifactRoot(assetsDir)

	registry, err := newProducerRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}
	jobs, err := cat.Build(registry, catalog.PricesFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	setup.registry = registry
	setup.jobs = jobs
	return setup, nil
}
