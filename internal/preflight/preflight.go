package preflight

import (
	"context"
	"strings"

	"assetgen/internal/config"
	"assetgen/internal/producer"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects which checks RunAll performs.
type Options struct {
	// Kinds are the producer kinds the catalog needs.
	Kinds []producer.Kind
	// AssetsDir and LedgerPath override the configured locations, for
	// catalogs with output_subdir or ledger headers.
	AssetsDir  string
	LedgerPath string
	// Remote enables checks that contact the providers.
	Remote bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}
	assetsDir := firstNonEmpty(opts.AssetsDir, cfg.Paths.AssetsDir)
	ledgerPath := firstNonEmpty(opts.LedgerPath, cfg.Paths.LedgerPath)

	var results []Result
	results = append(results, CheckCreatableDirectory("Asset directory", assetsDir))
	results = append(results, CheckLedger(ctx, cfg.Ledger.Backend, ledgerPath))

	for _, kind := range opts.Kinds {
		switch kind {
		case producer.KindImage:
			results = append(results, CheckCredential("OpenAI credential", string(kind), cfg.OpenAI.APIKey))
			if opts.Remote && cfg.OpenAI.APIKey != "" {
				results = append(results, CheckOpenAI(ctx, cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Model))
			}
		case producer.KindAudio:
			results = append(results, CheckCredential("Google credential", string(kind), cfg.Lyria.APIKey))
			if opts.Remote && cfg.Lyria.APIKey != "" {
				results = append(results, CheckLyria(ctx, cfg.Lyria.APIKey, cfg.Lyria.Model))
			}
		default:
			results = append(results, Result{Name: "Producer " + string(kind), Detail: "no producer for this kind"})
		}
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
