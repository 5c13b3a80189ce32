package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"assetgen/internal/catalog"
	"assetgen/internal/config"
	"assetgen/internal/ledger"
	"assetgen/internal/money"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the spend ledger",
	}
	ledgerCmd.AddCommand(newLedgerShowCommand(ctx))
	ledgerCmd.AddCommand(newLedgerVerifyCommand(ctx))
	return ledgerCmd
}

func newLedgerShowCommand(ctx *commandContext) *cobra.Command {
	var ledgerFlag string
	var limit int

	cmd := &cobra.Command{
		Use:   "show [catalog]",
		Short: "List billed jobs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := resolveLedgerPath(cfg, args, ledgerFlag)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintf(out, "No ledger at %s; nothing has been spent\n", path)
				return nil
			}
			book, err := openLedger(cmd, cfg, path)
			if err != nil {
				return err
			}
			defer book.Close()

			entries := book.Entries()
			shown := entries
			if limit > 0 && len(shown) > limit {
				shown = shown[len(shown)-limit:]
			}
			offset := len(entries) - len(shown)
			report := newJobReport(indexColumn, textColumn("Time"), textColumn("Job"), textColumn("Class"),
				moneyColumn("Cost"), textColumn("Run"))
			var listed money.Amount
			for i, e := range shown {
				report.add(
					fmt.Sprintf("%d", offset+i+1),
					e.Timestamp.Local().Format(time.DateTime),
					e.JobID,
					e.Class,
					e.Cost.String(),
					shortRunID(e.RunID),
				)
				listed += e.Cost
			}
			if report.rows() > 0 {
				report.total(fmt.Sprintf("%d shown", len(shown)), "Cost", listed)
				fmt.Fprintln(out, report.render())
			}
			fmt.Fprintf(out, "Total spent: %s across %d entries (%s)\n", book.Total().Dollars(), len(entries), book.Location())
			return nil
		},
	}

	cmd.Flags().StringVar(&ledgerFlag, "ledger", "", "Ledger file path")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the most recent entries")
	return cmd
}

func newLedgerVerifyCommand(ctx *commandContext) *cobra.Command {
	var ledgerFlag string

	cmd := &cobra.Command{
		Use:   "verify [catalog]",
		Short: "Check that the ledger total matches its entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := resolveLedgerPath(cfg, args, ledgerFlag)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintf(out, "No ledger at %s\n", path)
				return nil
			}
			book, err := openLedger(cmd, cfg, path)
			if err != nil {
				return err
			}
			defer book.Close()
			if err := book.Snapshot().Verify(); err != nil {
				return err
			}
			fmt.Fprintf(out, "Ledger OK: %d entries, total %s (%s)\n", len(book.Entries()), book.Total().Dollars(), book.Location())
			return nil
		},
	}

	cmd.Flags().StringVar(&ledgerFlag, "ledger", "", "Ledger file path")
	return cmd
}

// resolveLedgerPath picks --ledger, then the catalog's ledger header, then
// the configured default.
func resolveLedgerPath(cfg *config.Config, args []string, flag string) (string, error) {
	if value := strings.TrimSpace(flag); value != "" {
		return config.ExpandPath(value)
	}
	if len(args) == 0 {
		return cfg.Paths.LedgerPath, nil
	}
	path, err := catalog.Resolve(args[0], cfg.Paths.CatalogDir)
	if err != nil {
		return "", err
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return "", fmt.Errorf("load catalog: %w", err)
	}
	return cat.LedgerPath(cfg.Paths.LedgerPath), nil
}

// openLedger loads and verifies the ledger. A corrupt ledger is an error.
func openLedger(cmd *cobra.Command, cfg *config.Config, path string) (*ledger.Ledger, error) {
	store, err := ledger.OpenStore(cmd.Context(), cfg.Ledger.Backend, path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	book, err := ledger.Open(cmd.Context(), store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return book, nil
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
