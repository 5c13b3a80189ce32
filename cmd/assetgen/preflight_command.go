package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"assetgen/internal/preflight"
	"assetgen/internal/producer"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	var overrides catalogOverrides
	var remote bool

	cmd := &cobra.Command{
		Use:   "preflight [catalog]",
		Short: "Check credentials, directories, and the ledger before a run",
		Long: "Preflight runs the same checks as the start of a run. Without a catalog it\n" +
			"checks every producer kind. --remote also asks each provider to confirm the\n" +
			"key and model.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := preflight.Options{
				Kinds:  []producer.Kind{producer.KindImage, producer.KindAudio},
				Remote: remote,
			}
			title := "Preflight"
			if len(args) == 1 {
				setup, err := prepareCatalog(cmd, ctx, args[0], overrides)
				if err != nil {
					return err
				}
				opts.Kinds = setup.kinds()
				opts.AssetsDir = setup.assetsRoot
				opts.LedgerPath = setup.ledgerPath
				title = "Preflight: " + setup.catalog.Name()
			}

			results := preflight.RunAll(cmd.Context(), cfg, opts)
			if failed := renderChecks(cmd.OutOrStdout(), title, results); failed > 0 {
				return fmt.Errorf("%d preflight check(s) failed", failed)
			}
			return nil
		},
	}

	overrides.bind(cmd)
	cmd.Flags().BoolVar(&remote, "remote", false, "Contact providers to verify keys and models")
	return cmd
}
