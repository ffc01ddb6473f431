// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newPopulateCommand(a *app) *cobra.Command {
	var (
		datasource string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "populate",
		Short: "Populate configured data sources",
		Long: `Populate runs the configured populator against a data source.

Without flags the single configured data source is populated; when several
are configured nothing happens. Use --datasource to pick one or --all to
populate every data source in name order.`,
		Example: `  # Populate the only data source
  sqlseed --config seed.yaml populate

  # Populate one of several
  sqlseed --config seed.yaml populate --datasource main`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if all && datasource != "" {
				return fmt.Errorf("--all and --datasource are mutually exclusive")
			}
			ctx := cmd.Context()

			env, err := a.environment(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			started := time.Now()
			var names []string
			switch {
			case datasource != "":
				names = []string{datasource}
			case all:
				names = env.Names()
			default:
				name, err := env.Initialize(ctx)
				if err != nil {
					return err
				}
				if name == "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d data sources configured; use --datasource or --all\n", len(env.Names()))
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "populated %s\n", name)
				return nil
			}

			for _, name := range names {
				if err := env.Populate(ctx, name); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "populated %s\n", name)
			}
			a.logger.Info("populate done", "datasources", len(names), "elapsed", time.Since(started))
			return nil
		},
	}

	cmd.Flags().StringVar(&datasource, "datasource", "", "data source to populate")
	cmd.Flags().BoolVar(&all, "all", false, "populate every data source")

	return cmd
}
