// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package cli

import (
	"fmt"
	"os"

	"github.com/mdhender/sqlseed/sqlscript"
	"github.com/spf13/cobra"
)

func newStatementsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "statements FILE",
		Short: "Print the statements a script contains",
		Long: `Statements splits a script the way populators do and prints one
statement per line. Use it to check how a seed file will be executed.`,
		Example: `  sqlseed statements seeds/001_users.sql
  sqlseed statements --comment-prefix '#' legacy.sql`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			sc, err := sqlscript.Open(f, a.cfg.CommentPrefix)
			if err != nil {
				_ = f.Close()
				return err
			}
			defer sc.Close()
			sc.WithLogger(a.logger)

			n := 0
			for stmt := range sc.All() {
				n++
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", n, stmt)
			}
			if err := sc.Err(); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return nil
		},
	}
}
