// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package cli

import (
	"fmt"

	"github.com/mdhender/sqlseed"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			v := sqlseed.Version()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sqlseed v%d.%d.%d (build %v)\n", v.Major, v.Minor, v.Patch, v.Build)
		},
	}
}
