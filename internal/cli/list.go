// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mdhender/sqlseed"
	"github.com/spf13/cobra"
)

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured data sources",
		Long: `List shows every configured data source with its driver, target,
session mode and populator. It reads the configuration only: no database
is opened, created or populated.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(a.cfg.DataSources) == 0 {
				return errNoDataSources
			}
			infos, err := sqlseed.DescribeConfig(a.cfg)
			if err != nil {
				return err
			}
			renderDataSources(cmd.OutOrStdout(), infos)
			return nil
		},
	}
}

func renderDataSources(w io.Writer, infos []sqlseed.DataSourceInfo) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Kind", "Target", "Mode", "Populator"})
	for _, info := range infos {
		var mode any = info.Mode
		if info.Kind == "provider" {
			mode = "(provider)"
		}
		t.AppendRow(table.Row{info.Name, info.Kind, info.Target, mode, info.Populator})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d data sources)\n", len(infos))
}
