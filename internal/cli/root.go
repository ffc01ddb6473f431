// Copyright (c) 2026 Michael D Henderson. All rights reserved.

// Package cli provides the command-line interface for sqlseed.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mdhender/sqlseed"
	"github.com/spf13/cobra"
)

// app carries the state shared by the subcommands.
type app struct {
	cfgFile  string
	logLevel string

	cfg    sqlseed.Config
	logger *slog.Logger
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "sqlseed",
		Short: "sqlseed - populate empty databases from SQL scripts",
		Long: `sqlseed fills freshly created databases with seed data.

Data sources and the scripts that populate them are described in a YAML
configuration file. Values can be overridden with SQLSEED_ environment
variables and command line flags.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			logger, err := newLogger(cmd.ErrOrStderr(), a.logLevel)
			if err != nil {
				return err
			}
			a.logger = logger

			a.cfg, err = sqlseed.LoadConfig(a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if a.cfgFile != "" {
				a.logger.Debug("loaded config", "path", a.cfgFile)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("comment-prefix", "", "line comment prefix in scripts (default \"--\")")

	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newPopulateCommand(a))
	rootCmd.AddCommand(newListCommand(a))
	rootCmd.AddCommand(newStatementsCommand(a))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// newLogger returns a text logger writing to w at the named level.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

var errNoDataSources = fmt.Errorf("%w: no datasources configured (use --config)", sqlseed.ErrConfiguration)

// environment builds the data sources described by the loaded config.
func (a *app) environment(ctx context.Context) (*sqlseed.Environment, error) {
	if len(a.cfg.DataSources) == 0 {
		return nil, errNoDataSources
	}
	return sqlseed.Build(ctx, a.cfg, sqlseed.Options{Logger: a.logger})
}
