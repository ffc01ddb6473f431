// Copyright (c) 2026 Michael D Henderson. All rights reserved.

// Command sqlseed populates empty databases from SQL scripts.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mdhender/sqlseed/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
