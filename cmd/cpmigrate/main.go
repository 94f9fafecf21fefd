package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/indaco/cpmigrate/internal/cli"
	"github.com/indaco/cpmigrate/internal/core"
	"github.com/indaco/cpmigrate/internal/printer"
)

func main() {
	if err := runCLI(os.Args); err != nil {
		if errors.Is(err, context.Canceled) {
			printer.PrintWarning("Interrupted, remaining files were left untouched.")
			os.Exit(130) // shell convention for SIGINT
		}
		printer.PrintError(fmt.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

// runCLI runs the root command until it finishes or a SIGINT/SIGTERM
// arrives.
func runCLI(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.New(core.NewOSFileSystem()).Run(ctx, args)
}
