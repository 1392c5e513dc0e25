// If you are AI: This is the main entrypoint for the telemetryrelay binary.
// It builds the command tree and maps termination signals to context cancellation.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"telemetryrelay/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// main runs the CLI and exits non-zero on failure.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRoot(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
