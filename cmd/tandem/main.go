package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tandemhq/tandem/internal/cli"
)

// main wires signals into the CLI and exits with its status code.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
