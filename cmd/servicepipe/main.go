// servicepipe runs YAML-defined pipelines of builtin string services.
//
// Usage:
//
//	servicepipe run -f pipelines.yaml -p <name> [--state k=v]... [--parallel N] [--metrics] input...
//	servicepipe services
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
