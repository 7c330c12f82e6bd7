// Package main runs the hadiag command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	hadiagcmd "github.com/louisbranch/ha-diag/internal/cmd/hadiag"
	"github.com/louisbranch/ha-diag/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := hadiagcmd.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		config.Exitf("hadiag: %v", err)
	}
}
