// Command encounter rates an encounter from the command line.
//
//	encounter -party-tier 2 -party-size 4 -enemy "Chasmfiend" -enemy "Axehound x3"
//	encounter -list -filter Role=Boss -sort tier_desc
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/cremling/internal/planner"
	"github.com/okian/cremling/pkg/logger"
)

func main() {
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	cfg, err := planner.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := planner.Run(ctx, cfg, os.Stdout); err != nil {
		stop()
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
