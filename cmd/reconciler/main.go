// Package main starts one roster reconciliation batch run.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	reconcilercmd "github.com/fieldcount/roster/internal/cmd/reconciler"
	"github.com/fieldcount/roster/internal/platform/config"
)

func main() {
	cfg, err := reconcilercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse reconciler config: %v", err)
	}
	log.SetPrefix("[RECONCILER] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := reconcilercmd.Run(ctx, cfg); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}
