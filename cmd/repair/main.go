// Package main starts one roster consistency repair pass.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	repaircmd "github.com/fieldcount/roster/internal/cmd/repair"
	"github.com/fieldcount/roster/internal/platform/config"
)

func main() {
	cfg, err := repaircmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse repair config: %v", err)
	}
	log.SetPrefix("[REPAIR] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := repaircmd.Run(ctx, cfg); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}
