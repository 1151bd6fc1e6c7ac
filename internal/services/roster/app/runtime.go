// Package app wires storage, transport, and the engine for one batch
// invocation. The reconciler has no resident scheduler; cron runs the
// binary and each invocation is a complete load-compute-dispatch pass.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fieldcount/roster/internal/services/roster/domain"
	"github.com/fieldcount/roster/internal/services/roster/mail"
	"github.com/fieldcount/roster/internal/services/roster/reconcile"
	"github.com/fieldcount/roster/internal/services/roster/render"
	rostersqlite "github.com/fieldcount/roster/internal/services/roster/storage/sqlite"
)

const defaultDBPath = "data/roster.db"

// ReconcilerConfig controls one reconciliation run.
type ReconcilerConfig struct {
	DBPath       string
	Kind         string
	SMTPAddr     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	SendTimeout  time.Duration
}

// RunReconciler executes one reconciliation pass and logs the per-area
// report. It returns an error when the window could not be loaded or any
// area's dispatch must be retried, so the scheduler surfaces the failure.
func RunReconciler(ctx context.Context, cfg ReconcilerConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	kind, err := reconcile.ParseKind(cfg.Kind)
	if err != nil {
		return err
	}

	store, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close roster store: %v", closeErr)
		}
	}()

	sender, err := buildSender(cfg)
	if err != nil {
		return err
	}

	engine, err := reconcile.NewEngine(reconcile.Deps{
		Ledger:     store,
		Watermarks: store,
		Leaders:    store,
		Roster:     store,
		Composer:   render.NewComposer(nil),
		Sender:     sender,
	})
	if err != nil {
		return err
	}

	report, err := engine.Run(ctx, kind)
	if err != nil {
		return fmt.Errorf("reconciliation run: %w", err)
	}

	for _, area := range report.Areas {
		switch area.Outcome {
		case reconcile.OutcomeSent:
			log.Printf("area %s: sent to %d recipients (%d arrivals, %d departures), watermark %s",
				area.Area, area.Recipients, area.Arrivals, area.Departures, area.AdvancedTo.Format(time.RFC3339))
		case reconcile.OutcomeNoChange:
			log.Printf("area %s: no net change", area.Area)
		case reconcile.OutcomeNoLeader:
			log.Printf("area %s: pending diff (%d arrivals, %d departures) held, no active leader",
				area.Area, area.Arrivals, area.Departures)
		default:
			log.Printf("area %s: %s: %s", area.Area, area.Outcome, area.Err)
		}
	}
	log.Printf("%s run complete: %d events, %d areas, %d sent, %d failed",
		report.Kind, report.Events, len(report.Areas), report.Sent(), report.Failed())

	if failed := report.Failed(); failed > 0 {
		return fmt.Errorf("%d area dispatches failed and will retry next run", failed)
	}
	return nil
}

// RepairConfig controls one consistency repair pass.
type RepairConfig struct {
	DBPath string
}

// RunRepair reconciles participant leadership flags against the leader
// registry once.
func RunRepair(ctx context.Context, cfg RepairConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close roster store: %v", closeErr)
		}
	}()

	service := domain.NewService(store, store, store, nil, nil)
	report, err := service.Repair(ctx)
	if err != nil {
		return fmt.Errorf("repair pass: %w", err)
	}
	log.Printf("repair complete: %d flags set, %d flags cleared, %d orphaned leader records",
		report.FlagsSet, report.FlagsCleared, report.OrphanedRecords)
	return nil
}

func openStore(path string) (*rostersqlite.Store, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultDBPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := rostersqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster store: %w", err)
	}
	return store, nil
}

func buildSender(cfg ReconcilerConfig) (mail.Sender, error) {
	if strings.TrimSpace(cfg.SMTPAddr) == "" {
		log.Printf("smtp endpoint not configured; mail dispatch is a dry run")
		return &mail.LogSender{}, nil
	}
	sender, err := mail.NewSMTPSender(mail.SMTPConfig{
		Addr:     cfg.SMTPAddr,
		From:     cfg.SMTPFrom,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		Timeout:  cfg.SendTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("configure smtp sender: %w", err)
	}
	return sender, nil
}
