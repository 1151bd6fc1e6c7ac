package app

import (
	"context"
	"path/filepath"
	"testing"
)

func TestRunReconcilerRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	err := RunReconciler(context.Background(), ReconcilerConfig{
		DBPath: filepath.Join(t.TempDir(), "roster.db"),
		Kind:   "hourly_update",
	})
	if err == nil {
		t.Fatal("RunReconciler() with unknown kind succeeded")
	}
}

func TestRunReconcilerDryRunOnEmptyStore(t *testing.T) {
	t.Parallel()

	// No SMTP endpoint configured: the pass uses the dry-run sender and an
	// empty ledger yields a clean no-op run.
	err := RunReconciler(context.Background(), ReconcilerConfig{
		DBPath: filepath.Join(t.TempDir(), "roster.db"),
		Kind:   "team_update",
	})
	if err != nil {
		t.Fatalf("RunReconciler() error = %v", err)
	}
}

func TestRunReconcilerRejectsBadSMTPConfig(t *testing.T) {
	t.Parallel()

	err := RunReconciler(context.Background(), ReconcilerConfig{
		DBPath:   filepath.Join(t.TempDir(), "roster.db"),
		Kind:     "team_update",
		SMTPAddr: "mail.example.com:587",
		// From is missing.
	})
	if err == nil {
		t.Fatal("RunReconciler() with incomplete smtp config succeeded")
	}
}

func TestRunRepairOnEmptyStore(t *testing.T) {
	t.Parallel()

	err := RunRepair(context.Background(), RepairConfig{
		DBPath: filepath.Join(t.TempDir(), "roster.db"),
	})
	if err != nil {
		t.Fatalf("RunRepair() error = %v", err)
	}
}
