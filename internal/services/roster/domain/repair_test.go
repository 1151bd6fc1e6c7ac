package domain

import (
	"context"
	"testing"
)

func TestRepairSetsMissingFlags(t *testing.T) {
	t.Parallel()

	stores := newFakeStores()
	service := newTestService(stores, "participant-1", "leader-1")

	identity := Identity{FirstName: "Maria", LastName: "Silva", Email: "maria@example.com"}
	if _, err := service.Register(context.Background(), RegisterInput{Identity: identity, Area: "4B"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := service.Promote(context.Background(), identity, "4B", "admin"); err != nil {
		t.Fatalf("Promote() error = %v", err)
	}

	// Undo the flag half of the cascade, as a crash between the two writes
	// would have left it.
	participant, _ := stores.activeParticipant(identity)
	participant.IsLeader = false
	participant.AssignedAreaLeader = ""
	if err := stores.UpdateParticipant(context.Background(), participant); err != nil {
		t.Fatalf("UpdateParticipant() error = %v", err)
	}

	report, err := service.Repair(context.Background())
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if report.FlagsSet != 1 {
		t.Fatalf("FlagsSet = %d, want 1", report.FlagsSet)
	}
	healed, _ := stores.activeParticipant(identity)
	if !healed.IsLeader || healed.AssignedAreaLeader != "4B" {
		t.Fatalf("participant flags = (%v, %q), want (true, 4B)", healed.IsLeader, healed.AssignedAreaLeader)
	}
}

func TestRepairClearsStaleFlags(t *testing.T) {
	t.Parallel()

	stores := newFakeStores()
	service := newTestService(stores, "participant-1")

	identity := Identity{FirstName: "Maria", LastName: "Silva", Email: "maria@example.com"}
	if _, err := service.Register(context.Background(), RegisterInput{Identity: identity, Area: "4B"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	participant, _ := stores.activeParticipant(identity)
	participant.IsLeader = true
	participant.AssignedAreaLeader = "4B"
	if err := stores.UpdateParticipant(context.Background(), participant); err != nil {
		t.Fatalf("UpdateParticipant() error = %v", err)
	}

	report, err := service.Repair(context.Background())
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if report.FlagsCleared != 1 {
		t.Fatalf("FlagsCleared = %d, want 1", report.FlagsCleared)
	}
	healed, _ := stores.activeParticipant(identity)
	if healed.IsLeader || healed.AssignedAreaLeader != "" {
		t.Fatalf("participant flags = (%v, %q), want cleared", healed.IsLeader, healed.AssignedAreaLeader)
	}
}

func TestRepairFixesWrongArea(t *testing.T) {
	t.Parallel()

	stores := newFakeStores()
	service := newTestService(stores, "participant-1", "leader-1")

	identity := Identity{FirstName: "Maria", LastName: "Silva", Email: "maria@example.com"}
	if _, err := service.Register(context.Background(), RegisterInput{Identity: identity, Area: "4B"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := service.Promote(context.Background(), identity, "4B", "admin"); err != nil {
		t.Fatalf("Promote() error = %v", err)
	}

	participant, _ := stores.activeParticipant(identity)
	participant.AssignedAreaLeader = "9A"
	if err := stores.UpdateParticipant(context.Background(), participant); err != nil {
		t.Fatalf("UpdateParticipant() error = %v", err)
	}

	report, err := service.Repair(context.Background())
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if report.FlagsSet != 1 {
		t.Fatalf("FlagsSet = %d, want 1", report.FlagsSet)
	}
	healed, _ := stores.activeParticipant(identity)
	if healed.AssignedAreaLeader != "4B" {
		t.Fatalf("AssignedAreaLeader = %q, want the registry's %q", healed.AssignedAreaLeader, "4B")
	}
}

func TestRepairReportsOrphanedRecords(t *testing.T) {
	t.Parallel()

	stores := newFakeStores()
	service := newTestService(stores, "participant-1", "leader-1")

	identity := Identity{FirstName: "Maria", LastName: "Silva", Email: "maria@example.com"}
	if _, err := service.Register(context.Background(), RegisterInput{Identity: identity, Area: "4B"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := service.Promote(context.Background(), identity, "4B", "admin"); err != nil {
		t.Fatalf("Promote() error = %v", err)
	}

	// Drop the participant behind the registry's back.
	participant, _ := stores.activeParticipant(identity)
	if err := stores.DeleteParticipant(context.Background(), participant.ID); err != nil {
		t.Fatalf("DeleteParticipant() error = %v", err)
	}

	report, err := service.Repair(context.Background())
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if report.OrphanedRecords != 1 {
		t.Fatalf("OrphanedRecords = %d, want 1", report.OrphanedRecords)
	}
	// The record itself is left alone.
	if stores.activeLeaderCount() != 1 {
		t.Fatalf("active leader records = %d, want 1", stores.activeLeaderCount())
	}
}

func TestRepairCleanState(t *testing.T) {
	t.Parallel()

	stores := newFakeStores()
	service := newTestService(stores, "participant-1", "leader-1")

	identity := Identity{FirstName: "Maria", LastName: "Silva", Email: "maria@example.com"}
	if _, err := service.Register(context.Background(), RegisterInput{Identity: identity, Area: "4B"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := service.Promote(context.Background(), identity, "4B", "admin"); err != nil {
		t.Fatalf("Promote() error = %v", err)
	}

	report, err := service.Repair(context.Background())
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if report != (RepairReport{}) {
		t.Fatalf("report = %+v, want all zeroes on a consistent store", report)
	}
}
