package domain

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/fieldcount/roster/internal/platform/id"
)

// ParticipantStore is the persistence boundary for participant records.
type ParticipantStore interface {
	PutParticipant(ctx context.Context, participant Participant) error
	GetParticipant(ctx context.Context, participantID string) (Participant, error)
	FindParticipantsByIdentity(ctx context.Context, identity Identity) ([]Participant, error)
	UpdateParticipant(ctx context.Context, participant Participant) error
	DeleteParticipant(ctx context.Context, participantID string) error
	ListActiveParticipantsByArea(ctx context.Context, area string) ([]Participant, error)
	ListLeaderFlaggedParticipants(ctx context.Context) ([]Participant, error)
}

// LeaderStore is the persistence boundary for the leader registry.
type LeaderStore interface {
	PutLeaderRecord(ctx context.Context, record LeaderRecord) error
	GetActiveLeaderByIdentity(ctx context.Context, identity Identity) (LeaderRecord, error)
	ListActiveLeadersByArea(ctx context.Context, area string) ([]LeaderRecord, error)
	ListActiveLeaderRecords(ctx context.Context) ([]LeaderRecord, error)
	DeactivateLeaderRecord(ctx context.Context, recordID string, removedBy string, removedAt time.Time) error
}

// LedgerStore is the persistence boundary for the append-only reassignment
// ledger. ListReassignmentEventsSince returns events strictly newer than
// since, ordered by ChangedAt ascending with ties broken by insertion
// order; an empty area returns the unfiltered ledger.
type LedgerStore interface {
	AppendReassignmentEvent(ctx context.Context, event ReassignmentEvent) error
	ListReassignmentEventsSince(ctx context.Context, area string, since time.Time) ([]ReassignmentEvent, error)
}

// Service keeps the participant table and the leader registry consistent
// across promote, demote, reassignment, and delete cascades. The two
// stores have no shared transaction, so cascades apply the registry write
// first and treat the participant flag update as a required follow-up; a
// failure there is logged and left for the repair pass.
type Service struct {
	participants ParticipantStore
	leaders      LeaderStore
	ledger       LedgerStore
	clock        func() time.Time
	newID        func() (string, error)
	logf         func(format string, args ...any)
}

// NewService constructs the roster synchronizer.
func NewService(participants ParticipantStore, leaders LeaderStore, ledger LedgerStore, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		participants: participants,
		leaders:      leaders,
		ledger:       ledger,
		clock:        clock,
		newID:        newID,
		logf:         log.Printf,
	}
}

// SetLogf overrides the warning logger, primarily for tests.
func (s *Service) SetLogf(logf func(format string, args ...any)) {
	if s == nil || logf == nil {
		return
	}
	s.logf = logf
}

// RegisterInput describes one new participant registration.
type RegisterInput struct {
	Identity Identity
	Area     string
}

// Register creates an active participant, rejecting a second active record
// for the same normalized identity.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Participant, error) {
	if s == nil || s.participants == nil {
		return Participant{}, ErrStoreNotConfigured
	}
	identity := NewIdentity(input.Identity.FirstName, input.Identity.LastName, input.Identity.Email)
	if err := identity.Validate(); err != nil {
		return Participant{}, err
	}
	area := strings.TrimSpace(input.Area)
	if area == "" {
		area = AreaUnassigned
	}

	existing, err := s.participants.FindParticipantsByIdentity(ctx, identity)
	if err != nil {
		return Participant{}, err
	}
	for _, record := range existing {
		if record.Status == StatusActive {
			return Participant{}, ErrDuplicateIdentity
		}
	}

	participantID, err := s.generateID()
	if err != nil {
		return Participant{}, err
	}
	now := s.nowUTC()
	participant := Participant{
		ID:          participantID,
		Identity:    identity,
		CurrentArea: area,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.participants.PutParticipant(ctx, participant); err != nil {
		if errors.Is(err, ErrConflict) {
			return Participant{}, ErrDuplicateIdentity
		}
		return Participant{}, err
	}
	return participant, nil
}

// Promote makes the identity the active leader of area. It fails with
// ErrAlreadyLeadingElsewhere when the identity holds an active leader
// record for a different area; promoting the current leader of the same
// area returns the existing record unchanged.
func (s *Service) Promote(ctx context.Context, identity Identity, area string, actor string) (LeaderRecord, error) {
	if s == nil || s.leaders == nil || s.participants == nil {
		return LeaderRecord{}, ErrStoreNotConfigured
	}
	identity = NewIdentity(identity.FirstName, identity.LastName, identity.Email)
	if err := identity.Validate(); err != nil {
		return LeaderRecord{}, err
	}
	area = strings.TrimSpace(area)
	if area == "" {
		return LeaderRecord{}, ErrAreaRequired
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return LeaderRecord{}, ErrActorRequired
	}

	current, err := s.leaders.GetActiveLeaderByIdentity(ctx, identity)
	switch {
	case err == nil:
		if current.AreaCode == area {
			return current, nil
		}
		return LeaderRecord{}, ErrAlreadyLeadingElsewhere
	case errors.Is(err, ErrNotFound):
	default:
		return LeaderRecord{}, err
	}

	recordID, err := s.generateID()
	if err != nil {
		return LeaderRecord{}, err
	}
	record := LeaderRecord{
		ID:         recordID,
		AreaCode:   area,
		Identity:   identity,
		Active:     true,
		AssignedBy: actor,
		AssignedAt: s.nowUTC(),
	}
	if err := s.leaders.PutLeaderRecord(ctx, record); err != nil {
		if errors.Is(err, ErrConflict) {
			return LeaderRecord{}, ErrAlreadyLeadingElsewhere
		}
		return LeaderRecord{}, err
	}

	s.setParticipantLeadership(ctx, identity, true, area)
	return record, nil
}

// Demote deactivates the identity's active leader record and clears the
// participant's leadership flags. Demoting an identity with no active
// record is a success: the flags are still cleared, which also heals a
// half-applied earlier cascade.
func (s *Service) Demote(ctx context.Context, identity Identity, actor string) error {
	if s == nil || s.leaders == nil || s.participants == nil {
		return ErrStoreNotConfigured
	}
	identity = NewIdentity(identity.FirstName, identity.LastName, identity.Email)
	if err := identity.Validate(); err != nil {
		return err
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrActorRequired
	}

	record, err := s.leaders.GetActiveLeaderByIdentity(ctx, identity)
	switch {
	case err == nil:
		if err := s.leaders.DeactivateLeaderRecord(ctx, record.ID, actor, s.nowUTC()); err != nil {
			return err
		}
	case errors.Is(err, ErrNotFound):
	default:
		return err
	}

	s.setParticipantLeadership(ctx, identity, false, "")
	return nil
}

// DeleteLeaderRecord is the registry-side cascade: deactivate the active
// leader record and reset the participant's flags.
func (s *Service) DeleteLeaderRecord(ctx context.Context, identity Identity, actor string) error {
	return s.Demote(ctx, identity, actor)
}

// Withdraw marks the identity's active participant withdrawn and cascades
// a demotion when the identity leads an area.
func (s *Service) Withdraw(ctx context.Context, identity Identity, actor string) error {
	return s.removeParticipant(ctx, identity, actor, false)
}

// DeleteParticipant removes the identity's participant row entirely and
// cascades a demotion when the identity leads an area. Deleting a
// participant with no leader role is a no-op cascade and still succeeds.
func (s *Service) DeleteParticipant(ctx context.Context, identity Identity, actor string) error {
	return s.removeParticipant(ctx, identity, actor, true)
}

func (s *Service) removeParticipant(ctx context.Context, identity Identity, actor string, hard bool) error {
	if s == nil || s.participants == nil || s.leaders == nil {
		return ErrStoreNotConfigured
	}
	identity = NewIdentity(identity.FirstName, identity.LastName, identity.Email)
	if err := identity.Validate(); err != nil {
		return err
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrActorRequired
	}

	participant, err := s.findActiveParticipant(ctx, identity)
	if err != nil {
		return err
	}

	if hard {
		if err := s.participants.DeleteParticipant(ctx, participant.ID); err != nil {
			return err
		}
	} else {
		participant.Status = StatusWithdrawn
		participant.IsLeader = false
		participant.AssignedAreaLeader = ""
		participant.UpdatedAt = s.nowUTC()
		if err := s.participants.UpdateParticipant(ctx, participant); err != nil {
			return err
		}
	}

	record, err := s.leaders.GetActiveLeaderByIdentity(ctx, identity)
	switch {
	case err == nil:
		if err := s.leaders.DeactivateLeaderRecord(ctx, record.ID, actor, s.nowUTC()); err != nil {
			s.warnf("participant removed but leader record %s deactivation failed: %v", record.ID, err)
		}
	case errors.Is(err, ErrNotFound):
	default:
		s.warnf("participant removed but leader registry lookup failed: %v", err)
	}
	return nil
}

// ReassignInput describes one admin-triggered area move.
type ReassignInput struct {
	Identity Identity
	NewArea  string
	Actor    string
	// KeepLeadership moves an active leader's registry binding to the new
	// area; when false a leader loses the role on reassignment.
	KeepLeadership bool
}

// Reassign moves the identity's active participant to a new area,
// appending the ledger event first: the ledger is the source of truth and
// the participant's CurrentArea is a best-effort cache, so a failed cache
// update is logged and the operation still succeeds.
func (s *Service) Reassign(ctx context.Context, input ReassignInput) (ReassignmentEvent, error) {
	if s == nil || s.participants == nil || s.leaders == nil || s.ledger == nil {
		return ReassignmentEvent{}, ErrStoreNotConfigured
	}
	identity := NewIdentity(input.Identity.FirstName, input.Identity.LastName, input.Identity.Email)
	if err := identity.Validate(); err != nil {
		return ReassignmentEvent{}, err
	}
	newArea := strings.TrimSpace(input.NewArea)
	if newArea == "" {
		return ReassignmentEvent{}, ErrAreaRequired
	}
	actor := strings.TrimSpace(input.Actor)
	if actor == "" {
		return ReassignmentEvent{}, ErrActorRequired
	}

	participant, err := s.findActiveParticipant(ctx, identity)
	if err != nil {
		return ReassignmentEvent{}, err
	}
	oldArea := participant.CurrentArea
	if oldArea == "" {
		oldArea = AreaUnassigned
	}
	if oldArea == newArea {
		return ReassignmentEvent{}, ErrSameArea
	}

	eventID, err := s.generateID()
	if err != nil {
		return ReassignmentEvent{}, err
	}
	event := ReassignmentEvent{
		ID:        eventID,
		Identity:  identity,
		OldArea:   oldArea,
		NewArea:   newArea,
		ChangedBy: actor,
		ChangedAt: s.nowUTC(),
	}
	if err := s.ledger.AppendReassignmentEvent(ctx, event); err != nil {
		return ReassignmentEvent{}, err
	}

	participant.CurrentArea = newArea
	participant.UpdatedAt = s.nowUTC()
	if err := s.participants.UpdateParticipant(ctx, participant); err != nil {
		s.warnf("reassignment %s recorded but participant %s area update failed: %v", event.ID, participant.ID, err)
	}

	if err := s.carryLeadership(ctx, identity, newArea, actor, input.KeepLeadership); err != nil {
		return ReassignmentEvent{}, err
	}
	return event, nil
}

// carryLeadership resolves a reassigned leader's registry binding: either
// move it into the destination area or drop the role entirely.
func (s *Service) carryLeadership(ctx context.Context, identity Identity, newArea string, actor string, keep bool) error {
	record, err := s.leaders.GetActiveLeaderByIdentity(ctx, identity)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.leaders.DeactivateLeaderRecord(ctx, record.ID, actor, s.nowUTC()); err != nil {
		return err
	}
	if !keep {
		s.setParticipantLeadership(ctx, identity, false, "")
		return nil
	}

	recordID, err := s.generateID()
	if err != nil {
		return err
	}
	next := LeaderRecord{
		ID:         recordID,
		AreaCode:   newArea,
		Identity:   identity,
		Active:     true,
		AssignedBy: actor,
		AssignedAt: s.nowUTC(),
	}
	if err := s.leaders.PutLeaderRecord(ctx, next); err != nil {
		return err
	}
	s.setParticipantLeadership(ctx, identity, true, newArea)
	return nil
}

// FindByIdentity returns every participant record matching the normalized
// identity, regardless of status. Matching is case-insensitive and
// whitespace-trimmed on all three fields; email alone is not an identity.
func (s *Service) FindByIdentity(ctx context.Context, firstName, lastName, email string) ([]Participant, error) {
	if s == nil || s.participants == nil {
		return nil, ErrStoreNotConfigured
	}
	identity := NewIdentity(firstName, lastName, email)
	if identity.IsZero() {
		return nil, ErrIdentityIncomplete
	}
	return s.participants.FindParticipantsByIdentity(ctx, identity)
}

func (s *Service) findActiveParticipant(ctx context.Context, identity Identity) (Participant, error) {
	matches, err := s.participants.FindParticipantsByIdentity(ctx, identity)
	if err != nil {
		return Participant{}, err
	}
	for _, participant := range matches {
		if participant.Status == StatusActive {
			return participant, nil
		}
	}
	return Participant{}, ErrParticipantNotFound
}

// setParticipantLeadership applies the follow-up half of a registry
// cascade. Failures are logged, not returned: the registry write already
// happened and the repair pass reconciles the flags.
func (s *Service) setParticipantLeadership(ctx context.Context, identity Identity, isLeader bool, area string) {
	participant, err := s.findActiveParticipant(ctx, identity)
	if err != nil {
		s.warnf("leader registry updated but participant lookup for %s failed: %v", identity.Email, err)
		return
	}
	participant.IsLeader = isLeader
	participant.AssignedAreaLeader = area
	participant.UpdatedAt = s.nowUTC()
	if err := s.participants.UpdateParticipant(ctx, participant); err != nil {
		s.warnf("leader registry updated but participant %s flag update failed: %v", participant.ID, err)
	}
}

func (s *Service) generateID() (string, error) {
	if s.newID == nil {
		return "", ErrIDGeneratorNotConfigured
	}
	return s.newID()
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func (s *Service) warnf(format string, args ...any) {
	if s == nil || s.logf == nil {
		return
	}
	s.logf("WARN "+format, args...)
}
