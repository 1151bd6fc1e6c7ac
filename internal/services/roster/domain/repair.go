package domain

import (
	"context"
	"errors"
)

// RepairReport summarizes one consistency repair pass.
type RepairReport struct {
	// FlagsSet counts participants whose leadership flags were rewritten to
	// match an active leader record.
	FlagsSet int
	// FlagsCleared counts participants flagged as leaders with no active
	// leader record backing the flag.
	FlagsCleared int
	// OrphanedRecords counts active leader records with no active
	// participant to carry the flag. These are reported, not mutated: the
	// registry side of a cascade is the deliberately durable one.
	OrphanedRecords int
}

// Repair reconciles participant leadership flags against the leader
// registry. The registry is authoritative: a participant's IsLeader and
// AssignedAreaLeader are rewritten to match the identity's active leader
// record, and cleared when no such record exists. Crashes between the two
// halves of a promote/demote cascade leave exactly the states this pass
// heals.
func (s *Service) Repair(ctx context.Context) (RepairReport, error) {
	if s == nil || s.participants == nil || s.leaders == nil {
		return RepairReport{}, ErrStoreNotConfigured
	}

	report := RepairReport{}

	records, err := s.leaders.ListActiveLeaderRecords(ctx)
	if err != nil {
		return RepairReport{}, err
	}
	ledAreas := make(map[string]string, len(records))
	for _, record := range records {
		ledAreas[record.Identity.Key()] = record.AreaCode
	}

	for _, record := range records {
		participant, err := s.findActiveParticipant(ctx, record.Identity)
		if err != nil {
			if errors.Is(err, ErrParticipantNotFound) {
				report.OrphanedRecords++
				s.warnf("active leader record %s (area %s) has no active participant", record.ID, record.AreaCode)
				continue
			}
			return RepairReport{}, err
		}
		if participant.IsLeader && participant.AssignedAreaLeader == record.AreaCode {
			continue
		}
		participant.IsLeader = true
		participant.AssignedAreaLeader = record.AreaCode
		participant.UpdatedAt = s.nowUTC()
		if err := s.participants.UpdateParticipant(ctx, participant); err != nil {
			return report, err
		}
		report.FlagsSet++
	}

	flagged, err := s.participants.ListLeaderFlaggedParticipants(ctx)
	if err != nil {
		return report, err
	}
	for _, participant := range flagged {
		if _, leads := ledAreas[participant.Identity.Key()]; leads {
			continue
		}
		participant.IsLeader = false
		participant.AssignedAreaLeader = ""
		participant.UpdatedAt = s.nowUTC()
		if err := s.participants.UpdateParticipant(ctx, participant); err != nil {
			return report, err
		}
		report.FlagsCleared++
	}

	return report, nil
}
