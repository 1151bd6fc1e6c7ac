package domain

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeStores is an in-memory implementation of the three store boundaries
// used by the synchronizer tests.
type fakeStores struct {
	mu           sync.Mutex
	participants map[string]Participant
	leaders      map[string]LeaderRecord
	events       []ReassignmentEvent
	nextSeq      int64

	putParticipantErr    error
	updateParticipantErr error
	deactivateErr        error
	appendErr            error
}

func newFakeStores() *fakeStores {
	return &fakeStores{
		participants: make(map[string]Participant),
		leaders:      make(map[string]LeaderRecord),
	}
}

func (f *fakeStores) PutParticipant(ctx context.Context, participant Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putParticipantErr != nil {
		return f.putParticipantErr
	}
	if participant.Status == StatusActive {
		for _, existing := range f.participants {
			if existing.Status == StatusActive && existing.Identity.Equal(participant.Identity) {
				return ErrConflict
			}
		}
	}
	f.participants[participant.ID] = participant
	return nil
}

func (f *fakeStores) GetParticipant(ctx context.Context, participantID string) (Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	participant, ok := f.participants[participantID]
	if !ok {
		return Participant{}, ErrNotFound
	}
	return participant, nil
}

func (f *fakeStores) FindParticipantsByIdentity(ctx context.Context, identity Identity) ([]Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matches []Participant
	for _, participant := range f.participants {
		if participant.Identity.Equal(identity) {
			matches = append(matches, participant)
		}
	}
	return matches, nil
}

func (f *fakeStores) UpdateParticipant(ctx context.Context, participant Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateParticipantErr != nil {
		return f.updateParticipantErr
	}
	if _, ok := f.participants[participant.ID]; !ok {
		return ErrNotFound
	}
	f.participants[participant.ID] = participant
	return nil
}

func (f *fakeStores) DeleteParticipant(ctx context.Context, participantID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.participants[participantID]; !ok {
		return ErrNotFound
	}
	delete(f.participants, participantID)
	return nil
}

func (f *fakeStores) ListActiveParticipantsByArea(ctx context.Context, area string) ([]Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matches []Participant
	for _, participant := range f.participants {
		if participant.Status == StatusActive && participant.CurrentArea == area {
			matches = append(matches, participant)
		}
	}
	return matches, nil
}

func (f *fakeStores) ListLeaderFlaggedParticipants(ctx context.Context) ([]Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matches []Participant
	for _, participant := range f.participants {
		if participant.Status == StatusActive && participant.IsLeader {
			matches = append(matches, participant)
		}
	}
	return matches, nil
}

func (f *fakeStores) PutLeaderRecord(ctx context.Context, record LeaderRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record.Active {
		for _, existing := range f.leaders {
			if existing.Active && existing.Identity.Equal(record.Identity) {
				return ErrConflict
			}
		}
	}
	f.leaders[record.ID] = record
	return nil
}

func (f *fakeStores) GetActiveLeaderByIdentity(ctx context.Context, identity Identity) (LeaderRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range f.leaders {
		if record.Active && record.Identity.Equal(identity) {
			return record, nil
		}
	}
	return LeaderRecord{}, ErrNotFound
}

func (f *fakeStores) ListActiveLeadersByArea(ctx context.Context, area string) ([]LeaderRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matches []LeaderRecord
	for _, record := range f.leaders {
		if record.Active && record.AreaCode == area {
			matches = append(matches, record)
		}
	}
	return matches, nil
}

func (f *fakeStores) ListActiveLeaderRecords(ctx context.Context) ([]LeaderRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matches []LeaderRecord
	for _, record := range f.leaders {
		if record.Active {
			matches = append(matches, record)
		}
	}
	return matches, nil
}

func (f *fakeStores) DeactivateLeaderRecord(ctx context.Context, recordID string, removedBy string, removedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deactivateErr != nil {
		return f.deactivateErr
	}
	record, ok := f.leaders[recordID]
	if !ok || !record.Active {
		return ErrNotFound
	}
	record.Active = false
	record.RemovedBy = removedBy
	record.RemovedAt = removedAt
	f.leaders[recordID] = record
	return nil
}

func (f *fakeStores) AppendReassignmentEvent(ctx context.Context, event ReassignmentEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.nextSeq++
	event.Seq = f.nextSeq
	f.events = append(f.events, event)
	return nil
}

func (f *fakeStores) ListReassignmentEventsSince(ctx context.Context, area string, since time.Time) ([]ReassignmentEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matches []ReassignmentEvent
	for _, event := range f.events {
		if !event.ChangedAt.After(since) {
			continue
		}
		if area != "" && event.OldArea != area && event.NewArea != area {
			continue
		}
		matches = append(matches, event)
	}
	return matches, nil
}

func (f *fakeStores) activeParticipant(identity Identity) (Participant, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, participant := range f.participants {
		if participant.Status == StatusActive && participant.Identity.Equal(identity) {
			return participant, true
		}
	}
	return Participant{}, false
}

func (f *fakeStores) activeLeaderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, record := range f.leaders {
		if record.Active {
			count++
		}
	}
	return count
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func sequentialIDGenerator(ids ...string) func() (string, error) {
	index := 0
	return func() (string, error) {
		if index >= len(ids) {
			return "", errors.New("id sequence exhausted")
		}
		id := ids[index]
		index++
		return id, nil
	}
}

func discardLogf(string, ...any) {}
