package domain

import "time"

// Status is a participant lifecycle state. Withdrawal flips the status
// instead of deleting the record; only an explicit admin hard-delete
// removes the row.
type Status string

const (
	// StatusActive marks a participant counted in rosters and diffs.
	StatusActive Status = "active"
	// StatusWithdrawn marks a participant who left without being deleted.
	StatusWithdrawn Status = "withdrawn"
)

// AreaUnassigned is the pseudo-area for participants without a count area.
const AreaUnassigned = "unassigned"

// Participant is one registration record. CurrentArea is a best-effort
// cache of the ledger-derived assignment; the ledger remains the source of
// truth when the two disagree.
type Participant struct {
	ID                 string
	Identity           Identity
	CurrentArea        string
	IsLeader           bool
	AssignedAreaLeader string
	Status             Status
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// LeaderRecord is the denormalized registry entry binding an identity to
// the one area it actively leads. A deactivated record is never
// reactivated; a later promotion creates a new record.
type LeaderRecord struct {
	ID         string
	AreaCode   string
	Identity   Identity
	Active     bool
	AssignedBy string
	AssignedAt time.Time
	RemovedBy  string
	RemovedAt  time.Time
}

// ReassignmentEvent is one immutable ledger entry recording an area change
// for an identity. Seq is the store-assigned insertion order used to break
// ChangedAt ties.
type ReassignmentEvent struct {
	ID        string
	Seq       int64
	Identity  Identity
	OldArea   string
	NewArea   string
	ChangedBy string
	ChangedAt time.Time
}

// Move is the collapsed, effective source-to-destination pair for one
// identity inside a reconciliation window. LastChangedAt is the timestamp
// of the chain's final hop.
type Move struct {
	Identity      Identity
	FromArea      string
	ToArea        string
	LastChangedAt time.Time
}

// AreaDiff is the net roster change for one area inside a window.
type AreaDiff struct {
	Area       string
	Arrivals   []Move
	Departures []Move
}

// Empty reports whether the diff carries no net change.
func (d AreaDiff) Empty() bool {
	return len(d.Arrivals) == 0 && len(d.Departures) == 0
}
