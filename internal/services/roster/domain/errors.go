package domain

import "errors"

var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write conflicted with existing uniqueness constraints.
	ErrConflict = errors.New("record conflict")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("roster store is not configured")
	// ErrIDGeneratorNotConfigured indicates an ID generator is required.
	ErrIDGeneratorNotConfigured = errors.New("roster id generator is not configured")
	// ErrIdentityIncomplete indicates first name, last name, or email is missing.
	ErrIdentityIncomplete = errors.New("identity requires first name, last name, and email")
	// ErrAreaRequired indicates an area code is required.
	ErrAreaRequired = errors.New("area code is required")
	// ErrActorRequired indicates the acting admin must be recorded.
	ErrActorRequired = errors.New("acting user is required")
	// ErrDuplicateIdentity indicates an active participant already exists for the identity.
	ErrDuplicateIdentity = errors.New("an active participant already exists for this identity")
	// ErrAlreadyLeadingElsewhere indicates the identity already leads a different area.
	ErrAlreadyLeadingElsewhere = errors.New("identity already leads another area")
	// ErrParticipantNotFound indicates no active participant matches the identity.
	ErrParticipantNotFound = errors.New("no active participant for identity")
	// ErrSameArea indicates a reassignment targets the participant's current area.
	ErrSameArea = errors.New("participant is already assigned to this area")
	// ErrStaleWatermark indicates a watermark compare-and-set lost to a
	// concurrent batch run.
	ErrStaleWatermark = errors.New("watermark advanced concurrently")
)
