package domain

import "strings"

// Identity is the business identifier for a person: first name, last name,
// and email, compared after trimming and lower-casing each field. Two
// records with equal normalized identities describe the same person even
// when the raw spellings differ.
type Identity struct {
	FirstName string
	LastName  string
	Email     string
}

// NewIdentity builds an identity from raw input, trimming surrounding
// whitespace but preserving the original casing for display.
func NewIdentity(firstName, lastName, email string) Identity {
	return Identity{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Email:     strings.TrimSpace(email),
	}
}

// Normalized returns the comparison form of the identity.
func (i Identity) Normalized() Identity {
	return Identity{
		FirstName: strings.ToLower(strings.TrimSpace(i.FirstName)),
		LastName:  strings.ToLower(strings.TrimSpace(i.LastName)),
		Email:     strings.ToLower(strings.TrimSpace(i.Email)),
	}
}

// Key returns a stable map key for the normalized identity.
func (i Identity) Key() string {
	n := i.Normalized()
	return n.FirstName + "\x1f" + n.LastName + "\x1f" + n.Email
}

// Equal reports whether both identities describe the same person.
func (i Identity) Equal(other Identity) bool {
	return i.Key() == other.Key()
}

// IsZero reports whether every identity field is empty after trimming.
func (i Identity) IsZero() bool {
	n := i.Normalized()
	return n.FirstName == "" && n.LastName == "" && n.Email == ""
}

// Validate checks that all three identity fields are present.
func (i Identity) Validate() error {
	n := i.Normalized()
	if n.FirstName == "" || n.LastName == "" || n.Email == "" {
		return ErrIdentityIncomplete
	}
	return nil
}

// DisplayName returns the person's name as shown in notification copy.
func (i Identity) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(i.FirstName) + " " + strings.TrimSpace(i.LastName))
	if name == "" {
		return strings.TrimSpace(i.Email)
	}
	return name
}
