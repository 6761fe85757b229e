package domain

import "database/sql"

// User is the tenant-domain actor (users table). Distinct from Principal,
// which is the pre-resolution identity-provider subject.
type User struct {
	UserID string `db:"user_id"` // UUID, PRIMARY KEY

	Email    string         `db:"email"` // NOT NULL, UNIQUE
	Name     sql.NullString `db:"name"`
	Status   string         `db:"status"` // default 'active'
	ImageURL sql.NullString `db:"image_url"`
}

// Principal is an authenticated identity-provider subject before any
// tenant-scoped resolution has happened.
type Principal struct {
	// SubjectID is the provider's opaque subject. For accounts created after
	// the identity migration it equals the internal user_id; for legacy
	// accounts it does not, and resolution goes through identity links.
	SubjectID string

	// Identities are linked provider sub-identities, in provider order.
	// The order is stable for the lifetime of a login session and the
	// first resolvable entry wins.
	Identities []ProviderIdentity
}

// ProviderIdentity is one linked sub-identity of a principal.
type ProviderIdentity struct {
	Provider       string // e.g. "google", "credentials"
	ProviderUserID string
}
