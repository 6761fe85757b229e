package domain

// IdentityLink maps an external provider sub-identity to an internal user
// (identity_links table). At most one user per (provider, provider_user_id).
// These rows exist for accounts that predate the identity migration, where
// the provider subject and the internal user id diverge.
type IdentityLink struct {
	LinkID         string `db:"link_id"` // UUID, PRIMARY KEY
	Provider       string `db:"provider"`
	ProviderUserID string `db:"provider_user_id"` // UNIQUE with provider
	UserID         string `db:"user_id"`
}
