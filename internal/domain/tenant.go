package domain

import "encoding/json"

// Tenant statuses (tenants.status).
const (
	TenantActive    = "active"
	TenantSuspended = "suspended"
	TenantDeleted   = "deleted"
)

// Tenant is an agency (corresponds to the tenants table).
type Tenant struct {
	TenantID   string `db:"tenant_id"` // UUID, PRIMARY KEY
	TenantName string `db:"tenant_name"`

	// InviteCode is a short random token used for self-service join.
	// UNIQUE; regenerated on collision at creation time.
	InviteCode string `db:"invite_code"`

	Status string `db:"status"` // DEFAULT 'active'

	// Config holds per-agency settings (pipeline labels, branding keys).
	Config json.RawMessage `db:"config"` // JSONB, nullable
}
