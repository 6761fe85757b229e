package domain

// Membership roles (memberships.role).
const (
	RoleOwner  = "OWNER"
	RoleMember = "MEMBER"
)

// Membership statuses (memberships.status). Only ACTIVE grants access.
const (
	MembershipActive  = "ACTIVE"
	MembershipInvited = "INVITED"
	MembershipLeft    = "LEFT"
)

// OwnerTenantQuota caps how many tenants a single user may own
// (role=OWNER, status=ACTIVE) at the same time.
const OwnerTenantQuota = 5

// Membership links a user to a tenant (memberships table).
// UNIQUE (tenant_id, user_id).
type Membership struct {
	MembershipID string `db:"membership_id"` // UUID, PRIMARY KEY
	TenantID     string `db:"tenant_id"`
	UserID       string `db:"user_id"`
	Role         string `db:"role"`
	Status       string `db:"status"`
}

// Grants reports whether this membership grants tenant access.
func (m *Membership) Grants() bool {
	return m != nil && m.Status == MembershipActive
}
