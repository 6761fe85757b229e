package repository

import (
	"context"

	"nestcrm-data/internal/domain"
)

// MembershipsRepository maps (tenant, user) pairs to role+status grants.
type MembershipsRepository interface {
	// GetMembership returns domain.ErrNotFound when no row exists for the pair.
	GetMembership(ctx context.Context, tenantID, userID string) (*domain.Membership, error)
	ListMembershipsForUser(ctx context.Context, userID string) ([]*domain.Membership, error)
	// CountActiveOwned counts memberships with role=OWNER and status=ACTIVE,
	// used for the owner tenant quota.
	CountActiveOwned(ctx context.Context, userID string) (int, error)
	// CreateMembership returns domain.ErrConflict when the (tenant, user)
	// pair already exists.
	CreateMembership(ctx context.Context, m *domain.Membership) (string, error)
	SetMembershipStatus(ctx context.Context, tenantID, userID, status string) error
}
