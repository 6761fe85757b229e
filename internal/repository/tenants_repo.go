package repository

import (
	"context"

	"nestcrm-data/internal/domain"
)

// TenantFilters narrows ListTenants.
type TenantFilters struct {
	Status string // active/suspended/deleted, empty = all
	Search string // substring match on tenant_name
}

// TenantsRepository is the platform-level tenant directory.
type TenantsRepository interface {
	GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error)
	// GetTenantByInviteCode backs the self-service join flow.
	GetTenantByInviteCode(ctx context.Context, inviteCode string) (*domain.Tenant, error)
	ListTenants(ctx context.Context, filter TenantFilters, page, size int) ([]*domain.Tenant, int, error)
	// CreateTenant returns the generated tenant_id. Returns domain.ErrConflict
	// when the invite code collides with an existing row.
	CreateTenant(ctx context.Context, tenant *domain.Tenant) (string, error)
	UpdateTenant(ctx context.Context, tenantID string, tenant *domain.Tenant) error
	SetTenantStatus(ctx context.Context, tenantID string, status string) error
}
