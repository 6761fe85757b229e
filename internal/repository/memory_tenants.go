package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"nestcrm-data/internal/domain"
)

// MemoryTenantsRepository supports tenant management when DB is disabled.
// NOTE: platform-level data (not per-tenant).
type MemoryTenantsRepository struct {
	mu      sync.RWMutex
	tenants map[string]domain.Tenant // tenantID -> Tenant
}

func NewMemoryTenantsRepository() *MemoryTenantsRepository {
	return &MemoryTenantsRepository{tenants: map[string]domain.Tenant{}}
}

var _ TenantsRepository = (*MemoryTenantsRepository)(nil)

func (r *MemoryTenantsRepository) GetTenant(_ context.Context, tenantID string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenants[tenantID]
	if !ok {
		return nil, fmt.Errorf("%w: tenant", domain.ErrNotFound)
	}
	return &t, nil
}

func (r *MemoryTenantsRepository) GetTenantByInviteCode(_ context.Context, inviteCode string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tenants {
		if t.InviteCode == inviteCode {
			out := t
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: tenant", domain.ErrNotFound)
}

func (r *MemoryTenantsRepository) ListTenants(_ context.Context, filter TenantFilters, page, size int) ([]*domain.Tenant, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]domain.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(t.TenantName), strings.ToLower(filter.Search)) {
			continue
		}
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].TenantName < all[j].TenantName
	})

	total := len(all)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	out := make([]*domain.Tenant, 0, end-start)
	for i := start; i < end; i++ {
		t := all[i]
		out = append(out, &t)
	}
	return out, total, nil
}

func (r *MemoryTenantsRepository) CreateTenant(_ context.Context, tenant *domain.Tenant) (string, error) {
	if tenant == nil || tenant.TenantName == "" || tenant.InviteCode == "" {
		return "", fmt.Errorf("%w: tenant_name and invite_code are required", domain.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tenants {
		if t.InviteCode == tenant.InviteCode {
			return "", fmt.Errorf("%w: invite_code", domain.ErrConflict)
		}
	}

	t := *tenant
	t.TenantID = uuid.NewString()
	if t.Status == "" {
		t.Status = domain.TenantActive
	}
	r.tenants[t.TenantID] = t
	return t.TenantID, nil
}

func (r *MemoryTenantsRepository) UpdateTenant(_ context.Context, tenantID string, tenant *domain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tenants[tenantID]
	if !ok {
		return fmt.Errorf("%w: tenant", domain.ErrNotFound)
	}
	if tenant.TenantName != "" {
		t.TenantName = tenant.TenantName
	}
	if tenant.Status != "" {
		t.Status = tenant.Status
	}
	if len(tenant.Config) > 0 {
		t.Config = tenant.Config
	}
	r.tenants[tenantID] = t
	return nil
}

func (r *MemoryTenantsRepository) SetTenantStatus(_ context.Context, tenantID string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[tenantID]
	if !ok {
		return fmt.Errorf("%w: tenant", domain.ErrNotFound)
	}
	t.Status = status
	r.tenants[tenantID] = t
	return nil
}
