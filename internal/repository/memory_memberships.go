package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"nestcrm-data/internal/domain"
)

// MemoryMembershipsRepository supports access control when DB is disabled.
type MemoryMembershipsRepository struct {
	mu          sync.RWMutex
	memberships map[string]domain.Membership // tenantID+"/"+userID -> Membership
}

func NewMemoryMembershipsRepository() *MemoryMembershipsRepository {
	return &MemoryMembershipsRepository{memberships: map[string]domain.Membership{}}
}

var _ MembershipsRepository = (*MemoryMembershipsRepository)(nil)

func membershipKey(tenantID, userID string) string {
	return tenantID + "/" + userID
}

func (r *MemoryMembershipsRepository) GetMembership(_ context.Context, tenantID, userID string) (*domain.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.memberships[membershipKey(tenantID, userID)]
	if !ok {
		return nil, fmt.Errorf("%w: membership", domain.ErrNotFound)
	}
	return &m, nil
}

func (r *MemoryMembershipsRepository) ListMembershipsForUser(_ context.Context, userID string) ([]*domain.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Membership{}
	for _, m := range r.memberships {
		if m.UserID == userID {
			cp := m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TenantID < out[j].TenantID
	})
	return out, nil
}

func (r *MemoryMembershipsRepository) CountActiveOwned(_ context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, m := range r.memberships {
		if m.UserID == userID && m.Role == domain.RoleOwner && m.Status == domain.MembershipActive {
			count++
		}
	}
	return count, nil
}

func (r *MemoryMembershipsRepository) CreateMembership(_ context.Context, m *domain.Membership) (string, error) {
	if m == nil || m.TenantID == "" || m.UserID == "" {
		return "", fmt.Errorf("%w: tenant_id and user_id are required", domain.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := membershipKey(m.TenantID, m.UserID)
	if _, exists := r.memberships[key]; exists {
		return "", fmt.Errorf("%w: membership", domain.ErrConflict)
	}

	cp := *m
	cp.MembershipID = uuid.NewString()
	if cp.Role == "" {
		cp.Role = domain.RoleMember
	}
	if cp.Status == "" {
		cp.Status = domain.MembershipActive
	}
	r.memberships[key] = cp
	return cp.MembershipID, nil
}

func (r *MemoryMembershipsRepository) SetMembershipStatus(_ context.Context, tenantID, userID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := membershipKey(tenantID, userID)
	m, ok := r.memberships[key]
	if !ok {
		return fmt.Errorf("%w: membership", domain.ErrNotFound)
	}
	m.Status = status
	r.memberships[key] = m
	return nil
}
