package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"nestcrm-data/internal/domain"
)

// MemoryLeadsRepository supports lead management when DB is disabled.
type MemoryLeadsRepository struct {
	mu    sync.RWMutex
	leads map[string]domain.Lead // leadID -> Lead
}

func NewMemoryLeadsRepository() *MemoryLeadsRepository {
	return &MemoryLeadsRepository{leads: map[string]domain.Lead{}}
}

var _ LeadsRepository = (*MemoryLeadsRepository)(nil)

func (r *MemoryLeadsRepository) GetLead(_ context.Context, tenantID, leadID string) (*domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lead, ok := r.leads[leadID]
	if !ok || lead.TenantID != tenantID {
		// Out-of-tenant rows look exactly like missing rows.
		return nil, fmt.Errorf("%w: lead", domain.ErrNotFound)
	}
	return &lead, nil
}

func (r *MemoryLeadsRepository) ListLeads(_ context.Context, tenantID string, filter LeadFilters, page, size int) ([]*domain.Lead, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := []domain.Lead{}
	for _, lead := range r.leads {
		if lead.TenantID != tenantID {
			continue
		}
		if filter.Stage != "" && lead.Stage != filter.Stage {
			continue
		}
		if filter.AssignedUserID != "" && lead.AssignedUserID.String != filter.AssignedUserID {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(lead.Name), needle) &&
				!strings.Contains(strings.ToLower(lead.Phone.String), needle) &&
				!strings.Contains(strings.ToLower(lead.Email.String), needle) {
				continue
			}
		}
		all = append(all, lead)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
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

	out := make([]*domain.Lead, 0, end-start)
	for i := start; i < end; i++ {
		lead := all[i]
		out = append(out, &lead)
	}
	return out, total, nil
}

func (r *MemoryLeadsRepository) CreateLead(_ context.Context, lead *domain.Lead) (string, error) {
	if lead == nil || lead.TenantID == "" || lead.Name == "" {
		return "", fmt.Errorf("%w: tenant_id and name are required", domain.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *lead
	if cp.LeadID == "" {
		cp.LeadID = uuid.NewString()
	}
	if cp.Stage == "" {
		cp.Stage = domain.StageNew
	}
	r.leads[cp.LeadID] = cp
	return cp.LeadID, nil
}

func (r *MemoryLeadsRepository) UpdateLead(_ context.Context, tenantID, leadID string, patch *LeadPatch) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[leadID]
	if !ok || lead.TenantID != tenantID {
		return nil, fmt.Errorf("%w: lead", domain.ErrNotFound)
	}
	if patch == nil {
		return &lead, nil
	}

	if patch.Name != nil {
		lead.Name = *patch.Name
	}
	if patch.Phone != nil {
		lead.Phone = nullString(*patch.Phone)
	}
	if patch.Email != nil {
		lead.Email = nullString(*patch.Email)
	}
	if patch.Stage != nil {
		lead.Stage = *patch.Stage
	}
	if patch.AssignedUserID != nil {
		lead.AssignedUserID = nullString(*patch.AssignedUserID)
	}
	if patch.TransactionType != nil {
		lead.TransactionType = nullString(*patch.TransactionType)
	}
	if patch.MinPrice != nil {
		lead.MinPrice = sql.NullInt64{Int64: *patch.MinPrice, Valid: true}
	}
	if patch.MinDeposit != nil {
		lead.MinDeposit = sql.NullInt64{Int64: *patch.MinDeposit, Valid: true}
	}
	if patch.CustomFields != nil {
		lead.CustomFields = patch.CustomFields
	}

	r.leads[leadID] = lead
	return &lead, nil
}

func (r *MemoryLeadsRepository) DeleteLead(_ context.Context, tenantID, leadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[leadID]
	if !ok || lead.TenantID != tenantID {
		return fmt.Errorf("%w: lead", domain.ErrNotFound)
	}
	delete(r.leads, leadID)
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
