package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"nestcrm-data/internal/domain"
)

// MemoryContractsRepository supports contract reads and the lifecycle
// engine's side effects when DB is disabled.
type MemoryContractsRepository struct {
	mu        sync.RWMutex
	contracts map[string]domain.Contract // contractID -> Contract
}

func NewMemoryContractsRepository() *MemoryContractsRepository {
	return &MemoryContractsRepository{contracts: map[string]domain.Contract{}}
}

var _ ContractsRepository = (*MemoryContractsRepository)(nil)

func (r *MemoryContractsRepository) GetContract(_ context.Context, tenantID, contractID string) (*domain.Contract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contracts[contractID]
	if !ok || c.TenantID != tenantID {
		return nil, fmt.Errorf("%w: contract", domain.ErrNotFound)
	}
	return &c, nil
}

func (r *MemoryContractsRepository) GetContractByLeadID(_ context.Context, tenantID, leadID string) (*domain.Contract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.contracts {
		if c.TenantID == tenantID && c.LeadID == leadID {
			out := c
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: contract", domain.ErrNotFound)
}

func (r *MemoryContractsRepository) ListContracts(_ context.Context, tenantID string, page, size int) ([]*domain.Contract, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := []domain.Contract{}
	for _, c := range r.contracts {
		if c.TenantID == tenantID {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CustomID < all[j].CustomID
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

	out := make([]*domain.Contract, 0, end-start)
	for i := start; i < end; i++ {
		c := all[i]
		out = append(out, &c)
	}
	return out, total, nil
}

func (r *MemoryContractsRepository) CreateContract(_ context.Context, contract *domain.Contract) (string, error) {
	if contract == nil || contract.TenantID == "" || contract.LeadID == "" || contract.CustomID == "" {
		return "", fmt.Errorf("%w: tenant_id, lead_id and custom_id are required", domain.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.contracts {
		if c.TenantID == contract.TenantID && c.LeadID == contract.LeadID {
			return "", fmt.Errorf("%w: contract for lead", domain.ErrConflict)
		}
	}

	cp := *contract
	cp.ContractID = uuid.NewString()
	if cp.Status == "" {
		cp.Status = domain.ContractDraft
	}
	r.contracts[cp.ContractID] = cp
	return cp.ContractID, nil
}

func (r *MemoryContractsRepository) DeleteContractByLeadID(_ context.Context, tenantID, leadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.contracts {
		if c.TenantID == tenantID && c.LeadID == leadID {
			delete(r.contracts, id)
			return nil
		}
	}
	// delete-if-exists
	return nil
}
