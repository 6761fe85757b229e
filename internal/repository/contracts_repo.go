package repository

import (
	"context"

	"nestcrm-data/internal/domain"
)

// ContractsRepository is tenant-scoped like LeadsRepository. Writes come
// exclusively from the lead lifecycle engine.
type ContractsRepository interface {
	GetContract(ctx context.Context, tenantID, contractID string) (*domain.Contract, error)
	// GetContractByLeadID returns domain.ErrNotFound when the lead has no
	// contract. lead_id is effectively a 1:1 key.
	GetContractByLeadID(ctx context.Context, tenantID, leadID string) (*domain.Contract, error)
	ListContracts(ctx context.Context, tenantID string, page, size int) ([]*domain.Contract, int, error)
	CreateContract(ctx context.Context, contract *domain.Contract) (string, error)
	// DeleteContractByLeadID is delete-if-exists: deleting a lead with no
	// contract is not an error.
	DeleteContractByLeadID(ctx context.Context, tenantID, leadID string) error
}
