package repository

import (
	"context"
	"database/sql"
	"fmt"

	"nestcrm-data/internal/domain"
)

// PostgresContractsRepository implements ContractsRepository on the
// contracts table. Tenant-scoped like the leads repository.
type PostgresContractsRepository struct {
	db *sql.DB
}

func NewPostgresContractsRepository(db *sql.DB) *PostgresContractsRepository {
	return &PostgresContractsRepository{db: db}
}

var _ ContractsRepository = (*PostgresContractsRepository)(nil)

const contractColumns = `
	contract_id::text,
	tenant_id::text,
	lead_id::text,
	custom_id,
	COALESCE(status, 'DRAFT') as status,
	transaction_type,
	COALESCE(price, 0) as price,
	COALESCE(deposit, 0) as deposit,
	COALESCE(rent, 0) as rent
`

func scanContract(row interface{ Scan(...any) error }) (*domain.Contract, error) {
	var c domain.Contract
	err := row.Scan(
		&c.ContractID,
		&c.TenantID,
		&c.LeadID,
		&c.CustomID,
		&c.Status,
		&c.TransactionType,
		&c.Price,
		&c.Deposit,
		&c.Rent,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresContractsRepository) GetContract(ctx context.Context, tenantID, contractID string) (*domain.Contract, error) {
	if tenantID == "" || contractID == "" {
		return nil, fmt.Errorf("%w: tenant_id and contract_id are required", domain.ErrValidation)
	}

	query := `SELECT ` + contractColumns + ` FROM contracts WHERE tenant_id = $1::uuid AND contract_id = $2::uuid`
	contract, err := scanContract(r.db.QueryRowContext(ctx, query, tenantID, contractID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: contract", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return contract, nil
}

func (r *PostgresContractsRepository) GetContractByLeadID(ctx context.Context, tenantID, leadID string) (*domain.Contract, error) {
	if tenantID == "" || leadID == "" {
		return nil, fmt.Errorf("%w: tenant_id and lead_id are required", domain.ErrValidation)
	}

	query := `SELECT ` + contractColumns + ` FROM contracts WHERE tenant_id = $1::uuid AND lead_id = $2::uuid`
	contract, err := scanContract(r.db.QueryRowContext(ctx, query, tenantID, leadID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: contract", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get contract by lead: %w", err)
	}
	return contract, nil
}

func (r *PostgresContractsRepository) ListContracts(ctx context.Context, tenantID string, page, size int) ([]*domain.Contract, int, error) {
	if tenantID == "" {
		return nil, 0, fmt.Errorf("%w: tenant_id is required", domain.ErrValidation)
	}
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	offset := (page - 1) * size

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contracts WHERE tenant_id = $1::uuid`, tenantID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count contracts: %w", err)
	}

	query := `SELECT ` + contractColumns + ` FROM contracts WHERE tenant_id = $1::uuid ORDER BY custom_id LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, tenantID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	contracts := []*domain.Contract{}
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan contract: %w", err)
		}
		contracts = append(contracts, contract)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate contracts: %w", err)
	}

	return contracts, total, nil
}

func (r *PostgresContractsRepository) CreateContract(ctx context.Context, contract *domain.Contract) (string, error) {
	if contract == nil {
		return "", fmt.Errorf("%w: contract is required", domain.ErrValidation)
	}
	if contract.TenantID == "" || contract.LeadID == "" {
		return "", fmt.Errorf("%w: tenant_id and lead_id are required", domain.ErrValidation)
	}
	if contract.CustomID == "" {
		return "", fmt.Errorf("%w: custom_id is required", domain.ErrValidation)
	}

	status := contract.Status
	if status == "" {
		status = domain.ContractDraft
	}

	var contractID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO contracts (tenant_id, lead_id, custom_id, status, transaction_type, price, deposit, rent)
		 VALUES ($1::uuid, $2::uuid, $3, $4, NULLIF($5, ''), $6, $7, $8)
		 RETURNING contract_id::text`,
		contract.TenantID,
		contract.LeadID,
		contract.CustomID,
		status,
		contract.TransactionType.String,
		contract.Price,
		contract.Deposit,
		contract.Rent,
	).Scan(&contractID)
	if err != nil {
		if isUniqueViolation(err) {
			// lead_id carries a UNIQUE constraint: a concurrent SUCCESS
			// transition already created the contract.
			return "", fmt.Errorf("%w: contract for lead", domain.ErrConflict)
		}
		return "", fmt.Errorf("failed to create contract: %w", err)
	}
	return contractID, nil
}

func (r *PostgresContractsRepository) DeleteContractByLeadID(ctx context.Context, tenantID, leadID string) error {
	if tenantID == "" || leadID == "" {
		return fmt.Errorf("%w: tenant_id and lead_id are required", domain.ErrValidation)
	}

	// Delete-if-exists: zero rows affected is fine.
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM contracts WHERE tenant_id = $1::uuid AND lead_id = $2::uuid`,
		tenantID, leadID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	return nil
}
