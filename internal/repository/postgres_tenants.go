package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"nestcrm-data/internal/domain"
)

// PostgresTenantsRepository implements TenantsRepository on the tenants table.
type PostgresTenantsRepository struct {
	db *sql.DB
}

func NewPostgresTenantsRepository(db *sql.DB) *PostgresTenantsRepository {
	return &PostgresTenantsRepository{db: db}
}

var _ TenantsRepository = (*PostgresTenantsRepository)(nil)

const tenantColumns = `
	tenant_id::text,
	tenant_name,
	invite_code,
	COALESCE(status, 'active') as status,
	COALESCE(config, '{}'::jsonb) as config
`

func scanTenant(row interface{ Scan(...any) error }) (*domain.Tenant, error) {
	var tenant domain.Tenant
	var configRaw json.RawMessage
	err := row.Scan(
		&tenant.TenantID,
		&tenant.TenantName,
		&tenant.InviteCode,
		&tenant.Status,
		&configRaw,
	)
	if err != nil {
		return nil, err
	}
	tenant.Config = configRaw
	return &tenant, nil
}

func (r *PostgresTenantsRepository) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant_id is required", domain.ErrValidation)
	}

	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE tenant_id = $1::uuid`
	tenant, err := scanTenant(r.db.QueryRowContext(ctx, query, tenantID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: tenant", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return tenant, nil
}

func (r *PostgresTenantsRepository) GetTenantByInviteCode(ctx context.Context, inviteCode string) (*domain.Tenant, error) {
	if inviteCode == "" {
		return nil, fmt.Errorf("%w: invite_code is required", domain.ErrValidation)
	}

	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE invite_code = $1`
	tenant, err := scanTenant(r.db.QueryRowContext(ctx, query, inviteCode))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: tenant", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tenant by invite code: %w", err)
	}
	return tenant, nil
}

func (r *PostgresTenantsRepository) ListTenants(ctx context.Context, filter TenantFilters, page, size int) ([]*domain.Tenant, int, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	offset := (page - 1) * size

	where := []string{}
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("tenant_name ILIKE $%d", argIdx))
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM tenants %s`, whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tenants: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM tenants %s ORDER BY tenant_name LIMIT $%d OFFSET $%d`,
		tenantColumns, whereClause, argIdx, argIdx+1)
	args = append(args, size, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	tenants := []*domain.Tenant{}
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, tenant)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate tenants: %w", err)
	}

	return tenants, total, nil
}

func (r *PostgresTenantsRepository) CreateTenant(ctx context.Context, tenant *domain.Tenant) (string, error) {
	if tenant == nil {
		return "", fmt.Errorf("%w: tenant is required", domain.ErrValidation)
	}
	if tenant.TenantName == "" {
		return "", fmt.Errorf("%w: tenant_name is required", domain.ErrValidation)
	}
	if tenant.InviteCode == "" {
		return "", fmt.Errorf("%w: invite_code is required", domain.ErrValidation)
	}

	status := tenant.Status
	if status == "" {
		status = domain.TenantActive
	}
	configArg := "{}"
	if len(tenant.Config) > 0 {
		configArg = string(tenant.Config)
	}

	var tenantID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tenants (tenant_name, invite_code, status, config)
		 VALUES ($1, $2, $3, $4::jsonb)
		 RETURNING tenant_id::text`,
		tenant.TenantName,
		tenant.InviteCode,
		status,
		configArg,
	).Scan(&tenantID)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%w: invite_code", domain.ErrConflict)
		}
		return "", fmt.Errorf("failed to create tenant: %w", err)
	}

	return tenantID, nil
}

func (r *PostgresTenantsRepository) UpdateTenant(ctx context.Context, tenantID string, tenant *domain.Tenant) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenant_id is required", domain.ErrValidation)
	}
	if tenant == nil {
		return fmt.Errorf("%w: tenant is required", domain.ErrValidation)
	}

	updates := []string{}
	args := []any{tenantID}
	argIdx := 2

	if tenant.TenantName != "" {
		updates = append(updates, fmt.Sprintf("tenant_name = $%d", argIdx))
		args = append(args, tenant.TenantName)
		argIdx++
	}
	if tenant.Status != "" {
		updates = append(updates, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, tenant.Status)
		argIdx++
	}
	if len(tenant.Config) > 0 {
		updates = append(updates, fmt.Sprintf("config = $%d::jsonb", argIdx))
		args = append(args, string(tenant.Config))
		argIdx++
	}

	if len(updates) == 0 {
		return fmt.Errorf("%w: no fields to update", domain.ErrValidation)
	}

	query := fmt.Sprintf(`UPDATE tenants SET %s WHERE tenant_id = $1::uuid`, strings.Join(updates, ", "))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: tenant '%s'", domain.ErrNotFound, tenantID)
	}

	return nil
}

func (r *PostgresTenantsRepository) SetTenantStatus(ctx context.Context, tenantID string, status string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenant_id is required", domain.ErrValidation)
	}
	if status == "" {
		return fmt.Errorf("%w: status is required", domain.ErrValidation)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET status = $2 WHERE tenant_id = $1::uuid`,
		tenantID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to set tenant status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: tenant '%s'", domain.ErrNotFound, tenantID)
	}

	return nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
