package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"nestcrm-data/internal/domain"
)

// PostgresLeadsRepository implements LeadsRepository on the leads table.
// Every statement filters by tenant_id; a lead id from another tenant
// behaves exactly like a missing row.
type PostgresLeadsRepository struct {
	db *sql.DB
}

func NewPostgresLeadsRepository(db *sql.DB) *PostgresLeadsRepository {
	return &PostgresLeadsRepository{db: db}
}

var _ LeadsRepository = (*PostgresLeadsRepository)(nil)

const leadColumns = `
	lead_id::text,
	tenant_id::text,
	name,
	phone,
	email,
	COALESCE(stage, 'NEW') as stage,
	assigned_user_id::text,
	transaction_type,
	min_price,
	min_deposit,
	COALESCE(custom_fields, '{}'::jsonb) as custom_fields
`

func scanLead(row interface{ Scan(...any) error }) (*domain.Lead, error) {
	var lead domain.Lead
	err := row.Scan(
		&lead.LeadID,
		&lead.TenantID,
		&lead.Name,
		&lead.Phone,
		&lead.Email,
		&lead.Stage,
		&lead.AssignedUserID,
		&lead.TransactionType,
		&lead.MinPrice,
		&lead.MinDeposit,
		&lead.CustomFields,
	)
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *PostgresLeadsRepository) GetLead(ctx context.Context, tenantID, leadID string) (*domain.Lead, error) {
	if tenantID == "" || leadID == "" {
		return nil, fmt.Errorf("%w: tenant_id and lead_id are required", domain.ErrValidation)
	}

	query := `SELECT ` + leadColumns + ` FROM leads WHERE tenant_id = $1::uuid AND lead_id = $2::uuid`
	lead, err := scanLead(r.db.QueryRowContext(ctx, query, tenantID, leadID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: lead", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

func (r *PostgresLeadsRepository) ListLeads(ctx context.Context, tenantID string, filter LeadFilters, page, size int) ([]*domain.Lead, int, error) {
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

	where := []string{"tenant_id = $1::uuid"}
	args := []any{tenantID}
	argIdx := 2

	if filter.Stage != "" {
		where = append(where, fmt.Sprintf("stage = $%d", argIdx))
		args = append(args, filter.Stage)
		argIdx++
	}
	if filter.AssignedUserID != "" {
		where = append(where, fmt.Sprintf("assigned_user_id = $%d::uuid", argIdx))
		args = append(args, filter.AssignedUserID)
		argIdx++
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR phone ILIKE $%d OR email ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	whereClause := "WHERE " + strings.Join(where, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM leads %s`, whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM leads %s ORDER BY name LIMIT $%d OFFSET $%d`,
		leadColumns, whereClause, argIdx, argIdx+1)
	args = append(args, size, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := []*domain.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate leads: %w", err)
	}

	return leads, total, nil
}

func (r *PostgresLeadsRepository) CreateLead(ctx context.Context, lead *domain.Lead) (string, error) {
	if lead == nil {
		return "", fmt.Errorf("%w: lead is required", domain.ErrValidation)
	}
	if lead.TenantID == "" {
		return "", fmt.Errorf("%w: tenant_id is required", domain.ErrValidation)
	}
	if lead.Name == "" {
		return "", fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	stage := lead.Stage
	if stage == "" {
		stage = domain.StageNew
	}
	customFieldsArg := "{}"
	if len(lead.CustomFields) > 0 {
		customFieldsArg = string(lead.CustomFields)
	}

	var leadID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO leads (tenant_id, name, phone, email, stage, assigned_user_id, transaction_type, min_price, min_deposit, custom_fields)
		 VALUES ($1::uuid, $2, NULLIF($3, ''), NULLIF($4, ''), $5, NULLIF($6, '')::uuid, NULLIF($7, ''), $8, $9, $10::jsonb)
		 RETURNING lead_id::text`,
		lead.TenantID,
		lead.Name,
		lead.Phone.String,
		lead.Email.String,
		stage,
		lead.AssignedUserID.String,
		lead.TransactionType.String,
		nullableInt64(lead.MinPrice),
		nullableInt64(lead.MinDeposit),
		customFieldsArg,
	).Scan(&leadID)
	if err != nil {
		return "", fmt.Errorf("failed to create lead: %w", err)
	}
	return leadID, nil
}

func (r *PostgresLeadsRepository) UpdateLead(ctx context.Context, tenantID, leadID string, patch *LeadPatch) (*domain.Lead, error) {
	if tenantID == "" || leadID == "" {
		return nil, fmt.Errorf("%w: tenant_id and lead_id are required", domain.ErrValidation)
	}
	if patch == nil || !patch.HasChanges() {
		return r.GetLead(ctx, tenantID, leadID)
	}

	updates := []string{}
	args := []any{tenantID, leadID}
	argIdx := 3

	set := func(column string, value any) {
		updates = append(updates, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Phone != nil {
		set("phone", sqlNullIfEmpty(*patch.Phone))
	}
	if patch.Email != nil {
		set("email", sqlNullIfEmpty(*patch.Email))
	}
	if patch.Stage != nil {
		set("stage", *patch.Stage)
	}
	if patch.AssignedUserID != nil {
		set("assigned_user_id", sqlNullIfEmpty(*patch.AssignedUserID))
	}
	if patch.TransactionType != nil {
		set("transaction_type", sqlNullIfEmpty(*patch.TransactionType))
	}
	if patch.MinPrice != nil {
		set("min_price", *patch.MinPrice)
	}
	if patch.MinDeposit != nil {
		set("min_deposit", *patch.MinDeposit)
	}
	if patch.CustomFields != nil {
		updates = append(updates, fmt.Sprintf("custom_fields = $%d::jsonb", argIdx))
		args = append(args, string(patch.CustomFields))
		argIdx++
	}

	query := fmt.Sprintf(`
		UPDATE leads SET %s
		WHERE tenant_id = $1::uuid AND lead_id = $2::uuid
		RETURNING %s`,
		strings.Join(updates, ", "), leadColumns)

	lead, err := scanLead(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: lead", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	return lead, nil
}

func (r *PostgresLeadsRepository) DeleteLead(ctx context.Context, tenantID, leadID string) error {
	if tenantID == "" || leadID == "" {
		return fmt.Errorf("%w: tenant_id and lead_id are required", domain.ErrValidation)
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM leads WHERE tenant_id = $1::uuid AND lead_id = $2::uuid`,
		tenantID, leadID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: lead", domain.ErrNotFound)
	}

	return nil
}

func nullableInt64(v sql.NullInt64) any {
	if v.Valid {
		return v.Int64
	}
	return nil
}

func sqlNullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
