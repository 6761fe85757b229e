package repository

import (
	"context"
	"database/sql"
	"fmt"

	"nestcrm-data/internal/domain"
)

// PostgresMembershipsRepository implements MembershipsRepository on the
// memberships table.
type PostgresMembershipsRepository struct {
	db *sql.DB
}

func NewPostgresMembershipsRepository(db *sql.DB) *PostgresMembershipsRepository {
	return &PostgresMembershipsRepository{db: db}
}

var _ MembershipsRepository = (*PostgresMembershipsRepository)(nil)

func (r *PostgresMembershipsRepository) GetMembership(ctx context.Context, tenantID, userID string) (*domain.Membership, error) {
	if tenantID == "" || userID == "" {
		return nil, fmt.Errorf("%w: tenant_id and user_id are required", domain.ErrValidation)
	}

	query := `
		SELECT
			membership_id::text,
			tenant_id::text,
			user_id::text,
			role,
			status
		FROM memberships
		WHERE tenant_id = $1::uuid AND user_id = $2::uuid
	`

	var m domain.Membership
	err := r.db.QueryRowContext(ctx, query, tenantID, userID).Scan(
		&m.MembershipID,
		&m.TenantID,
		&m.UserID,
		&m.Role,
		&m.Status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: membership", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &m, nil
}

func (r *PostgresMembershipsRepository) ListMembershipsForUser(ctx context.Context, userID string) ([]*domain.Membership, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrValidation)
	}

	query := `
		SELECT
			membership_id::text,
			tenant_id::text,
			user_id::text,
			role,
			status
		FROM memberships
		WHERE user_id = $1::uuid
		ORDER BY tenant_id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	memberships := []*domain.Membership{}
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.MembershipID, &m.TenantID, &m.UserID, &m.Role, &m.Status); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}

	return memberships, nil
}

func (r *PostgresMembershipsRepository) CountActiveOwned(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: user_id is required", domain.ErrValidation)
	}

	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memberships
		 WHERE user_id = $1::uuid AND role = $2 AND status = $3`,
		userID, domain.RoleOwner, domain.MembershipActive,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count owned tenants: %w", err)
	}
	return count, nil
}

func (r *PostgresMembershipsRepository) CreateMembership(ctx context.Context, m *domain.Membership) (string, error) {
	if m == nil {
		return "", fmt.Errorf("%w: membership is required", domain.ErrValidation)
	}
	if m.TenantID == "" || m.UserID == "" {
		return "", fmt.Errorf("%w: tenant_id and user_id are required", domain.ErrValidation)
	}

	role := m.Role
	if role == "" {
		role = domain.RoleMember
	}
	status := m.Status
	if status == "" {
		status = domain.MembershipActive
	}

	var membershipID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO memberships (tenant_id, user_id, role, status)
		 VALUES ($1::uuid, $2::uuid, $3, $4)
		 RETURNING membership_id::text`,
		m.TenantID, m.UserID, role, status,
	).Scan(&membershipID)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%w: membership", domain.ErrConflict)
		}
		return "", fmt.Errorf("failed to create membership: %w", err)
	}
	return membershipID, nil
}

func (r *PostgresMembershipsRepository) SetMembershipStatus(ctx context.Context, tenantID, userID, status string) error {
	if tenantID == "" || userID == "" {
		return fmt.Errorf("%w: tenant_id and user_id are required", domain.ErrValidation)
	}
	if status == "" {
		return fmt.Errorf("%w: status is required", domain.ErrValidation)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE memberships SET status = $3
		 WHERE tenant_id = $1::uuid AND user_id = $2::uuid`,
		tenantID, userID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to set membership status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: membership", domain.ErrNotFound)
	}

	return nil
}
