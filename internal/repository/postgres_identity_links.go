package repository

import (
	"context"
	"database/sql"
	"fmt"

	"nestcrm-data/internal/domain"
)

// PostgresIdentityLinksRepository implements IdentityLinksRepository on the
// identity_links table.
type PostgresIdentityLinksRepository struct {
	db *sql.DB
}

func NewPostgresIdentityLinksRepository(db *sql.DB) *PostgresIdentityLinksRepository {
	return &PostgresIdentityLinksRepository{db: db}
}

var _ IdentityLinksRepository = (*PostgresIdentityLinksRepository)(nil)

func (r *PostgresIdentityLinksRepository) GetLinkByProviderUserID(ctx context.Context, provider, providerUserID string) (*domain.IdentityLink, error) {
	if provider == "" || providerUserID == "" {
		return nil, fmt.Errorf("%w: provider and provider_user_id are required", domain.ErrValidation)
	}

	query := `
		SELECT
			link_id::text,
			provider,
			provider_user_id,
			user_id::text
		FROM identity_links
		WHERE provider = $1 AND provider_user_id = $2
	`

	var link domain.IdentityLink
	err := r.db.QueryRowContext(ctx, query, provider, providerUserID).Scan(
		&link.LinkID,
		&link.Provider,
		&link.ProviderUserID,
		&link.UserID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: identity link", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get identity link: %w", err)
	}
	return &link, nil
}

func (r *PostgresIdentityLinksRepository) CreateLink(ctx context.Context, link *domain.IdentityLink) (string, error) {
	if link == nil {
		return "", fmt.Errorf("%w: link is required", domain.ErrValidation)
	}
	if link.Provider == "" || link.ProviderUserID == "" || link.UserID == "" {
		return "", fmt.Errorf("%w: provider, provider_user_id and user_id are required", domain.ErrValidation)
	}

	var linkID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO identity_links (provider, provider_user_id, user_id)
		 VALUES ($1, $2, $3::uuid)
		 RETURNING link_id::text`,
		link.Provider, link.ProviderUserID, link.UserID,
	).Scan(&linkID)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%w: identity link", domain.ErrConflict)
		}
		return "", fmt.Errorf("failed to create identity link: %w", err)
	}
	return linkID, nil
}
