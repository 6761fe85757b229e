package repository

import (
	"context"

	"nestcrm-data/internal/domain"
)

// IdentityLinksRepository resolves legacy provider sub-identities to
// internal users. Read-mostly: links are written by the account-linking
// flow, which lives outside this service.
type IdentityLinksRepository interface {
	// GetLinkByProviderUserID returns domain.ErrNotFound when the
	// sub-identity is unmapped.
	GetLinkByProviderUserID(ctx context.Context, provider, providerUserID string) (*domain.IdentityLink, error)
	CreateLink(ctx context.Context, link *domain.IdentityLink) (string, error)
}
