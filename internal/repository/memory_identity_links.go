package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"nestcrm-data/internal/domain"
)

// MemoryIdentityLinksRepository supports the legacy resolution path when DB
// is disabled.
type MemoryIdentityLinksRepository struct {
	mu    sync.RWMutex
	links map[string]domain.IdentityLink // provider+"/"+providerUserID -> link
}

func NewMemoryIdentityLinksRepository() *MemoryIdentityLinksRepository {
	return &MemoryIdentityLinksRepository{links: map[string]domain.IdentityLink{}}
}

var _ IdentityLinksRepository = (*MemoryIdentityLinksRepository)(nil)

func linkKey(provider, providerUserID string) string {
	return provider + "/" + providerUserID
}

func (r *MemoryIdentityLinksRepository) GetLinkByProviderUserID(_ context.Context, provider, providerUserID string) (*domain.IdentityLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	link, ok := r.links[linkKey(provider, providerUserID)]
	if !ok {
		return nil, fmt.Errorf("%w: identity link", domain.ErrNotFound)
	}
	return &link, nil
}

func (r *MemoryIdentityLinksRepository) CreateLink(_ context.Context, link *domain.IdentityLink) (string, error) {
	if link == nil || link.Provider == "" || link.ProviderUserID == "" || link.UserID == "" {
		return "", fmt.Errorf("%w: provider, provider_user_id and user_id are required", domain.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := linkKey(link.Provider, link.ProviderUserID)
	if _, exists := r.links[key]; exists {
		return "", fmt.Errorf("%w: identity link", domain.ErrConflict)
	}

	cp := *link
	cp.LinkID = uuid.NewString()
	r.links[key] = cp
	return cp.LinkID, nil
}
