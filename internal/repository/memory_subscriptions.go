package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"nestcrm-data/internal/domain"
)

// MemorySubscriptionsRepository supports subscription provisioning when DB
// is disabled.
type MemorySubscriptionsRepository struct {
	mu   sync.RWMutex
	subs map[string]domain.Subscription // tenantID -> Subscription
}

func NewMemorySubscriptionsRepository() *MemorySubscriptionsRepository {
	return &MemorySubscriptionsRepository{subs: map[string]domain.Subscription{}}
}

var _ SubscriptionsRepository = (*MemorySubscriptionsRepository)(nil)

func (r *MemorySubscriptionsRepository) GetSubscription(_ context.Context, tenantID string) (*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[tenantID]
	if !ok {
		return nil, fmt.Errorf("%w: subscription", domain.ErrNotFound)
	}
	return &sub, nil
}

func (r *MemorySubscriptionsRepository) CreateSubscription(_ context.Context, sub *domain.Subscription) (string, error) {
	if sub == nil || sub.TenantID == "" {
		return "", fmt.Errorf("%w: tenant_id is required", domain.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.subs[sub.TenantID]; exists {
		return "", fmt.Errorf("%w: subscription", domain.ErrConflict)
	}

	cp := *sub
	cp.SubscriptionID = uuid.NewString()
	if cp.Plan == "" {
		cp.Plan = domain.PlanFree
	}
	if cp.Status == "" {
		cp.Status = "active"
	}
	r.subs[cp.TenantID] = cp
	return cp.SubscriptionID, nil
}
