package repository

import (
	"context"

	"nestcrm-data/internal/domain"
)

// SubscriptionsRepository provisions and reads billing records.
type SubscriptionsRepository interface {
	GetSubscription(ctx context.Context, tenantID string) (*domain.Subscription, error)
	CreateSubscription(ctx context.Context, sub *domain.Subscription) (string, error)
}
