package repository

import (
	"context"
	"database/sql"
	"fmt"

	"nestcrm-data/internal/domain"
)

// PostgresSubscriptionsRepository implements SubscriptionsRepository on the
// subscriptions table.
type PostgresSubscriptionsRepository struct {
	db *sql.DB
}

func NewPostgresSubscriptionsRepository(db *sql.DB) *PostgresSubscriptionsRepository {
	return &PostgresSubscriptionsRepository{db: db}
}

var _ SubscriptionsRepository = (*PostgresSubscriptionsRepository)(nil)

func (r *PostgresSubscriptionsRepository) GetSubscription(ctx context.Context, tenantID string) (*domain.Subscription, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant_id is required", domain.ErrValidation)
	}

	query := `
		SELECT
			subscription_id::text,
			tenant_id::text,
			COALESCE(plan, 'free') as plan,
			COALESCE(status, 'active') as status
		FROM subscriptions
		WHERE tenant_id = $1::uuid
	`

	var sub domain.Subscription
	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(
		&sub.SubscriptionID,
		&sub.TenantID,
		&sub.Plan,
		&sub.Status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: subscription", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

func (r *PostgresSubscriptionsRepository) CreateSubscription(ctx context.Context, sub *domain.Subscription) (string, error) {
	if sub == nil {
		return "", fmt.Errorf("%w: subscription is required", domain.ErrValidation)
	}
	if sub.TenantID == "" {
		return "", fmt.Errorf("%w: tenant_id is required", domain.ErrValidation)
	}

	plan := sub.Plan
	if plan == "" {
		plan = domain.PlanFree
	}

	var subscriptionID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO subscriptions (tenant_id, plan, status)
		 VALUES ($1::uuid, $2, 'active')
		 RETURNING subscription_id::text`,
		sub.TenantID, plan,
	).Scan(&subscriptionID)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%w: subscription", domain.ErrConflict)
		}
		return "", fmt.Errorf("failed to create subscription: %w", err)
	}
	return subscriptionID, nil
}
