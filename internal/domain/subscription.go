package domain

// Subscription plans (subscriptions.plan).
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// Subscription is the billing record provisioned at tenant creation
// (subscriptions table). Provisioning failure is tolerated: a tenant
// without a subscription row is treated as free-tier.
type Subscription struct {
	SubscriptionID string `db:"subscription_id"` // UUID, PRIMARY KEY
	TenantID       string `db:"tenant_id"`
	Plan           string `db:"plan"`   // DEFAULT 'free'
	Status         string `db:"status"` // DEFAULT 'active'
}
