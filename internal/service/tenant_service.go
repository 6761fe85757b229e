package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nestcrm-data/internal/audit"
	"nestcrm-data/internal/domain"
	"nestcrm-data/internal/repository"
)

const (
	tenantNameMaxLen = 50

	// inviteCodeAttempts bounds the regenerate-on-collision loop. The code
	// space is large enough that a second collision in a row means
	// something is broken, not unlucky.
	inviteCodeAttempts = 3
)

// TenantService owns tenant onboarding: creation with the owner quota,
// self-service join by invite code, and leaving.
type TenantService interface {
	// CreateTenant returns the new tenant id. Errors: domain.ErrValidation
	// (bad name), domain.ErrQuotaExceeded, domain.ErrUnauthenticated (no
	// internal user for the principal).
	CreateTenant(ctx context.Context, principal *domain.Principal, name, sourceAddress string) (string, error)
	// JoinTenant is idempotent for a user who already holds an ACTIVE
	// membership of the target tenant.
	JoinTenant(ctx context.Context, principal *domain.Principal, inviteCode, sourceAddress string) (*domain.Tenant, error)
	LeaveTenant(ctx context.Context, principal *domain.Principal, tenantID string) error
}

type tenantService struct {
	tenants       repository.TenantsRepository
	memberships   repository.MembershipsRepository
	subscriptions repository.SubscriptionsRepository
	identity      IdentityResolver
	auditSink     audit.Sink
	logger        *zap.Logger
}

func NewTenantService(
	tenants repository.TenantsRepository,
	memberships repository.MembershipsRepository,
	subscriptions repository.SubscriptionsRepository,
	identity IdentityResolver,
	auditSink audit.Sink,
	logger *zap.Logger,
) TenantService {
	return &tenantService{
		tenants:       tenants,
		memberships:   memberships,
		subscriptions: subscriptions,
		identity:      identity,
		auditSink:     auditSink,
		logger:        logger,
	}
}

func (s *tenantService) CreateTenant(ctx context.Context, principal *domain.Principal, name, sourceAddress string) (string, error) {
	userID, err := s.actingUser(ctx, principal)
	if err != nil {
		return "", err
	}

	name = strings.TrimSpace(name)
	if name == "" || len(name) > tenantNameMaxLen {
		return "", fmt.Errorf("%w: tenant name must be 1-%d characters", domain.ErrValidation, tenantNameMaxLen)
	}

	owned, err := s.memberships.CountActiveOwned(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to check owner quota: %w", err)
	}
	if owned >= domain.OwnerTenantQuota {
		s.logger.Warn("Tenant creation rejected",
			zap.String("user_id", userID),
			zap.String("reason", "quota_exceeded"),
			zap.Int("owned", owned),
		)
		return "", fmt.Errorf("%w: at most %d owned tenants", domain.ErrQuotaExceeded, domain.OwnerTenantQuota)
	}

	var tenantID string
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		tenantID, err = s.tenants.CreateTenant(ctx, &domain.Tenant{
			TenantName: name,
			InviteCode: newInviteCode(),
			Status:     domain.TenantActive,
		})
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) {
			return "", fmt.Errorf("failed to create tenant: %w", err)
		}
		s.logger.Warn("Invite code collision, regenerating",
			zap.Int("attempt", attempt+1),
		)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create tenant: %w", err)
	}

	if _, err := s.memberships.CreateMembership(ctx, &domain.Membership{
		TenantID: tenantID,
		UserID:   userID,
		Role:     domain.RoleOwner,
		Status:   domain.MembershipActive,
	}); err != nil {
		return "", fmt.Errorf("failed to create owner membership: %w", err)
	}

	// Free-tier subscription. Provisioning failure is non-fatal: the
	// tenant stays usable and billing reconciles later.
	if _, err := s.subscriptions.CreateSubscription(ctx, &domain.Subscription{
		TenantID: tenantID,
		Plan:     domain.PlanFree,
	}); err != nil {
		s.logger.Warn("Failed to provision default subscription",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
	}

	s.auditSink.Record(ctx, audit.Event{
		ActorID:       userID,
		Action:        audit.ActionTenantCreated,
		TenantID:      tenantID,
		Details:       map[string]any{"name": name},
		SourceAddress: sourceAddress,
	})

	s.logger.Info("Tenant created",
		zap.String("tenant_id", tenantID),
		zap.String("user_id", userID),
	)
	return tenantID, nil
}

func (s *tenantService) JoinTenant(ctx context.Context, principal *domain.Principal, inviteCode, sourceAddress string) (*domain.Tenant, error) {
	userID, err := s.actingUser(ctx, principal)
	if err != nil {
		return nil, err
	}

	inviteCode = strings.TrimSpace(inviteCode)
	if inviteCode == "" {
		return nil, fmt.Errorf("%w: invite code is required", domain.ErrValidation)
	}

	tenant, err := s.tenants.GetTenantByInviteCode(ctx, inviteCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: invite code", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up invite code: %w", err)
	}
	if tenant.Status != domain.TenantActive {
		return nil, fmt.Errorf("%w: invite code", domain.ErrNotFound)
	}

	existing, err := s.memberships.GetMembership(ctx, tenant.TenantID, userID)
	switch {
	case err == nil && existing.Status == domain.MembershipActive:
		// Already a member; joining twice is a no-op.
		return tenant, nil
	case err == nil:
		if err := s.memberships.SetMembershipStatus(ctx, tenant.TenantID, userID, domain.MembershipActive); err != nil {
			return nil, fmt.Errorf("failed to reactivate membership: %w", err)
		}
	case errors.Is(err, domain.ErrNotFound):
		if _, err := s.memberships.CreateMembership(ctx, &domain.Membership{
			TenantID: tenant.TenantID,
			UserID:   userID,
			Role:     domain.RoleMember,
			Status:   domain.MembershipActive,
		}); err != nil && !errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("failed to create membership: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	s.auditSink.Record(ctx, audit.Event{
		ActorID:       userID,
		Action:        audit.ActionTenantJoined,
		TenantID:      tenant.TenantID,
		SourceAddress: sourceAddress,
	})

	return tenant, nil
}

func (s *tenantService) LeaveTenant(ctx context.Context, principal *domain.Principal, tenantID string) error {
	userID, err := s.actingUser(ctx, principal)
	if err != nil {
		return err
	}
	if tenantID == "" {
		return fmt.Errorf("%w: tenant_id is required", domain.ErrValidation)
	}

	if err := s.memberships.SetMembershipStatus(ctx, tenantID, userID, domain.MembershipLeft); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: membership", domain.ErrNotFound)
		}
		return fmt.Errorf("failed to leave tenant: %w", err)
	}

	s.logger.Info("User left tenant",
		zap.String("tenant_id", tenantID),
		zap.String("user_id", userID),
	)
	return nil
}

func (s *tenantService) actingUser(ctx context.Context, principal *domain.Principal) (string, error) {
	userID, err := s.identity.ResolveUserID(ctx, principal)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%w: no internal user for principal", domain.ErrUnauthenticated)
		}
		return "", fmt.Errorf("failed to resolve acting user: %w", err)
	}
	return userID, nil
}

// newInviteCode returns a short join token. 8 hex-ish chars out of a UUID
// keeps it typeable; uniqueness is enforced by the column constraint and
// the caller's regenerate loop.
func newInviteCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:8])
}
