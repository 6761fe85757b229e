package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"nestcrm-data/internal/domain"
	"nestcrm-data/internal/repository"
)

// AccessDecision is a successful authorization result.
type AccessDecision struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// AccessService answers "may principal P act within tenant T, and as what
// role?". Read-only; every decision is derived fresh from the store, never
// cached across requests, because membership can change between requests.
type AccessService interface {
	// Authorize returns domain.ErrDenied for everything short of an ACTIVE
	// membership: unknown principal, unknown tenant, INVITED/LEFT status,
	// and any store failure (fail-closed). The error never reveals whether
	// the tenant exists.
	Authorize(ctx context.Context, principal *domain.Principal, tenantID string) (*AccessDecision, error)
}

type accessService struct {
	memberships repository.MembershipsRepository
	fallback    IdentityResolver
	logger      *zap.Logger
}

// NewAccessService builds the resolver with a link-only fallback chain: the
// direct path is the membership lookup itself, so the whole decision costs
// at most 1+k lookups for k linked sub-identities.
func NewAccessService(memberships repository.MembershipsRepository, links repository.IdentityLinksRepository, logger *zap.Logger) AccessService {
	return &accessService{
		memberships: memberships,
		fallback: NewIdentityResolverWithStrategies(
			[]ResolveStrategy{&linkStrategy{links: links}}, logger),
		logger: logger,
	}
}

func (s *accessService) Authorize(ctx context.Context, principal *domain.Principal, tenantID string) (*AccessDecision, error) {
	if principal == nil || principal.SubjectID == "" {
		return nil, fmt.Errorf("%w: no principal", domain.ErrUnauthenticated)
	}
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant_id is required", domain.ErrValidation)
	}

	// Fast path: subject id used directly as internal user id.
	membership, err := s.memberships.GetMembership(ctx, tenantID, principal.SubjectID)
	if err == nil {
		if membership.Grants() {
			return &AccessDecision{UserID: membership.UserID, Role: membership.Role}, nil
		}
		// A non-ACTIVE membership under the direct id does not end the
		// search: a legacy link may resolve to a different user.
	} else if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrValidation) {
		// Fail closed on store errors; never fail open on tenant access.
		s.logger.Warn("Authorization failed closed on membership lookup",
			zap.String("tenant_id", tenantID),
			zap.String("reason", "store_error"),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w", domain.ErrDenied)
	}

	// Legacy fallback through identity links.
	userID, err := s.fallback.ResolveUserID(ctx, principal)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w", domain.ErrDenied)
		}
		s.logger.Warn("Authorization failed closed on identity resolution",
			zap.String("tenant_id", tenantID),
			zap.String("reason", "resolver_error"),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w", domain.ErrDenied)
	}

	if userID == principal.SubjectID {
		// Direct id was already checked above.
		return nil, fmt.Errorf("%w", domain.ErrDenied)
	}

	membership, err = s.memberships.GetMembership(ctx, tenantID, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrValidation) {
			s.logger.Warn("Authorization failed closed on resolved membership lookup",
				zap.String("tenant_id", tenantID),
				zap.String("reason", "store_error"),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("%w", domain.ErrDenied)
	}
	if !membership.Grants() {
		return nil, fmt.Errorf("%w", domain.ErrDenied)
	}

	return &AccessDecision{UserID: membership.UserID, Role: membership.Role}, nil
}
