package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"nestcrm-data/internal/domain"
	"nestcrm-data/internal/repository"
)

// ResolveStrategy is one way of mapping a principal to an internal user id.
// Returns ("", nil) when the strategy has no answer; a non-nil error means
// the underlying store failed, not that the principal is unknown.
type ResolveStrategy interface {
	Name() string
	Resolve(ctx context.Context, principal *domain.Principal) (string, error)
}

// directStrategy treats the external subject id as the internal user id.
// Fast path for accounts created after the identity migration, where the
// two coincide.
type directStrategy struct {
	users repository.UsersRepository
}

func (s *directStrategy) Name() string { return "direct" }

func (s *directStrategy) Resolve(ctx context.Context, principal *domain.Principal) (string, error) {
	_, err := s.users.GetUser(ctx, principal.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
			return "", nil
		}
		return "", err
	}
	return principal.SubjectID, nil
}

// linkStrategy walks the principal's linked sub-identities in order and
// returns the first one an identity link resolves. The list is bounded and
// its order is stable per login session, so first-hit-wins is deterministic.
type linkStrategy struct {
	links repository.IdentityLinksRepository
}

func (s *linkStrategy) Name() string { return "identity_link" }

func (s *linkStrategy) Resolve(ctx context.Context, principal *domain.Principal) (string, error) {
	for _, identity := range principal.Identities {
		link, err := s.links.GetLinkByProviderUserID(ctx, identity.Provider, identity.ProviderUserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
				continue
			}
			return "", err
		}
		if link.UserID == principal.SubjectID {
			// Already covered by the direct strategy; skip duplicate work.
			continue
		}
		return link.UserID, nil
	}
	return "", nil
}

// IdentityResolver maps an authenticated principal to an internal user id.
type IdentityResolver interface {
	// ResolveUserID tries each strategy in order and returns the first hit.
	// Returns domain.ErrNotFound when no strategy resolves the principal.
	ResolveUserID(ctx context.Context, principal *domain.Principal) (string, error)
}

type identityResolver struct {
	strategies []ResolveStrategy
	logger     *zap.Logger
}

// NewIdentityResolver builds the standard chain: direct match first, then
// the legacy identity-link fallback.
func NewIdentityResolver(users repository.UsersRepository, links repository.IdentityLinksRepository, logger *zap.Logger) IdentityResolver {
	return &identityResolver{
		strategies: []ResolveStrategy{
			&directStrategy{users: users},
			&linkStrategy{links: links},
		},
		logger: logger,
	}
}

// NewIdentityResolverWithStrategies wires an explicit chain. Tests and
// future fallback paths use this.
func NewIdentityResolverWithStrategies(strategies []ResolveStrategy, logger *zap.Logger) IdentityResolver {
	return &identityResolver{strategies: strategies, logger: logger}
}

func (r *identityResolver) ResolveUserID(ctx context.Context, principal *domain.Principal) (string, error) {
	if principal == nil || principal.SubjectID == "" {
		return "", fmt.Errorf("%w: principal is required", domain.ErrUnauthenticated)
	}

	for _, strategy := range r.strategies {
		userID, err := strategy.Resolve(ctx, principal)
		if err != nil {
			r.logger.Warn("Identity resolution strategy failed",
				zap.String("strategy", strategy.Name()),
				zap.Error(err),
			)
			return "", fmt.Errorf("identity resolution failed: %w", err)
		}
		if userID != "" {
			return userID, nil
		}
	}

	return "", fmt.Errorf("%w: principal has no internal user", domain.ErrNotFound)
}
