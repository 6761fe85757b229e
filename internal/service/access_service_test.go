package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nestcrm-data/internal/domain"
	"nestcrm-data/internal/repository"
)

func setupAccess(t *testing.T) (*repository.MemoryMembershipsRepository, *repository.MemoryIdentityLinksRepository, AccessService) {
	t.Helper()
	memberships := repository.NewMemoryMembershipsRepository()
	links := repository.NewMemoryIdentityLinksRepository()
	access := NewAccessService(memberships, links, zap.NewNop())
	return memberships, links, access
}

func TestAuthorize_DirectActiveMembership(t *testing.T) {
	memberships, _, access := setupAccess(t)

	_, err := memberships.CreateMembership(context.Background(), &domain.Membership{
		TenantID: "T1",
		UserID:   "U1",
		Role:     domain.RoleOwner,
		Status:   domain.MembershipActive,
	})
	require.NoError(t, err)

	decision, err := access.Authorize(context.Background(), &domain.Principal{SubjectID: "U1"}, "T1")
	require.NoError(t, err)
	assert.Equal(t, "U1", decision.UserID)
	assert.Equal(t, domain.RoleOwner, decision.Role)
}

func TestAuthorize_LegacyLinkFallback(t *testing.T) {
	memberships, links, access := setupAccess(t)

	// Legacy account: the provider subject "abc" is not an internal user id,
	// but an identity link maps sub-identity "xyz" to internal user U1.
	_, err := memberships.CreateMembership(context.Background(), &domain.Membership{
		TenantID: "T1",
		UserID:   "U1",
		Role:     domain.RoleMember,
		Status:   domain.MembershipActive,
	})
	require.NoError(t, err)

	_, err = links.CreateLink(context.Background(), &domain.IdentityLink{
		Provider:       "google",
		ProviderUserID: "xyz",
		UserID:         "U1",
	})
	require.NoError(t, err)

	principal := &domain.Principal{
		SubjectID: "abc",
		Identities: []domain.ProviderIdentity{
			{Provider: "google", ProviderUserID: "xyz"},
		},
	}

	decision, err := access.Authorize(context.Background(), principal, "T1")
	require.NoError(t, err)
	assert.Equal(t, "U1", decision.UserID)
	assert.Equal(t, domain.RoleMember, decision.Role)
}

func TestAuthorize_FirstResolvableIdentityWins(t *testing.T) {
	memberships, links, access := setupAccess(t)

	_, err := memberships.CreateMembership(context.Background(), &domain.Membership{
		TenantID: "T1",
		UserID:   "U1",
		Status:   domain.MembershipActive,
	})
	require.NoError(t, err)

	_, err = links.CreateLink(context.Background(), &domain.IdentityLink{
		Provider:       "credentials",
		ProviderUserID: "legacy-1",
		UserID:         "U1",
	})
	require.NoError(t, err)

	// The first identity has no link and is skipped; the second resolves.
	principal := &domain.Principal{
		SubjectID: "abc",
		Identities: []domain.ProviderIdentity{
			{Provider: "google", ProviderUserID: "no-such"},
			{Provider: "credentials", ProviderUserID: "legacy-1"},
		},
	}

	decision, err := access.Authorize(context.Background(), principal, "T1")
	require.NoError(t, err)
	assert.Equal(t, "U1", decision.UserID)
}

func TestAuthorize_UnknownPrincipalDenied(t *testing.T) {
	_, _, access := setupAccess(t)

	_, err := access.Authorize(context.Background(), &domain.Principal{SubjectID: "nobody"}, "T1")
	assert.ErrorIs(t, err, domain.ErrDenied)
}

func TestAuthorize_NonActiveMembershipDenied(t *testing.T) {
	memberships, _, access := setupAccess(t)

	for userID, status := range map[string]string{
		"U-invited": domain.MembershipInvited,
		"U-left":    domain.MembershipLeft,
	} {
		_, err := memberships.CreateMembership(context.Background(), &domain.Membership{
			TenantID: "T1",
			UserID:   userID,
			Status:   status,
		})
		require.NoError(t, err)

		_, err = access.Authorize(context.Background(), &domain.Principal{SubjectID: userID}, "T1")
		assert.ErrorIs(t, err, domain.ErrDenied, "status %s must not grant access", status)
	}
}

func TestAuthorize_ResolvedUserWithoutMembershipDenied(t *testing.T) {
	_, links, access := setupAccess(t)

	_, err := links.CreateLink(context.Background(), &domain.IdentityLink{
		Provider:       "google",
		ProviderUserID: "xyz",
		UserID:         "U1",
	})
	require.NoError(t, err)

	// Link resolves to U1 but U1 has no membership in T2.
	principal := &domain.Principal{
		SubjectID: "abc",
		Identities: []domain.ProviderIdentity{
			{Provider: "google", ProviderUserID: "xyz"},
		},
	}
	_, err = access.Authorize(context.Background(), principal, "T2")
	assert.ErrorIs(t, err, domain.ErrDenied)
}

func TestAuthorize_MissingPrincipalAndTenant(t *testing.T) {
	_, _, access := setupAccess(t)

	_, err := access.Authorize(context.Background(), nil, "T1")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = access.Authorize(context.Background(), &domain.Principal{}, "T1")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = access.Authorize(context.Background(), &domain.Principal{SubjectID: "U1"}, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// failingMembershipsRepo simulates a store outage.
type failingMembershipsRepo struct {
	repository.MembershipsRepository
}

func (f *failingMembershipsRepo) GetMembership(_ context.Context, _, _ string) (*domain.Membership, error) {
	return nil, errors.New("connection refused")
}

func TestAuthorize_StoreErrorFailsClosed(t *testing.T) {
	access := NewAccessService(&failingMembershipsRepo{}, repository.NewMemoryIdentityLinksRepository(), zap.NewNop())

	decision, err := access.Authorize(context.Background(), &domain.Principal{SubjectID: "U1"}, "T1")
	assert.Nil(t, decision)
	assert.ErrorIs(t, err, domain.ErrDenied)
}
