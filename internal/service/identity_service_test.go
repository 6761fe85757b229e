package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nestcrm-data/internal/domain"
	"nestcrm-data/internal/repository"
)

func setupResolver(t *testing.T) (*repository.MemoryUsersRepository, *repository.MemoryIdentityLinksRepository, IdentityResolver) {
	t.Helper()
	users := repository.NewMemoryUsersRepository()
	links := repository.NewMemoryIdentityLinksRepository()
	resolver := NewIdentityResolver(users, links, zap.NewNop())
	return users, links, resolver
}

func TestResolveUserID_DirectMatch(t *testing.T) {
	users, _, resolver := setupResolver(t)

	users.PutUser(domain.User{UserID: "U1", Email: "owner@agency.test"})

	userID, err := resolver.ResolveUserID(context.Background(), &domain.Principal{SubjectID: "U1"})
	require.NoError(t, err)
	assert.Equal(t, "U1", userID)
}

func TestResolveUserID_LinkFallback(t *testing.T) {
	_, links, resolver := setupResolver(t)

	_, err := links.CreateLink(context.Background(), &domain.IdentityLink{
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
	userID, err := resolver.ResolveUserID(context.Background(), principal)
	require.NoError(t, err)
	assert.Equal(t, "U1", userID)
}

func TestResolveUserID_DirectWinsOverLink(t *testing.T) {
	users, links, resolver := setupResolver(t)

	users.PutUser(domain.User{UserID: "U1", Email: "u1@agency.test"})
	_, err := links.CreateLink(context.Background(), &domain.IdentityLink{
		Provider:       "google",
		ProviderUserID: "xyz",
		UserID:         "U2",
	})
	require.NoError(t, err)

	principal := &domain.Principal{
		SubjectID: "U1",
		Identities: []domain.ProviderIdentity{
			{Provider: "google", ProviderUserID: "xyz"},
		},
	}
	userID, err := resolver.ResolveUserID(context.Background(), principal)
	require.NoError(t, err)
	assert.Equal(t, "U1", userID)
}

func TestResolveUserID_Unresolved(t *testing.T) {
	_, _, resolver := setupResolver(t)

	_, err := resolver.ResolveUserID(context.Background(), &domain.Principal{SubjectID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveUserID_NilPrincipal(t *testing.T) {
	_, _, resolver := setupResolver(t)

	_, err := resolver.ResolveUserID(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
