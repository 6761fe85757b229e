package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"nestcrm-data/internal/domain"
	"nestcrm-data/internal/idp"
	"nestcrm-data/internal/service"
)

// TenantHeader carries the target tenant for tenant-scoped requests.
const TenantHeader = "X-Tenant-ID"

// Guard authenticates the request principal and authorizes tenant access.
// Every tenant-scoped handler goes through Authorize before touching data;
// decisions live for this request only.
type Guard struct {
	provider idp.Provider
	access   service.AccessService
}

func NewGuard(provider idp.Provider, access service.AccessService) *Guard {
	return &Guard{provider: provider, access: access}
}

// Principal extracts the bearer token and resolves it at the identity
// provider.
func (g *Guard) Principal(r *http.Request) (*domain.Principal, error) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: missing bearer token", domain.ErrUnauthenticated)
	}
	return g.provider.CurrentPrincipal(r.Context(), strings.TrimSpace(token))
}

// Authorize runs the full chain: principal, tenant header, access decision.
func (g *Guard) Authorize(r *http.Request) (string, *service.AccessDecision, error) {
	principal, err := g.Principal(r)
	if err != nil {
		return "", nil, err
	}

	tenantID := strings.TrimSpace(r.Header.Get(TenantHeader))
	if tenantID == "" {
		return "", nil, fmt.Errorf("%w: %s header is required", domain.ErrValidation, TenantHeader)
	}

	decision, err := g.access.Authorize(r.Context(), principal, tenantID)
	if err != nil {
		return "", nil, err
	}
	return tenantID, decision, nil
}
