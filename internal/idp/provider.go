package idp

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"nestcrm-data/internal/domain"
)

// Provider resolves a bearer token into the authenticated principal.
// The OAuth protocol itself lives at the identity provider; this service
// only consumes the userinfo surface.
type Provider interface {
	CurrentPrincipal(ctx context.Context, token string) (*domain.Principal, error)
}

type userinfoResponse struct {
	Sub        string `json:"sub"`
	Identities []struct {
		Provider string `json:"provider"`
		UserID   string `json:"user_id"`
	} `json:"identities"`
}

// HTTPProvider calls the identity provider's userinfo endpoint.
type HTTPProvider struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewHTTPProvider(baseURL string, logger *zap.Logger) *HTTPProvider {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(1 * time.Second).
		SetHeader("Accept", "application/json")

	return &HTTPProvider{httpClient: client, logger: logger}
}

var _ Provider = (*HTTPProvider)(nil)

func (p *HTTPProvider) CurrentPrincipal(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", domain.ErrUnauthenticated)
	}

	var info userinfoResponse
	resp, err := p.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&info).
		Get("/oauth/userinfo")
	if err != nil {
		p.logger.Warn("Identity provider call failed", zap.Error(err))
		return nil, fmt.Errorf("failed to call identity provider: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: token rejected", domain.ErrUnauthenticated)
	default:
		p.logger.Warn("Identity provider returned unexpected status",
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("identity provider status %d: %w", resp.StatusCode(), domain.ErrInternal)
	}

	if info.Sub == "" {
		return nil, fmt.Errorf("%w: empty subject", domain.ErrUnauthenticated)
	}

	principal := &domain.Principal{SubjectID: info.Sub}
	for _, id := range info.Identities {
		principal.Identities = append(principal.Identities, domain.ProviderIdentity{
			Provider:       id.Provider,
			ProviderUserID: id.UserID,
		})
	}
	return principal, nil
}

// StaticProvider maps tokens to principals in memory. Dev and tests only.
type StaticProvider struct {
	mu         sync.RWMutex
	principals map[string]domain.Principal // token -> principal
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{principals: map[string]domain.Principal{}}
}

var _ Provider = (*StaticProvider)(nil)

func (p *StaticProvider) Register(token string, principal domain.Principal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.principals[token] = principal
}

func (p *StaticProvider) CurrentPrincipal(_ context.Context, token string) (*domain.Principal, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	principal, ok := p.principals[token]
	if !ok {
		return nil, fmt.Errorf("%w: unknown token", domain.ErrUnauthenticated)
	}
	out := principal
	return &out, nil
}
