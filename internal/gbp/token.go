package gbp

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const businessManageScope = "https://www.googleapis.com/auth/business.manage"

// TokenProvider exchanges per-shop refresh tokens for short-lived access
// tokens. Exchanged tokens are cached per (shop, refresh token) and reused
// until they expire, so consecutive syncs of the same shop cost one round
// trip to Google's token endpoint at most.
type TokenProvider struct {
	mu      sync.Mutex
	conf    *oauth2.Config
	timeout time.Duration
	cache   map[tokenKey]*oauth2.Token
}

type tokenKey struct {
	shopID       uuid.UUID
	refreshToken string
}

// TokenProviderOption configures optional provider behaviour.
type TokenProviderOption func(*TokenProvider)

// WithTokenURL overrides Google's token endpoint, used by tests.
func WithTokenURL(url string) TokenProviderOption {
	return func(p *TokenProvider) {
		p.conf.Endpoint = oauth2.Endpoint{TokenURL: url}
	}
}

// NewTokenProvider builds a provider for the given OAuth client credentials.
func NewTokenProvider(clientID, clientSecret string, timeout time.Duration, opts ...TokenProviderOption) *TokenProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	p := &TokenProvider{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{businessManageScope},
		},
		timeout: timeout,
		cache:   make(map[tokenKey]*oauth2.Token),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Token returns a valid bearer token for the shop, exchanging the refresh
// token only when no unexpired cached token exists. Exchange failures come
// back as *AuthError.
func (p *TokenProvider) Token(ctx context.Context, shopID uuid.UUID, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", &AuthError{ShopID: shopID, Err: errEmptyRefreshToken}
	}

	key := tokenKey{shopID: shopID, refreshToken: refreshToken}

	p.mu.Lock()
	cached, ok := p.cache[key]
	p.mu.Unlock()
	if ok && cached.Valid() {
		return cached.AccessToken, nil
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	source := p.conf.TokenSource(exchangeCtx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return "", &AuthError{ShopID: shopID, Err: err}
	}

	p.mu.Lock()
	p.cache[key] = token
	p.mu.Unlock()

	return token.AccessToken, nil
}

var errEmptyRefreshToken = errors.New("shop has no stored refresh token")
