// Package auth acquires and caches bearer tokens for the Dataverse Web API
// using the Microsoft identity platform OAuth2 flows.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshSkew is how long before expiry a cached token is refreshed.
const refreshSkew = 5 * time.Minute

// CachedTokenSource hands out a cached access token and refreshes it before
// it expires. It implements dataverse.TokenProvider and is safe for
// concurrent use.
type CachedTokenSource struct {
	creds ClientCredentials

	mu           sync.Mutex
	current      *TokenExchange
	refreshToken string
}

// NewClientCredentialsSource returns a source backed by the
// client-credentials grant.
func NewClientCredentialsSource(creds ClientCredentials) *CachedTokenSource {
	return &CachedTokenSource{creds: creds}
}

// NewAuthorizationCodeSource returns a source primed with tokens from an
// authorization-code exchange; subsequent renewals use the refresh grant.
func NewAuthorizationCodeSource(creds ClientCredentials, initial *TokenExchange) *CachedTokenSource {
	return &CachedTokenSource{
		creds:        creds,
		current:      initial,
		refreshToken: initial.RefreshToken,
	}
}

// Token returns the cached access token, fetching or refreshing first when
// the cached one is absent or expiring within the refresh skew.
func (s *CachedTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && !expiringSoon(s.current.ExpiresAt) {
		return s.current.AccessToken, nil
	}

	var (
		exchange *TokenExchange
		err      error
	)
	if s.refreshToken != "" {
		exchange, err = RefreshToken(ctx, s.creds, s.refreshToken)
	} else {
		exchange, err = FetchClientCredentialsToken(ctx, s.creds)
	}
	if err != nil {
		return "", err
	}

	if exchange.RefreshToken != "" {
		s.refreshToken = exchange.RefreshToken
	}
	s.current = exchange
	return exchange.AccessToken, nil
}

// expiringSoon treats an unknown expiry as already expired.
func expiringSoon(expiresAt time.Time) bool {
	if expiresAt.IsZero() {
		return true
	}
	return !time.Now().Add(refreshSkew).Before(expiresAt)
}

// tokenExpiry derives the expiry time from expires_in, falling back to the
// token's own exp claim when the endpoint omits it. The claim is read without
// signature verification; it only feeds the refresh schedule, never an
// authorization decision.
func tokenExpiry(accessToken string, expiresIn int64) time.Time {
	if expiresIn > 0 {
		return time.Now().Add(time.Duration(expiresIn) * time.Second)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
