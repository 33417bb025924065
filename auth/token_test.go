package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedTokenSourceReusesFreshToken(t *testing.T) {
	te, creds := newTokenEndpoint(t, `{"access_token": "AT", "expires_in": 3600}`)
	source := NewClientCredentialsSource(creds)

	for i := 0; i < 3; i++ {
		token, err := source.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "AT", token)
	}
	assert.Len(t, te.forms, 1, "a fresh token is served from cache")
}

func TestCachedTokenSourceRefreshesWithinSkew(t *testing.T) {
	// expires_in under the refresh skew means every call fetches anew.
	te, creds := newTokenEndpoint(t,
		`{"access_token": "AT1", "expires_in": 10}`,
		`{"access_token": "AT2", "expires_in": 3600}`,
	)
	source := NewClientCredentialsSource(creds)

	token, err := source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AT1", token)

	token, err = source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AT2", token)
	assert.Len(t, te.forms, 2)
}

func TestAuthorizationCodeSourcePrefersRefreshGrant(t *testing.T) {
	te, creds := newTokenEndpoint(t, `{"access_token": "AT2", "expires_in": 3600}`)
	source := NewAuthorizationCodeSource(creds, &TokenExchange{
		AccessToken:  "AT1",
		RefreshToken: "RT1",
		ExpiresAt:    time.Now().Add(-time.Minute),
	})

	token, err := source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AT2", token)

	require.Len(t, te.forms, 1)
	assert.Equal(t, "refresh_token", te.forms[0].Get("grant_type"))
	assert.Equal(t, "RT1", te.forms[0].Get("refresh_token"))
}

func TestAuthorizationCodeSourceServesValidInitialToken(t *testing.T) {
	te, creds := newTokenEndpoint(t)
	source := NewAuthorizationCodeSource(creds, &TokenExchange{
		AccessToken: "AT1",
		ExpiresAt:   time.Now().Add(time.Hour),
	})

	token, err := source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AT1", token)
	assert.Empty(t, te.forms)
}

func TestExpiringSoon(t *testing.T) {
	assert.True(t, expiringSoon(time.Time{}), "unknown expiry counts as expired")
	assert.True(t, expiringSoon(time.Now().Add(time.Minute)))
	assert.False(t, expiringSoon(time.Now().Add(time.Hour)))
}

func TestTokenExpiryPrefersExpiresIn(t *testing.T) {
	expiry := tokenExpiry("opaque-token", 3600)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, time.Minute)
}

func TestTokenExpiryFallsBackToExpClaim(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	assert.True(t, tokenExpiry(signed, 0).Equal(exp))
}

func TestTokenExpiryUnknown(t *testing.T) {
	assert.True(t, tokenExpiry("not-a-jwt", 0).IsZero())

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "someone",
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	assert.True(t, tokenExpiry(noExp, 0).IsZero())
}
