package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultAuthority is the Microsoft identity platform endpoint.
const defaultAuthority = "https://login.microsoftonline.com"

// ClientCredentials identifies an app registration against a tenant.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
	TenantID     string
	// Scope is the resource scope, e.g. https://myorg.crm.dynamics.com/.default
	Scope string
	// Authority overrides the token endpoint base URL. Empty means the
	// Microsoft identity platform.
	Authority string
}

func (c ClientCredentials) tokenURL() string {
	authority := c.Authority
	if authority == "" {
		authority = defaultAuthority
	}
	return strings.TrimRight(authority, "/") + "/" + c.TenantID + "/oauth2/v2.0/token"
}

// TokenExchange is the outcome of any token grant.
type TokenExchange struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// FetchClientCredentialsToken performs the client-credentials grant.
func FetchClientCredentialsToken(ctx context.Context, creds ClientCredentials) (*TokenExchange, error) {
	return requestToken(ctx, creds, url.Values{
		"client_id":     {creds.ClientID},
		"client_secret": {creds.ClientSecret},
		"scope":         {creds.Scope},
		"grant_type":    {"client_credentials"},
	})
}

// ExchangeAuthorizationCode redeems an authorization code for tokens.
func ExchangeAuthorizationCode(ctx context.Context, creds ClientCredentials, code, redirectURI string) (*TokenExchange, error) {
	return requestToken(ctx, creds, url.Values{
		"client_id":     {creds.ClientID},
		"client_secret": {creds.ClientSecret},
		"scope":         {creds.Scope},
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
	})
}

// FetchPasswordGrantToken performs the resource-owner password grant. Only
// suitable for test tenants without interactive consent.
func FetchPasswordGrantToken(ctx context.Context, creds ClientCredentials, username, password string) (*TokenExchange, error) {
	return requestToken(ctx, creds, url.Values{
		"client_id":     {creds.ClientID},
		"client_secret": {creds.ClientSecret},
		"scope":         {creds.Scope},
		"grant_type":    {"password"},
		"username":      {username},
		"password":      {password},
	})
}

// RefreshToken redeems a refresh token for a fresh access token. When the
// response omits a rotated refresh token the old one stays valid and is
// carried over.
func RefreshToken(ctx context.Context, creds ClientCredentials, refreshToken string) (*TokenExchange, error) {
	exchange, err := requestToken(ctx, creds, url.Values{
		"client_id":     {creds.ClientID},
		"client_secret": {creds.ClientSecret},
		"scope":         {creds.Scope},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
	if err != nil {
		return nil, err
	}
	if exchange.RefreshToken == "" {
		exchange.RefreshToken = refreshToken
	}
	return exchange, nil
}

// ValidateClientCredentials checks that the credentials can obtain a token.
func ValidateClientCredentials(ctx context.Context, creds ClientCredentials) error {
	_, err := FetchClientCredentialsToken(ctx, creds)
	return err
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func requestToken(ctx context.Context, creds ClientCredentials, form url.Values) (*TokenExchange, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, creds.tokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token endpoint error (%d): %s", resp.StatusCode, body)
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if strings.TrimSpace(parsed.AccessToken) == "" {
		return nil, fmt.Errorf("token response contained no access token")
	}

	return &TokenExchange{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		ExpiresAt:    tokenExpiry(parsed.AccessToken, parsed.ExpiresIn),
	}, nil
}
