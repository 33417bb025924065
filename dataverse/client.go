package dataverse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	apiPath = "api/data/v9.2"

	// preferAnnotations asks the server to include the paging cookie and
	// more-records annotations on FetchXML responses.
	preferAnnotations = `odata.include-annotations="Microsoft.Dynamics.CRM.fetchxmlpagingcookie,Microsoft.Dynamics.CRM.morerecords"`
)

// TokenProvider supplies a valid bearer token for each request. Token caching
// and refresh live behind this interface; see the auth package.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider that always returns the same token.
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) { return string(t), nil }

// ServiceClient talks to the Dataverse Web API. It holds no per-call state,
// so one client may serve any number of concurrent retrievals.
type ServiceClient struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenProvider
	logger     *slog.Logger
}

// NewServiceClient creates a client for the environment at baseURL
// (e.g. https://myorg.crm.dynamics.com). Trailing slashes are stripped.
func NewServiceClient(baseURL string, tokens TokenProvider) *ServiceClient {
	return &ServiceClient{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		logger:     slog.Default(),
	}
}

// SetHTTPClient replaces the underlying HTTP client. Callers that need a
// request deadline set it here or on the per-call context; the engine itself
// enforces none.
func (c *ServiceClient) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// SetLogger replaces the logger. Page numbers, mutated FetchXML and resolved
// URLs are emitted at debug level before each request.
func (c *ServiceClient) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// fetchURL builds <base>/api/data/v9.2/<entitySet>?fetchXml=<encoded>.
func (c *ServiceClient) fetchURL(entitySet, fetchxml string) string {
	return c.baseURL + "/" + apiPath + "/" + entitySet + "?fetchXml=" + url.QueryEscape(fetchxml)
}

// fetchSinglePage runs one FetchXML round trip and decodes the page.
func (c *ServiceClient) fetchSinglePage(ctx context.Context, entitySet, fetchxml string) (*fetchPage, error) {
	u := c.fetchURL(entitySet, fetchxml)
	c.logger.Debug("fetchxml request", "entity_set", entitySet, "url", u, "fetchxml", fetchxml)

	body, err := c.get(ctx, u, http.Header{"Prefer": {preferAnnotations}})
	if err != nil {
		return nil, err
	}
	return decodeFetchPage(body)
}

func (c *ServiceClient) get(ctx context.Context, url string, headers http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	return c.do(req)
}

// do sends the request with auth and accept headers and returns the body.
// Any non-2xx status becomes an *APIError carrying status and body verbatim.
func (c *ServiceClient) do(req *http.Request) ([]byte, error) {
	token, err := c.tokens.Token(req.Context())
	if err != nil {
		return nil, fmt.Errorf("acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// doJSON sends a request with a JSON body.
func (c *ServiceClient) doJSON(ctx context.Context, method, url string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}
