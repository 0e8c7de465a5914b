// Package client provides a typed Go SDK for the accesspanel REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// TenantHeader is the request header carrying the tenant scope.
const TenantHeader = "X-Tenant-ID"

// reqFlags selects which credential headers a request carries.
type reqFlags uint8

const (
	withToken reqFlags = 1 << iota
	withTenant
)

// Client is the top-level accesspanel API client.
//
// The bearer token and tenant id are mutable so a single Client can
// follow a session across login, tenant switch, and logout. They are
// expected to have a single writer (the session controller).
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu       sync.RWMutex
	token    string
	tenantID string

	Auth        *AuthService
	Members     *MemberService
	Roles       *RoleService
	Permissions *PermissionService
	Audit       *AuditService
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the initial bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTenant sets the initial tenant scope.
func WithTenant(tenantID string) Option {
	return func(c *Client) { c.tenantID = tenantID }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates an accesspanel client for the given base URL (e.g. "http://localhost:8000").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	c.Auth = &AuthService{c: c}
	c.Members = &MemberService{c: c}
	c.Roles = &RoleService{c: c}
	c.Permissions = &PermissionService{c: c}
	c.Audit = &AuditService{c: c}
	return c
}

// SetToken replaces the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// SetTenant replaces the tenant scope used on subsequent requests.
func (c *Client) SetTenant(tenantID string) {
	c.mu.Lock()
	c.tenantID = tenantID
	c.mu.Unlock()
}

// ClearCredentials drops both the bearer token and the tenant scope.
func (c *Client) ClearCredentials() {
	c.mu.Lock()
	c.token = ""
	c.tenantID = ""
	c.mu.Unlock()
}

// credentials returns a consistent snapshot of token and tenant id.
func (c *Client) credentials() (token, tenantID string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, c.tenantID
}

// Health returns the server liveness check response.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp, 0); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do executes an HTTP request and decodes the JSON response.
func (c *Client) do(ctx context.Context, method, path string, body any, result any, flags reqFlags) error {
	return c.doWithHeader(ctx, method, path, body, result, flags, nil)
}

// doWithHeader is do with extra request headers.
func (c *Client) doWithHeader(
	ctx context.Context, method, path string, body any, result any, flags reqFlags, extra http.Header,
) error {
	u := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	token, tenantID := c.credentials()
	if flags&withToken != 0 && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if flags&withTenant != 0 && tenantID != "" {
		req.Header.Set(TenantHeader, tenantID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// get is a convenience wrapper for GET requests with query parameters.
func (c *Client) get(ctx context.Context, path string, params url.Values, result any, flags reqFlags) error {
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, result, flags)
}

// post is a convenience wrapper for POST requests.
func (c *Client) post(ctx context.Context, path string, body any, result any, flags reqFlags) error {
	return c.do(ctx, http.MethodPost, path, body, result, flags)
}

// patch is a convenience wrapper for PATCH requests.
func (c *Client) patch(ctx context.Context, path string, body any, result any, flags reqFlags) error {
	return c.do(ctx, http.MethodPatch, path, body, result, flags)
}
