package client

import (
	"context"
	"net/http"
)

// BootstrapTokenHeader authorizes first-run bootstrap on a server that
// already has accounts.
const BootstrapTokenHeader = "X-Bootstrap-Token"

// AuthService handles session endpoints.
type AuthService struct {
	c *Client
}

// loginRequest is the body of POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token and the user's tenant
// memberships. It does not store the token on the client; that is the
// session controller's call to make.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var resp LoginResult
	if err := s.c.post(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &resp, 0); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Bootstrap creates the first tenant and its Owner account. On a server
// that already has accounts the call must carry the bootstrap token.
func (s *AuthService) Bootstrap(ctx context.Context, req *BootstrapRequest, bootstrapToken string) (*BootstrapResult, error) {
	var hdr http.Header
	if bootstrapToken != "" {
		hdr = http.Header{BootstrapTokenHeader: []string{bootstrapToken}}
	}

	var resp BootstrapResult
	if err := s.c.doWithHeader(ctx, http.MethodPost, "/auth/bootstrap", req, &resp, 0, hdr); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me validates the current bearer token and returns the user identity
// and tenant memberships.
func (s *AuthService) Me(ctx context.Context) (*MeResult, error) {
	var resp MeResult
	if err := s.c.get(ctx, "/auth/me", nil, &resp, withToken); err != nil {
		return nil, err
	}
	return &resp, nil
}
