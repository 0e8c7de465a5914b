package models

import (
	"regexp"
	"strings"
	"time"
)

// RoleRef is the compact role reference embedded in tenant listings.
type RoleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tenant is a workspace a user can belong to, annotated with the role
// the user holds in it.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Role      RoleRef   `json:"role"`
	CreatedAt time.Time `json:"-"`
}

// slugPattern restricts tenant slugs to lowercase letters, digits, and
// single hyphens between segments.
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// BootstrapRequest is the payload for first-run bootstrap: the first
// tenant plus its Owner account.
type BootstrapRequest struct {
	TenantName string `json:"tenant_name"`
	TenantSlug string `json:"tenant_slug"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

// Validate checks that required fields are present and within limits on BootstrapRequest.
func (r *BootstrapRequest) Validate() error {
	if r.TenantName == "" {
		return ErrMissingName
	}

	if len(r.TenantName) > 100 {
		return ErrFieldTooLong("tenant_name", 100)
	}

	if r.TenantSlug == "" {
		return ErrMissingSlug
	}

	if len(r.TenantSlug) > 100 {
		return ErrFieldTooLong("tenant_slug", 100)
	}

	if !slugPattern.MatchString(r.TenantSlug) {
		return ErrInvalidSlug
	}

	if r.Email == "" {
		return ErrMissingEmail
	}

	at := strings.IndexByte(r.Email, '@')
	if at <= 0 || at == len(r.Email)-1 {
		return ErrInvalidEmail
	}

	if r.Password == "" {
		return ErrMissingPassword
	}

	if len(r.Password) < 8 {
		return ErrPasswordTooWeak
	}

	return nil
}
