package models

import (
	"strings"
	"time"
)

// MemberRow is one membership in a tenant, flattened for listings.
type MemberRow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	RoleID    string    `json:"role_id"`
	RoleName  string    `json:"role_name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateMemberRequest is the payload for inviting a user into a tenant.
type CreateMemberRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   string `json:"role_id"`
}

// CreatedMember is the response payload for a newly created membership.
type CreatedMember struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	RoleID string `json:"role_id"`
}

// Validate checks that required fields are present and within limits on CreateMemberRequest.
func (r *CreateMemberRequest) Validate() error {
	if r.Email == "" {
		return ErrMissingEmail
	}

	if len(r.Email) > 255 {
		return ErrFieldTooLong("email", 255)
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

	if r.RoleID == "" {
		return ErrMissingRoleID
	}

	return nil
}
