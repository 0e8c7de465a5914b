package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrMissingEmail    = errors.New("email is required")
	ErrInvalidEmail    = errors.New("email is not valid")
	ErrMissingPassword = errors.New("password is required")
	ErrPasswordTooWeak = errors.New("password must be at least 8 characters")
	ErrMissingRoleID   = errors.New("role_id is required")
	ErrMissingName     = errors.New("name is required")
	ErrMissingSlug     = errors.New("slug is required")
	ErrInvalidSlug     = errors.New("slug must be lowercase letters, digits, and hyphens")
)

// Sentinel errors for entity lookups.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrTenantNotFound = errors.New("tenant not found")
	ErrRoleNotFound   = errors.New("role not found")
)

// ErrInactiveUser indicates the user account is deactivated (maps to HTTP 403 Forbidden).
var ErrInactiveUser = errors.New("inactive user")

// ErrDuplicateKey indicates a unique constraint violation (maps to HTTP 409 Conflict).
var ErrDuplicateKey = errors.New("duplicate key")

// ErrAlreadyMember indicates the user already belongs to the tenant.
var ErrAlreadyMember = errors.New("already a member")

// ErrSystemRole indicates an attempt to modify a seeded system role.
var ErrSystemRole = errors.New("system roles cannot be modified")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}
