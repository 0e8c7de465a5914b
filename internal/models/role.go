package models

import "time"

// Role is a named permission bundle scoped to one tenant.
type Role struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"-"`
	Name            string    `json:"name"`
	IsSystem        bool      `json:"is_system"`
	PermissionCodes []string  `json:"permission_codes"`
	CreatedAt       time.Time `json:"created_at"`
}

// Permission is a grantable capability in the permission catalog.
type Permission struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// CreateRoleRequest is the payload for creating a custom role.
type CreateRoleRequest struct {
	Name            string   `json:"name"`
	PermissionCodes []string `json:"permission_codes"`
}

// Validate checks that required fields are present and within limits on CreateRoleRequest.
func (r *CreateRoleRequest) Validate() error {
	if r.Name == "" {
		return ErrMissingName
	}

	if len(r.Name) > 100 {
		return ErrFieldTooLong("name", 100)
	}

	for _, code := range r.PermissionCodes {
		if len(code) > 100 {
			return ErrFieldTooLong("permission_code", 100)
		}
	}

	return nil
}

// UpdateRoleRequest is the payload for partially updating a role. Nil
// fields are left unchanged; a non-nil empty PermissionCodes clears all
// permission grants.
type UpdateRoleRequest struct {
	Name            *string   `json:"name"`
	PermissionCodes *[]string `json:"permission_codes"`
}

// Validate checks field limits on UpdateRoleRequest.
func (r *UpdateRoleRequest) Validate() error {
	if r.Name != nil {
		if *r.Name == "" {
			return ErrMissingName
		}
		if len(*r.Name) > 100 {
			return ErrFieldTooLong("name", 100)
		}
	}

	if r.PermissionCodes != nil {
		for _, code := range *r.PermissionCodes {
			if len(code) > 100 {
				return ErrFieldTooLong("permission_code", 100)
			}
		}
	}

	return nil
}
