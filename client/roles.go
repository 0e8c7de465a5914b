package client

import "context"

// RoleService handles role editor endpoints.
type RoleService struct {
	c *Client
}

// List returns all roles of the current tenant, system roles first.
func (s *RoleService) List(ctx context.Context) ([]Role, error) {
	var resp []Role
	if err := s.c.get(ctx, "/roles", nil, &resp, withToken|withTenant); err != nil {
		return nil, err
	}
	return resp, nil
}

// Create creates a custom role in the current tenant.
func (s *RoleService) Create(ctx context.Context, req *CreateRoleRequest) (*Role, error) {
	var resp Role
	if err := s.c.post(ctx, "/roles", req, &resp, withToken|withTenant); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Update modifies a custom role. Updating a system role fails server-side.
func (s *RoleService) Update(ctx context.Context, roleID string, req *UpdateRoleRequest) (*Role, error) {
	var resp Role
	if err := s.c.patch(ctx, "/roles/"+roleID, req, &resp, withToken|withTenant); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PermissionService handles the permission catalogue endpoint.
type PermissionService struct {
	c *Client
}

// List returns the server-defined permission catalogue. The catalogue is
// global, so the request carries no tenant scope.
func (s *PermissionService) List(ctx context.Context) ([]Permission, error) {
	var resp []Permission
	if err := s.c.get(ctx, "/permissions", nil, &resp, withToken); err != nil {
		return nil, err
	}
	return resp, nil
}
