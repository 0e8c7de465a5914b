package client

import (
	"encoding/json"
	"time"
)

// User is the identity record of the signed-in operator.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// RoleRef is the role a user holds within one tenant.
type RoleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tenant is one tenant membership of the signed-in user.
type Tenant struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Slug string  `json:"slug"`
	Role RoleRef `json:"role"`
}

// LoginResult is the response of POST /auth/login.
type LoginResult struct {
	Token   string   `json:"token"`
	User    User     `json:"user"`
	Tenants []Tenant `json:"tenants"`
}

// BootstrapRequest is the body of POST /auth/bootstrap.
type BootstrapRequest struct {
	TenantName string `json:"tenant_name"`
	TenantSlug string `json:"tenant_slug"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

// BootstrapResult is the response of POST /auth/bootstrap.
type BootstrapResult struct {
	Tenant Tenant `json:"tenant"`
	User   User   `json:"user"`
}

// MeResult is the response of GET /auth/me.
type MeResult struct {
	User    User     `json:"user"`
	Tenants []Tenant `json:"tenants"`
}

// MemberRow is one tenant membership as listed by GET /members.
type MemberRow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	RoleID    string    `json:"role_id"`
	RoleName  string    `json:"role_name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateMemberRequest creates a user (if missing) and adds them to the tenant.
type CreateMemberRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   string `json:"role_id"`
}

// CreatedMember is the response of POST /members.
type CreatedMember struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	RoleID string `json:"role_id"`
}

// Role is a tenant-scoped bundle of permission codes.
// System roles are immutable by the client.
type Role struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	IsSystem        bool      `json:"is_system"`
	PermissionCodes []string  `json:"permission_codes"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateRoleRequest is the body of POST /roles.
type CreateRoleRequest struct {
	Name            string   `json:"name"`
	PermissionCodes []string `json:"permission_codes"`
}

// UpdateRoleRequest is the body of PATCH /roles/:id. Nil fields are unchanged.
type UpdateRoleRequest struct {
	Name            *string   `json:"name,omitempty"`
	PermissionCodes *[]string `json:"permission_codes,omitempty"`
}

// Permission is an atomic, server-defined capability.
type Permission struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// AuditEntry is a single immutable audit log record.
type AuditEntry struct {
	ID          string          `json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	ActorUserID string          `json:"actor_user_id"`
	ActorEmail  string          `json:"actor_email"`
	Action      string          `json:"action"`
	EntityType  string          `json:"entity_type"`
	EntityID    *string         `json:"entity_id"`
	Before      json.RawMessage `json:"before"`
	After       json.RawMessage `json:"after"`
}

// AuditPage is one page of GET /audit. An empty NextCursor means the
// query is exhausted.
type AuditPage struct {
	Items      []AuditEntry `json:"items"`
	NextCursor string       `json:"next_cursor"`
}

// HealthResponse is the liveness check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
