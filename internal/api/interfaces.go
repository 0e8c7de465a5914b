package api

import (
	"context"

	"github.com/accesspanel/accesspanel/internal/models"
	"github.com/accesspanel/accesspanel/internal/store"
)

// UserRepository defines account lookups used by the auth handler and
// the auth middleware.
type UserRepository interface {
	GetForLogin(ctx context.Context, email string) (*models.UserCredentials, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// TenantRepository defines tenant operations used by AuthHandler and
// TenantHandler.
type TenantRepository interface {
	ListForUser(ctx context.Context, userID string) ([]models.Tenant, error)
	Bootstrap(ctx context.Context, tenantName, tenantSlug, email, passwordHash string) (*store.BootstrapResult, error)
}

// MemberRepository defines membership operations used by MemberHandler.
type MemberRepository interface {
	List(ctx context.Context, tenantID, userID string) ([]models.MemberRow, error)
	Create(ctx context.Context, tenantID, actorUserID string, req *models.CreateMemberRequest, passwordHash string) (*models.CreatedMember, *models.AuditEntry, error)
}

// RoleRepository defines role and permission operations used by RoleHandler.
type RoleRepository interface {
	List(ctx context.Context, tenantID, userID string) ([]models.Role, error)
	Create(ctx context.Context, tenantID, actorUserID string, req *models.CreateRoleRequest) (*models.Role, *models.AuditEntry, error)
	Update(ctx context.Context, tenantID, actorUserID, roleID string, req *models.UpdateRoleRequest) (*models.Role, *models.AuditEntry, error)
	ListPermissions(ctx context.Context, userID string) ([]models.Permission, error)
}

// AuditRepository defines audit log reads used by AuditHandler. Writes
// happen inside the member and role stores.
type AuditRepository interface {
	Query(ctx context.Context, tenantID, userID string, opts models.AuditQueryOpts) (*models.AuditPage, error)
}

// TokenIssuer creates access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// LoginGuard throttles repeated login failures per account.
type LoginGuard interface {
	IsBlocked(email string) bool
	RecordFailure(email string)
	Reset(email string)
}
