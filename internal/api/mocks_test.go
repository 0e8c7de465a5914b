package api_test

import (
	"context"

	"github.com/accesspanel/accesspanel/internal/models"
	"github.com/accesspanel/accesspanel/internal/store"
)

// mockUserRepo implements api.UserRepository for testing.
type mockUserRepo struct {
	getForLoginFn func(ctx context.Context, email string) (*models.UserCredentials, error)
	getByIDFn     func(ctx context.Context, userID string) (*models.User, error)
	countFn       func(ctx context.Context) (int, error)
}

func (m *mockUserRepo) GetForLogin(ctx context.Context, email string) (*models.UserCredentials, error) {
	return m.getForLoginFn(ctx, email)
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID string) (*models.User, error) {
	return m.getByIDFn(ctx, userID)
}

func (m *mockUserRepo) CountUsers(ctx context.Context) (int, error) {
	if m.countFn == nil {
		return 1, nil
	}

	return m.countFn(ctx)
}

// mockTenantRepo implements api.TenantRepository for testing.
type mockTenantRepo struct {
	listFn      func(ctx context.Context, userID string) ([]models.Tenant, error)
	bootstrapFn func(ctx context.Context, tenantName, tenantSlug, email, passwordHash string) (*store.BootstrapResult, error)
}

func (m *mockTenantRepo) ListForUser(ctx context.Context, userID string) ([]models.Tenant, error) {
	if m.listFn == nil {
		return nil, nil
	}

	return m.listFn(ctx, userID)
}

func (m *mockTenantRepo) Bootstrap(ctx context.Context, tenantName, tenantSlug, email, passwordHash string) (*store.BootstrapResult, error) {
	return m.bootstrapFn(ctx, tenantName, tenantSlug, email, passwordHash)
}

// mockMemberRepo implements api.MemberRepository for testing.
type mockMemberRepo struct {
	listFn   func(ctx context.Context, tenantID, userID string) ([]models.MemberRow, error)
	createFn func(ctx context.Context, tenantID, actorUserID string, req *models.CreateMemberRequest, passwordHash string) (*models.CreatedMember, *models.AuditEntry, error)
}

func (m *mockMemberRepo) List(ctx context.Context, tenantID, userID string) ([]models.MemberRow, error) {
	return m.listFn(ctx, tenantID, userID)
}

func (m *mockMemberRepo) Create(ctx context.Context, tenantID, actorUserID string, req *models.CreateMemberRequest, passwordHash string) (*models.CreatedMember, *models.AuditEntry, error) {
	return m.createFn(ctx, tenantID, actorUserID, req, passwordHash)
}

// mockRoleRepo implements api.RoleRepository for testing.
type mockRoleRepo struct {
	listFn      func(ctx context.Context, tenantID, userID string) ([]models.Role, error)
	createFn    func(ctx context.Context, tenantID, actorUserID string, req *models.CreateRoleRequest) (*models.Role, *models.AuditEntry, error)
	updateFn    func(ctx context.Context, tenantID, actorUserID, roleID string, req *models.UpdateRoleRequest) (*models.Role, *models.AuditEntry, error)
	listPermsFn func(ctx context.Context, userID string) ([]models.Permission, error)
}

func (m *mockRoleRepo) List(ctx context.Context, tenantID, userID string) ([]models.Role, error) {
	return m.listFn(ctx, tenantID, userID)
}

func (m *mockRoleRepo) Create(ctx context.Context, tenantID, actorUserID string, req *models.CreateRoleRequest) (*models.Role, *models.AuditEntry, error) {
	return m.createFn(ctx, tenantID, actorUserID, req)
}

func (m *mockRoleRepo) Update(ctx context.Context, tenantID, actorUserID, roleID string, req *models.UpdateRoleRequest) (*models.Role, *models.AuditEntry, error) {
	return m.updateFn(ctx, tenantID, actorUserID, roleID, req)
}

func (m *mockRoleRepo) ListPermissions(ctx context.Context, userID string) ([]models.Permission, error) {
	return m.listPermsFn(ctx, userID)
}

// mockAuditRepo implements api.AuditRepository for testing.
type mockAuditRepo struct {
	queryFn func(ctx context.Context, tenantID, userID string, opts models.AuditQueryOpts) (*models.AuditPage, error)
}

func (m *mockAuditRepo) Query(ctx context.Context, tenantID, userID string, opts models.AuditQueryOpts) (*models.AuditPage, error) {
	return m.queryFn(ctx, tenantID, userID, opts)
}

// mockTokens implements api.TokenIssuer for testing.
type mockTokens struct {
	issueFn func(userID string) (string, error)
}

func (m *mockTokens) Issue(userID string) (string, error) {
	if m.issueFn == nil {
		return "test-token", nil
	}

	return m.issueFn(userID)
}

// mockGuard implements api.LoginGuard for testing.
type mockGuard struct {
	blocked  bool
	failures int
	resets   int
}

func (m *mockGuard) IsBlocked(string) bool { return m.blocked }
func (m *mockGuard) RecordFailure(string)  { m.failures++ }
func (m *mockGuard) Reset(string)          { m.resets++ }
