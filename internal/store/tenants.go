package store

import (
	"context"
	"fmt"

	"github.com/accesspanel/accesspanel/internal/models"
)

// TenantStore handles tenant listings and first-run bootstrap.
type TenantStore struct {
	Base
}

// NewTenantStore creates a TenantStore.
func NewTenantStore(base Base) *TenantStore {
	return &TenantStore{Base: base}
}

// ListForUser returns the tenants the user belongs to, each annotated
// with the user's role, ordered by tenant name.
func (s *TenantStore) ListForUser(ctx context.Context, userID string) ([]models.Tenant, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, "", userID)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	rows, err := tx.Query(ctx, `
		SELECT t.id, t.name, t.slug, r.id, r.name, t.created_at
		FROM tenants t
		JOIN memberships m ON m.tenant_id = t.id
		JOIN roles r ON r.id = m.role_id
		WHERE m.user_id = $1
		ORDER BY t.name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	defer rows.Close()

	var tenants []models.Tenant
	for rows.Next() {
		var t models.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Role.ID, &t.Role.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading tenants: %w", err)
	}

	return tenants, nil
}

// BootstrapResult identifies the tenant and owner created by Bootstrap.
type BootstrapResult struct {
	UserID   string
	TenantID string
	Tenant   models.Tenant
	User     models.User
}

// Bootstrap creates the first tenant with its Owner membership in one
// call, via a SECURITY DEFINER database function.
func (s *TenantStore) Bootstrap(ctx context.Context, tenantName, tenantSlug, email, passwordHash string) (*BootstrapResult, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var res BootstrapResult

	err := s.Pool.QueryRow(ctx,
		"SELECT user_id, tenant_id FROM app_bootstrap($1, $2, $3::citext, $4)",
		tenantName, tenantSlug, email, passwordHash,
	).Scan(&res.UserID, &res.TenantID)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping tenant: %w", mapPgError(err))
	}

	tx, err := s.beginReadTx(ctx, res.TenantID, res.UserID)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	err = tx.QueryRow(ctx, `
		SELECT t.id, t.name, t.slug, t.created_at, r.id, r.name
		FROM tenants t
		JOIN memberships m ON m.tenant_id = t.id AND m.user_id = $2
		JOIN roles r ON r.id = m.role_id
		WHERE t.id = $1`,
		res.TenantID, res.UserID,
	).Scan(&res.Tenant.ID, &res.Tenant.Name, &res.Tenant.Slug, &res.Tenant.CreatedAt,
		&res.Tenant.Role.ID, &res.Tenant.Role.Name)
	if err != nil {
		return nil, fmt.Errorf("reading bootstrapped tenant: %w", err)
	}

	err = tx.QueryRow(ctx,
		"SELECT id, email::text FROM users WHERE id = $1", res.UserID,
	).Scan(&res.User.ID, &res.User.Email)
	if err != nil {
		return nil, fmt.Errorf("reading bootstrapped user: %w", err)
	}

	return &res, nil
}
