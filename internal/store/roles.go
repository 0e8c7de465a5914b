package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/accesspanel/accesspanel/internal/models"
)

// RoleStore handles roles and the permission catalog.
type RoleStore struct {
	Base
}

// NewRoleStore creates a RoleStore.
func NewRoleStore(base Base) *RoleStore {
	return &RoleStore{Base: base}
}

// roleSelect aggregates each role with its sorted permission codes.
const roleSelect = `
	SELECT
	  r.id,
	  r.name,
	  r.is_system,
	  r.created_at,
	  COALESCE(array_agg(rp.permission_code ORDER BY rp.permission_code)
	           FILTER (WHERE rp.permission_code IS NOT NULL), ARRAY[]::text[])
	FROM roles r
	LEFT JOIN role_permissions rp ON rp.role_id = r.id
	WHERE r.tenant_id = $1`

// List returns the tenant's roles, system roles first, then by name.
func (s *RoleStore) List(ctx context.Context, tenantID, userID string) ([]models.Role, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	rows, err := tx.Query(ctx, roleSelect+" GROUP BY r.id ORDER BY r.is_system DESC, r.name ASC", tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var r models.Role
		if err := rows.Scan(&r.ID, &r.Name, &r.IsSystem, &r.CreatedAt, &r.PermissionCodes); err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}
		roles = append(roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading roles: %w", err)
	}

	return roles, nil
}

// getRole reads one role with its permission codes inside an open transaction.
func getRole(ctx context.Context, tx pgx.Tx, tenantID, roleID string) (*models.Role, error) {
	var r models.Role

	err := tx.QueryRow(ctx, roleSelect+" AND r.id = $2 GROUP BY r.id", tenantID, roleID).
		Scan(&r.ID, &r.Name, &r.IsSystem, &r.CreatedAt, &r.PermissionCodes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading role: %w", err)
	}

	return &r, nil
}

// replacePermissions rewrites the role's permission grants. The
// tenant_id column is filled by a trigger from the role's tenant.
func replacePermissions(ctx context.Context, tx pgx.Tx, tenantID, roleID string, codes []string) error {
	if _, err := tx.Exec(ctx,
		"DELETE FROM role_permissions WHERE tenant_id = $1 AND role_id = $2",
		tenantID, roleID,
	); err != nil {
		return fmt.Errorf("clearing role permissions: %w", err)
	}

	for _, code := range codes {
		if _, err := tx.Exec(ctx, `
			INSERT INTO role_permissions (role_id, permission_code, tenant_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (role_id, permission_code) DO NOTHING`,
			roleID, code, tenantID,
		); err != nil {
			return fmt.Errorf("granting permission %q: %w", code, err)
		}
	}

	return nil
}

// Create inserts a custom role with the requested permission grants
// and records an audit entry in the same transaction.
func (s *RoleStore) Create(
	ctx context.Context, tenantID, actorUserID string, req *models.CreateRoleRequest,
) (*models.Role, *models.AuditEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID, actorUserID)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	var roleID string
	err = tx.QueryRow(ctx, `
		INSERT INTO roles (tenant_id, name, is_system)
		VALUES ($1, $2, false)
		RETURNING id`,
		tenantID, req.Name,
	).Scan(&roleID)
	if err != nil {
		return nil, nil, fmt.Errorf("inserting role: %w", mapPgError(err))
	}

	for _, code := range req.PermissionCodes {
		if _, err := tx.Exec(ctx, `
			INSERT INTO role_permissions (role_id, permission_code, tenant_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (role_id, permission_code) DO NOTHING`,
			roleID, code, tenantID,
		); err != nil {
			return nil, nil, fmt.Errorf("granting permission %q: %w", code, err)
		}
	}

	role, err := getRole(ctx, tx, tenantID, roleID)
	if err != nil {
		return nil, nil, err
	}

	entry, err := recordAudit(ctx, tx, tenantID, actorUserID, "role.created", "role", roleID,
		nil,
		map[string]any{"id": roleID, "name": role.Name, "permission_codes": role.PermissionCodes},
	)
	if err != nil {
		return nil, nil, err
	}
	entry.ActorEmail, err = s.actorEmail(ctx, tx, actorUserID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("committing role creation: %w", err)
	}

	return role, entry, nil
}

// Update applies a partial update to a role, auditing the before and
// after states. Returns models.ErrRoleNotFound when the role does not
// exist in the tenant.
func (s *RoleStore) Update(
	ctx context.Context, tenantID, actorUserID, roleID string, req *models.UpdateRoleRequest,
) (*models.Role, *models.AuditEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID, actorUserID)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	before, err := getRole(ctx, tx, tenantID, roleID)
	if err != nil {
		return nil, nil, err
	}
	if before.IsSystem {
		return nil, nil, models.ErrSystemRole
	}

	if req.Name != nil {
		if _, err := tx.Exec(ctx,
			"UPDATE roles SET name = $1, updated_at = now() WHERE tenant_id = $2 AND id = $3",
			*req.Name, tenantID, roleID,
		); err != nil {
			return nil, nil, fmt.Errorf("renaming role: %w", mapPgError(err))
		}
	}

	if req.PermissionCodes != nil {
		if err := replacePermissions(ctx, tx, tenantID, roleID, *req.PermissionCodes); err != nil {
			return nil, nil, err
		}
	}

	after, err := getRole(ctx, tx, tenantID, roleID)
	if err != nil {
		return nil, nil, err
	}

	entry, err := recordAudit(ctx, tx, tenantID, actorUserID, "role.updated", "role", roleID,
		map[string]any{"role": before, "permission_codes": before.PermissionCodes},
		map[string]any{"role": after, "permission_codes": after.PermissionCodes},
	)
	if err != nil {
		return nil, nil, err
	}
	entry.ActorEmail, err = s.actorEmail(ctx, tx, actorUserID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("committing role update: %w", err)
	}

	return after, entry, nil
}

// ListPermissions returns the full permission catalog, ordered by code.
func (s *RoleStore) ListPermissions(ctx context.Context, userID string) ([]models.Permission, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, "", userID)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	rows, err := tx.Query(ctx, "SELECT code, description FROM permissions ORDER BY code ASC")
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}
	defer rows.Close()

	var perms []models.Permission
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.Code, &p.Description); err != nil {
			return nil, fmt.Errorf("scanning permission: %w", err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading permissions: %w", err)
	}

	return perms, nil
}
