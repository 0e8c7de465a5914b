package store

import (
	"context"
	"fmt"

	"github.com/accesspanel/accesspanel/internal/models"
)

// MemberStore handles tenant memberships.
type MemberStore struct {
	Base
}

// NewMemberStore creates a MemberStore.
func NewMemberStore(base Base) *MemberStore {
	return &MemberStore{Base: base}
}

// IsMember reports whether the user belongs to the tenant.
func (s *MemberStore) IsMember(ctx context.Context, tenantID, userID string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var member bool
	if err := s.Pool.QueryRow(ctx, "SELECT app_is_member($1, $2)", tenantID, userID).Scan(&member); err != nil {
		return false, fmt.Errorf("checking membership: %w", err)
	}

	return member, nil
}

// HasPermission reports whether the user's role in the tenant grants
// the given permission code.
func (s *MemberStore) HasPermission(ctx context.Context, tenantID, userID, code string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID, userID)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	var granted bool

	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM memberships m
			JOIN role_permissions rp ON rp.role_id = m.role_id
			WHERE m.tenant_id = $1 AND m.user_id = $2 AND rp.permission_code = $3
		)`,
		tenantID, userID, code,
	).Scan(&granted)
	if err != nil {
		return false, fmt.Errorf("checking permission: %w", err)
	}

	return granted, nil
}

// List returns all memberships of the tenant, newest first.
func (s *MemberStore) List(ctx context.Context, tenantID, userID string) ([]models.MemberRow, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	rows, err := tx.Query(ctx, `
		SELECT m.id, m.user_id, app_user_email(m.user_id), r.id, r.name, m.created_at
		FROM memberships m
		JOIN roles r ON r.id = m.role_id
		WHERE m.tenant_id = $1
		ORDER BY m.created_at DESC`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	var members []models.MemberRow
	for rows.Next() {
		var m models.MemberRow
		if err := rows.Scan(&m.ID, &m.UserID, &m.Email, &m.RoleID, &m.RoleName, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading members: %w", err)
	}

	return members, nil
}

// Create upserts the user account and adds a membership for it,
// recording an audit entry in the same transaction. Returns
// models.ErrAlreadyMember when the user already belongs to the tenant.
func (s *MemberStore) Create(
	ctx context.Context, tenantID, actorUserID string,
	req *models.CreateMemberRequest, passwordHash string,
) (*models.CreatedMember, *models.AuditEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID, actorUserID)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	var roleExists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM roles WHERE tenant_id = $1 AND id = $2)",
		tenantID, req.RoleID,
	).Scan(&roleExists)
	if err != nil {
		return nil, nil, fmt.Errorf("checking role: %w", err)
	}
	if !roleExists {
		return nil, nil, models.ErrRoleNotFound
	}

	var userID string
	if err := tx.QueryRow(ctx,
		"SELECT app_upsert_user($1::citext, $2)", req.Email, passwordHash,
	).Scan(&userID); err != nil {
		return nil, nil, fmt.Errorf("upserting user: %w", err)
	}

	var exists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM memberships WHERE tenant_id = $1 AND user_id = $2)",
		tenantID, userID,
	).Scan(&exists)
	if err != nil {
		return nil, nil, fmt.Errorf("checking existing membership: %w", err)
	}
	if exists {
		return nil, nil, models.ErrAlreadyMember
	}

	created := models.CreatedMember{UserID: userID, RoleID: req.RoleID}

	err = tx.QueryRow(ctx, `
		INSERT INTO memberships (tenant_id, user_id, role_id)
		VALUES ($1, $2, $3)
		RETURNING id`,
		tenantID, userID, req.RoleID,
	).Scan(&created.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("inserting membership: %w", mapPgError(err))
	}

	entry, err := recordAudit(ctx, tx, tenantID, actorUserID, "member.created", "membership", created.ID,
		nil,
		map[string]any{
			"membership_id": created.ID,
			"user_id":       userID,
			"email":         req.Email,
			"role_id":       req.RoleID,
		},
	)
	if err != nil {
		return nil, nil, err
	}
	entry.ActorEmail, err = s.actorEmail(ctx, tx, actorUserID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("committing member creation: %w", err)
	}

	return &created, entry, nil
}
