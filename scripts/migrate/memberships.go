package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
)

// membership represents a tenant membership read from the legacy SQLite
// export. Role is a role name; it is resolved against the target schema
// during import.
type membership struct {
	TenantID string
	UserID   string
	Role     string
	Created  string
}

// readMemberships reads all memberships from SQLite.
func readMemberships(ctx context.Context, db *sql.DB) ([]membership, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT tenant_id, user_id, role, created FROM memberships`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []membership
	for rows.Next() {
		var m membership
		if err := rows.Scan(&m.TenantID, &m.UserID, &m.Role, &m.Created); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// insertMemberships inserts memberships, skipping rows whose tenant or
// user was not part of the export or whose role name does not resolve.
func insertMemberships(ctx context.Context, tx pgx.Tx, memberships []membership,
	userEmails, tenantSlugs map[string]string) (int, []skippedMembership) {

	roles := make(map[string]string) // "tenantID/roleName" -> role id
	var skipped []skippedMembership
	inserted := 0

	for i := 0; i < len(memberships); i++ {
		m := memberships[i]
		slug, ok := tenantSlugs[m.TenantID]
		if !ok {
			skipped = append(skipped, skippedMembership{m.TenantID, m.UserID, "tenant not found"})
			continue
		}
		email, ok := userEmails[m.UserID]
		if !ok {
			skipped = append(skipped, skippedMembership{slug, m.UserID, "user not found"})
			continue
		}

		roleID, err := resolveRole(ctx, tx, roles, m.TenantID, m.Role)
		if err != nil {
			skipped = append(skipped, skippedMembership{slug, email, fmt.Sprintf("role %q: %v", m.Role, err)})
			continue
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO memberships (tenant_id, user_id, role_id, created_at)
			 VALUES ($1,$2,$3,$4)
			 ON CONFLICT (tenant_id, user_id) DO NOTHING`,
			m.TenantID, m.UserID, roleID, parseTime(m.Created),
		)
		if err != nil {
			slog.Warn("membership insert failed, skipping", "tenant", slug, "email", email, "error", err)
			skipped = append(skipped, skippedMembership{slug, email, err.Error()})
			continue
		}
		inserted++
	}
	return inserted, skipped
}

// resolveRole looks up a role id by tenant and name, caching results.
// Legacy role names match the seeded system roles; tenants with custom
// roles must create them before re-running the import.
func resolveRole(ctx context.Context, tx pgx.Tx, cache map[string]string, tenantID, name string) (string, error) {
	key := tenantID + "/" + name
	if id, ok := cache[key]; ok {
		return id, nil
	}

	var id string
	err := tx.QueryRow(ctx,
		`SELECT id FROM roles WHERE tenant_id = $1 AND name = $2`,
		tenantID, name,
	).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", fmt.Errorf("no such role in tenant")
		}
		return "", err
	}
	cache[key] = id
	return id, nil
}
