package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// tenant represents a tenant read from the legacy SQLite export.
type tenant struct {
	ID      string
	Name    string
	Slug    string
	Created string
}

// readTenants reads all tenants from SQLite.
func readTenants(ctx context.Context, db *sql.DB) ([]tenant, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, slug, created FROM tenants`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []tenant
	for rows.Next() {
		var t tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Created); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// insertTenants inserts tenants into PostgreSQL. Each insert fires the
// trigger that seeds the tenant's system roles, so roles exist before
// memberships are imported.
func insertTenants(ctx context.Context, tx pgx.Tx, tenants []tenant) (int, error) {
	inserted := 0
	for i := range tenants {
		t := &tenants[i]
		tag, err := tx.Exec(ctx,
			`INSERT INTO tenants (id, name, slug, created_at)
			 VALUES ($1,$2,$3,$4)
			 ON CONFLICT (slug) DO NOTHING`,
			t.ID, t.Name, t.Slug, parseTime(t.Created),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert tenant %s: %w", t.Slug, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// buildTenantSet creates an ID to slug lookup for imported tenants.
func buildTenantSet(tenants []tenant) map[string]string {
	m := make(map[string]string, len(tenants))
	for i := range tenants {
		m[tenants[i].ID] = tenants[i].Slug
	}
	return m
}
