// Package main provides a standalone import script that reads tenants,
// users, and memberships from a legacy admin-panel SQLite export and
// writes them into the access panel's PostgreSQL schema.
//
// Usage:
//
//	SQLITE_PATH=/path/to/export.sqlite DATABASE_URL=postgres://... go run ./scripts/migrate
//
// The connecting role must own the target tables (or hold BYPASSRLS);
// the import disables row security for its transaction.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	_ "modernc.org/sqlite"
)

// config holds environment-driven import settings.
type config struct {
	SQLitePath  string
	DatabaseURL string
	DryRun      bool
}

// skippedMembership records a membership that was skipped during import.
type skippedMembership struct {
	TenantSlug string
	Email      string
	Reason     string
}

// report holds the final import summary.
type report struct {
	Source              string
	Target              string
	TenantsRead         int
	TenantsInserted     int
	UsersRead           int
	UsersInserted       int
	UsersVerified       int
	MembershipsRead     int
	MembershipsInserted int
	MembershipsSkipped  int
	MembershipsVerified int
	SkippedMemberships  []skippedMembership
	SpotChecks          []string
	Duration            time.Duration
	DryRun              bool
	Err                 error
}

func main() {
	cfg := loadConfig()
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	slog.Info("starting import",
		"sqlite", cfg.SQLitePath,
		"dry_run", cfg.DryRun,
	)

	start := time.Now()
	r, err := runImport(context.Background(), cfg)
	r.Duration = time.Since(start)
	if err != nil {
		r.Err = err
		slog.Error("import failed", "error", err)
	}
	printReport(&r)
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads configuration from environment variables.
func loadConfig() config {
	return config{
		SQLitePath:  envOr("SQLITE_PATH", "export.sqlite"),
		DatabaseURL: envOr("DATABASE_URL", ""),
		DryRun:      os.Getenv("DRY_RUN") == "true" || os.Getenv("DRY_RUN") == "1",
	}
}

// runImport executes the full import pipeline.
//
//nolint:funlen // Import pipeline is sequential; splitting would hurt readability.
func runImport(ctx context.Context, cfg config) (report, error) {
	r := report{
		Source: cfg.SQLitePath,
		Target: sanitizeURL(cfg.DatabaseURL),
		DryRun: cfg.DryRun,
	}

	// Open SQLite (read-only).
	lite, err := sql.Open("sqlite", cfg.SQLitePath+"?mode=ro")
	if err != nil {
		return r, fmt.Errorf("open sqlite: %w", err)
	}
	defer lite.Close()

	tenants, err := readTenants(ctx, lite)
	if err != nil {
		return r, fmt.Errorf("read tenants: %w", err)
	}
	r.TenantsRead = len(tenants)
	slog.Info("read tenants from sqlite", "count", r.TenantsRead)

	users, err := readUsers(ctx, lite)
	if err != nil {
		return r, fmt.Errorf("read users: %w", err)
	}
	r.UsersRead = len(users)
	slog.Info("read users from sqlite", "count", r.UsersRead)

	memberships, err := readMemberships(ctx, lite)
	if err != nil {
		return r, fmt.Errorf("read memberships: %w", err)
	}
	r.MembershipsRead = len(memberships)
	slog.Info("read memberships from sqlite", "count", r.MembershipsRead)

	if cfg.DryRun {
		slog.Info("dry run, skipping PostgreSQL writes")
		r.TenantsInserted = r.TenantsRead
		r.UsersInserted = r.UsersRead
		r.MembershipsInserted = r.MembershipsRead
		return r, nil
	}

	// Connect to PostgreSQL and run in a transaction.
	conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return r, fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return r, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	// The import writes across every tenant; the app's per-tenant row
	// security settings do not apply to it.
	if _, err := tx.Exec(ctx, "SET LOCAL row_security = off"); err != nil {
		return r, fmt.Errorf("disable row security: %w", err)
	}

	r.TenantsInserted, err = insertTenants(ctx, tx, tenants)
	if err != nil {
		return r, fmt.Errorf("insert tenants: %w", err)
	}
	slog.Info("inserted tenants", "count", r.TenantsInserted)

	if err := insertUsers(ctx, tx, users); err != nil {
		return r, fmt.Errorf("insert users: %w", err)
	}
	r.UsersInserted = len(users)
	slog.Info("inserted users", "count", r.UsersInserted)

	inserted, skipped := insertMemberships(ctx, tx, memberships, buildUserSet(users), buildTenantSet(tenants))
	r.MembershipsInserted = inserted
	r.MembershipsSkipped = len(skipped)
	r.SkippedMemberships = skipped
	slog.Info("inserted memberships", "count", r.MembershipsInserted, "skipped", r.MembershipsSkipped)

	// Verify counts.
	r.UsersVerified, err = countRows(ctx, tx, "users")
	if err != nil {
		return r, fmt.Errorf("verify user count: %w", err)
	}
	r.MembershipsVerified, err = countRows(ctx, tx, "memberships")
	if err != nil {
		return r, fmt.Errorf("verify membership count: %w", err)
	}

	// Spot-check random users.
	r.SpotChecks, err = spotCheck(ctx, tx, users)
	if err != nil {
		return r, fmt.Errorf("spot check: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return r, fmt.Errorf("commit: %w", err)
	}
	slog.Info("transaction committed")
	return r, nil
}
