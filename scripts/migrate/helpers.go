package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
)

// parseTime parses a SQLite datetime string to time.Time.
func parseTime(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		slog.Warn("unparseable time, using now", "value", s)
		return time.Now()
	}
	return t.UTC()
}

// sanitizeURL removes credentials from a database URL for display.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[unparseable URL]"
	}
	u.User = nil
	return u.String()
}

// envOr returns the environment variable value or a default.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// allowedTables is the set of table names that countRows may query.
var allowedTables = map[string]bool{
	"tenants":     true,
	"users":       true,
	"memberships": true,
}

// countRows counts rows in a table.
func countRows(ctx context.Context, tx pgx.Tx, table string) (int, error) {
	if !allowedTables[table] {
		return 0, fmt.Errorf("disallowed table name: %s", table)
	}

	var count int
	sanitized := pgx.Identifier{table}.Sanitize()
	err := tx.QueryRow(ctx,
		fmt.Sprintf("SELECT count(*) FROM %s", sanitized),
	).Scan(&count)
	return count, err
}

// spotCheck verifies 5 random users match between SQLite and PostgreSQL.
//
//nolint:unparam // error return kept for future use when spot-check failures become fatal.
func spotCheck(ctx context.Context, tx pgx.Tx, users []user) ([]string, error) {
	if len(users) == 0 {
		return nil, nil
	}
	count := min(5, len(users))
	indices := rand.Perm(len(users))[:count]
	var checks []string

	for _, idx := range indices {
		u := users[idx]
		var pgEmail, pgHash string
		var pgActive bool
		err := tx.QueryRow(ctx,
			`SELECT email, password_hash, is_active FROM users WHERE id = $1`,
			u.ID,
		).Scan(&pgEmail, &pgHash, &pgActive)
		if err != nil {
			checks = append(checks, fmt.Sprintf("❌ %s: not found in postgres: %v", u.Email, err))
			continue
		}
		if pgEmail == u.Email && pgHash == u.PasswordHash && pgActive == (u.IsActive != 0) {
			checks = append(checks, fmt.Sprintf("✅ %s: active=%t, hash intact", pgEmail, pgActive))
		} else {
			checks = append(checks, fmt.Sprintf("❌ %s: mismatch between postgres and sqlite", u.Email))
		}
	}
	return checks, nil
}

// printReport outputs the final import summary.
func printReport(r *report) {
	userStatus := statusIcon(r.UsersRead, r.UsersInserted, r.UsersVerified)
	memberStatus := statusIcon(r.MembershipsInserted, r.MembershipsInserted, r.MembershipsVerified)

	fmt.Println()
	fmt.Println("=== Access Panel Import Report ===")
	if r.DryRun {
		fmt.Println("MODE: DRY RUN (no changes made)")
	}
	fmt.Printf("Source: %s\n", r.Source)
	fmt.Printf("Target: %s\n", r.Target)
	fmt.Println()
	fmt.Printf("Tenants: %d read → %d inserted\n", r.TenantsRead, r.TenantsInserted)
	fmt.Printf("Users: %d read → %d inserted → %d verified %s\n",
		r.UsersRead, r.UsersInserted, r.UsersVerified, userStatus)
	if r.MembershipsSkipped > 0 {
		fmt.Printf("Memberships: %d read → %d inserted (%d skipped) → %d verified %s\n",
			r.MembershipsRead, r.MembershipsInserted, r.MembershipsSkipped, r.MembershipsVerified, memberStatus)
	} else {
		fmt.Printf("Memberships: %d read → %d inserted → %d verified %s\n",
			r.MembershipsRead, r.MembershipsInserted, r.MembershipsVerified, memberStatus)
	}

	if len(r.SkippedMemberships) > 0 {
		fmt.Println("\nSkipped memberships:")
		for _, s := range r.SkippedMemberships {
			fmt.Printf("  - %s / %s (reason: %s)\n", s.TenantSlug, s.Email, s.Reason)
		}
	}

	if len(r.SpotChecks) > 0 {
		fmt.Println("\nSpot checks:")
		for _, c := range r.SpotChecks {
			fmt.Printf("  %s\n", c)
		}
	}

	fmt.Printf("\nDuration: %.1fs\n", r.Duration.Seconds())
	if r.Err != nil {
		fmt.Printf("Status: FAILED: %v\n", r.Err)
	} else {
		fmt.Println("Status: SUCCESS")
	}
}

// statusIcon returns a check or X based on count match.
func statusIcon(expected, inserted, verified int) string {
	if verified == 0 && inserted > 0 {
		return "⏳"
	}
	if expected == inserted && inserted == verified {
		return "✅"
	}
	if inserted == verified {
		return "✅"
	}
	return "❌"
}
