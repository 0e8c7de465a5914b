// Package store provides focused, single-concern data access stores
// for the access panel.
//
// Each store owns one domain (users, tenants, members, roles, audit)
// and embeds shared helpers (Pool, logger) via the Base struct. Stores
// never import each other; shared logic lives in this file.
//
// Row-level security: every table forces RLS keyed off the
// app.tenant_id and app.user_id session settings. beginTx and
// beginReadTx set both for the duration of the transaction, so a query
// can never read across tenants even if its WHERE clause is wrong.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/accesspanel/accesspanel/internal/dbpool"
	"github.com/accesspanel/accesspanel/internal/models"
)

const defaultQueryTimeout = 30 * time.Second

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// setAppContext sets the user and tenant context for RLS policies
// within a transaction. Either ID may be empty, in which case the
// corresponding setting is left unset and the matching policies deny.
func setAppContext(ctx context.Context, tx pgx.Tx, tenantID, userID string) error {
	if tenantID != "" {
		if _, err := uuid.Parse(tenantID); err != nil {
			return fmt.Errorf("invalid tenant ID format: %w", err)
		}
		if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
			return fmt.Errorf("setting tenant context: %w", err)
		}
	}

	if userID != "" {
		if _, err := uuid.Parse(userID); err != nil {
			return fmt.Errorf("invalid user ID format: %w", err)
		}
		if _, err := tx.Exec(ctx, "SELECT set_config('app.user_id', $1, true)", userID); err != nil {
			return fmt.Errorf("setting user context: %w", err)
		}
	}

	return nil
}

// beginTx starts a read-write transaction and sets the RLS context.
func (b *Base) beginTx(ctx context.Context, tenantID, userID string) (pgx.Tx, error) {
	tx, err := b.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	if err := setAppContext(ctx, tx, tenantID, userID); err != nil {
		tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on setup failure.

		return nil, err
	}

	return tx, nil
}

// beginReadTx starts a read-only transaction and sets the RLS context.
func (b *Base) beginReadTx(ctx context.Context, tenantID, userID string) (pgx.Tx, error) {
	tx, err := b.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}

	if err := setAppContext(ctx, tx, tenantID, userID); err != nil {
		tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on setup failure.

		return nil, err
	}

	return tx, nil
}

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

// mapPgError converts well-known PostgreSQL errors to model sentinels.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return models.ErrDuplicateKey
	}

	return err
}

// recordAudit inserts an audit log entry within the caller's
// transaction, so the entry commits or rolls back with the change it
// describes. before/after may be nil.
func recordAudit(
	ctx context.Context, tx pgx.Tx,
	tenantID, actorUserID, action, entityType, entityID string,
	before, after any,
) (*models.AuditEntry, error) {
	var beforeJSON, afterJSON []byte
	var err error

	if before != nil {
		beforeJSON, err = json.Marshal(before)
		if err != nil {
			return nil, fmt.Errorf("marshaling audit before state: %w", err)
		}
	}
	if after != nil {
		afterJSON, err = json.Marshal(after)
		if err != nil {
			return nil, fmt.Errorf("marshaling audit after state: %w", err)
		}
	}

	entry := models.AuditEntry{
		TenantID:    tenantID,
		ActorUserID: actorUserID,
		Action:      action,
		EntityType:  entityType,
		Before:      beforeJSON,
		After:       afterJSON,
	}
	if entityID != "" {
		entry.EntityID = &entityID
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO audit_log (tenant_id, actor_user_id, action, entity_type, entity_id, before, after)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		tenantID, actorUserID, action, entityType, entry.EntityID, beforeJSON, afterJSON,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting audit entry: %w", err)
	}

	return &entry, nil
}

// actorEmail resolves the acting user's email for audit payloads.
func (b *Base) actorEmail(ctx context.Context, tx pgx.Tx, userID string) (string, error) {
	var email string
	if err := tx.QueryRow(ctx, "SELECT COALESCE(app_user_email($1), '')", userID).Scan(&email); err != nil {
		return "", fmt.Errorf("resolving actor email: %w", err)
	}

	return email, nil
}
