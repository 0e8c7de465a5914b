package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/accesspanel/accesspanel/internal/models"
)

// AuditStore provides read access to the audit_log table. Writes
// happen inside the member and role stores so entries commit with the
// changes they describe.
type AuditStore struct {
	Base
}

// NewAuditStore creates an AuditStore.
func NewAuditStore(base Base) *AuditStore {
	return &AuditStore{Base: base}
}

// defaultAuditLimit is the page size applied when the caller passes none.
const defaultAuditLimit = 50

// buildAuditFilter builds the WHERE tail and args from AuditQueryOpts.
// The leading tenant predicate is $1; returned conditions continue
// from $2. The free-text filter matches action, entity type, and actor
// email case-insensitively.
func buildAuditFilter(opts models.AuditQueryOpts) (where string, args []any) {
	conditions := []string{"a.tenant_id = $1"}
	argIdx := 2

	if opts.EntityType != "" {
		conditions = append(conditions, "a.entity_type = $"+strconv.Itoa(argIdx))
		args = append(args, opts.EntityType)
		argIdx++
	}
	if opts.Q != "" {
		p := "$" + strconv.Itoa(argIdx)
		conditions = append(conditions,
			"(a.action ILIKE "+p+" OR a.entity_type ILIKE "+p+" OR app_user_email(a.actor_user_id) ILIKE "+p+")")
		args = append(args, "%"+opts.Q+"%")
		argIdx++
	}
	if opts.Cursor != nil {
		conditions = append(conditions,
			"(a.created_at, a.id) < ($"+strconv.Itoa(argIdx)+", $"+strconv.Itoa(argIdx+1)+")")
		args = append(args, opts.Cursor.CreatedAt, opts.Cursor.ID)
		argIdx += 2
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// Query returns one page of audit entries in (created_at DESC, id
// DESC) order. A next cursor is emitted only when the page came back
// full; a short page means the query is exhausted.
func (s *AuditStore) Query(
	ctx context.Context, tenantID, userID string, opts models.AuditQueryOpts,
) (*models.AuditPage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	where, args := buildAuditFilter(opts)
	args = append([]any{tenantID}, args...)

	query := fmt.Sprintf(`
		SELECT
		  a.id,
		  a.created_at,
		  a.actor_user_id,
		  COALESCE(app_user_email(a.actor_user_id), ''),
		  a.action,
		  a.entity_type,
		  a.entity_id,
		  a.before,
		  a.after
		FROM audit_log a
		%s
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $%d`, where, len(args)+1)
	args = append(args, limit)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(
			&e.ID, &e.CreatedAt, &e.ActorUserID, &e.ActorEmail,
			&e.Action, &e.EntityType, &e.EntityID, &e.Before, &e.After,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading audit entries: %w", err)
	}

	page := &models.AuditPage{Items: entries}
	if len(entries) == limit {
		last := entries[len(entries)-1]
		page.NextCursor = models.AuditCursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}

	return page, nil
}
