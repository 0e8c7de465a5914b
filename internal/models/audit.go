package models

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"-"`
	ActorUserID string          `json:"actor_user_id"`
	ActorEmail  string          `json:"actor_email"`
	Action      string          `json:"action"`
	EntityType  string          `json:"entity_type"`
	EntityID    *string         `json:"entity_id"`
	Before      json.RawMessage `json:"before"`
	After       json.RawMessage `json:"after"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AuditQueryOpts holds filters for querying the audit log.
type AuditQueryOpts struct {
	Q          string
	EntityType string
	Limit      int
	Cursor     *AuditCursor
}

// AuditCursor is a keyset position in the (created_at DESC, id DESC)
// ordering of the audit log.
type AuditCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

// Encode serializes the cursor as URL-safe base64 over JSON. The
// encoding is opaque to clients; only the server interprets it.
func (c AuditCursor) Encode() string {
	payload, _ := json.Marshal(c) //nolint:errcheck // static fields, cannot fail.
	return base64.URLEncoding.EncodeToString(payload)
}

// DecodeAuditCursor parses a cursor produced by Encode.
func DecodeAuditCursor(s string) (*AuditCursor, error) {
	if s == "" {
		return nil, nil
	}

	raw, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding cursor: %w", err)
	}

	var c AuditCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing cursor: %w", err)
	}

	if c.CreatedAt.IsZero() || c.ID == "" {
		return nil, fmt.Errorf("cursor is missing position fields")
	}

	return &c, nil
}

// AuditPage is one page of audit results. NextCursor is empty when the
// query is exhausted.
type AuditPage struct {
	Items      []AuditEntry `json:"items"`
	NextCursor string       `json:"next_cursor"`
}
