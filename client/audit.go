package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/coder/websocket"
)

// AuditService handles audit log endpoints.
type AuditService struct {
	c *Client
}

// AuditQueryOptions filters one audit page request. Cursor is opaque;
// pass the NextCursor of the previous page to continue it.
type AuditQueryOptions struct {
	Q          string
	EntityType string
	Limit      int
	Cursor     string
}

// Query returns one page of audit log entries, newest first.
func (s *AuditService) Query(ctx context.Context, opts *AuditQueryOptions) (*AuditPage, error) {
	params := url.Values{}
	if opts != nil {
		if opts.Q != "" {
			params.Set("q", opts.Q)
		}
		if opts.EntityType != "" {
			params.Set("entity_type", opts.EntityType)
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Cursor != "" {
			params.Set("cursor", opts.Cursor)
		}
	}
	var resp AuditPage
	if err := s.c.get(ctx, "/audit", params, &resp, withToken|withTenant); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ErrTailClosed is returned by AuditTail.Next after the server announced
// shutdown or closed the stream.
var ErrTailClosed = errors.New("audit tail closed")

// tailEvent is the wire envelope of one tail message.
type tailEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// AuditTail is a live stream of audit entries for the current tenant.
type AuditTail struct {
	conn *websocket.Conn
}

// Tail opens a websocket stream of audit entries as they are recorded.
func (s *AuditService) Tail(ctx context.Context) (*AuditTail, error) {
	token, tenantID := s.c.credentials()
	if token == "" || tenantID == "" {
		return nil, fmt.Errorf("audit tail requires a token and a tenant scope")
	}

	u := s.c.baseURL + "/audit/tail"
	if strings.HasPrefix(u, "http") {
		u = "ws" + strings.TrimPrefix(u, "http")
	}

	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+token)
	hdr.Set(TenantHeader, tenantID)

	conn, _, err := websocket.Dial(ctx, u, &websocket.DialOptions{
		HTTPClient: s.c.httpClient,
		HTTPHeader: hdr,
	})
	if err != nil {
		return nil, fmt.Errorf("dial audit tail: %w", err)
	}
	return &AuditTail{conn: conn}, nil
}

// Next blocks until the next audit entry arrives. It returns ErrTailClosed
// once the server announces shutdown.
func (t *AuditTail) Next(ctx context.Context) (*AuditEntry, error) {
	for {
		_, data, err := t.conn.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("read audit tail: %w", err)
		}

		var evt tailEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return nil, fmt.Errorf("decode tail event: %w", err)
		}

		switch evt.Type {
		case "audit.entry":
			var entry AuditEntry
			if err := json.Unmarshal(evt.Data, &entry); err != nil {
				return nil, fmt.Errorf("decode audit entry: %w", err)
			}
			return &entry, nil
		case "shutdown":
			return nil, ErrTailClosed
		default:
			// Unknown event types are skipped for forward compatibility.
		}
	}
}

// Close closes the underlying websocket connection.
func (t *AuditTail) Close() error {
	return t.conn.Close(websocket.StatusNormalClosure, "")
}
