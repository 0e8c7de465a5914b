// Package auditlog accumulates cursor-paginated audit log pages for one
// audit screen: first page replaces, "load more" appends, and a filter
// change discards everything before re-querying so pages from different
// filter sessions never mix.
package auditlog

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/accesspanel/accesspanel/client"
	"github.com/accesspanel/accesspanel/internal/session"
)

// DefaultPageSize is the fixed audit page size.
const DefaultPageSize = 50

// ErrNoTenantContext is returned when a query is attempted without an
// authenticated session and a selected tenant to scope it.
var ErrNoTenantContext = errors.New("audit queries require a signed-in session with a selected tenant")

// SessionSource provides the session snapshot queries are scoped by.
type SessionSource interface {
	Snapshot() session.Session
}

// Engine owns the query state of one audit screen.
type Engine struct {
	api      *client.Client
	sessions SessionSource
	log      *logrus.Logger
	pageSize int

	mu         sync.Mutex
	filterText string
	entityType string
	entries    []client.AuditEntry
	nextCursor string
	searched   bool
	// gen identifies the current filter session. A page that comes back
	// after the filters changed belongs to a dead session and is dropped.
	gen uint64
}

// NewEngine creates an Engine with the default page size.
func NewEngine(api *client.Client, sessions SessionSource, log *logrus.Logger) *Engine {
	return &Engine{
		api:      api,
		sessions: sessions,
		log:      log,
		pageSize: DefaultPageSize,
	}
}

// SetFilters updates the free-text and entity-type filters. A change
// atomically discards the accumulated entries and the cursor; in-flight
// requests from the previous filter session are invalidated. Setting
// the same values again keeps the current accumulation.
func (e *Engine) SetFilters(filterText, entityType string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.filterText == filterText && e.entityType == entityType {
		return
	}
	e.filterText = filterText
	e.entityType = entityType
	e.entries = nil
	e.nextCursor = ""
	e.searched = false
	e.gen++
}

// Search fetches the first page of the current filter session,
// replacing any accumulated entries. On failure the previous
// accumulation is left intact.
func (e *Engine) Search(ctx context.Context) error {
	e.mu.Lock()
	opts := &client.AuditQueryOptions{
		Q:          e.filterText,
		EntityType: e.entityType,
		Limit:      e.pageSize,
	}
	gen := e.gen
	e.mu.Unlock()

	if !e.hasTenantContext() {
		return ErrNoTenantContext
	}

	page, err := e.api.Audit.Query(ctx, opts)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		e.log.Debug("dropping audit page from a stale filter session")
		return nil
	}
	e.entries = page.Items
	e.nextCursor = page.NextCursor
	e.searched = true
	return nil
}

// LoadMore fetches the next page and appends it in server order. It is
// a no-op (returning false) when the query is exhausted or the session
// lacks tenant context. On failure the accumulation and cursor are
// unchanged.
func (e *Engine) LoadMore(ctx context.Context) (bool, error) {
	e.mu.Lock()
	cursor := e.nextCursor
	opts := &client.AuditQueryOptions{
		Q:          e.filterText,
		EntityType: e.entityType,
		Limit:      e.pageSize,
		Cursor:     cursor,
	}
	gen := e.gen
	e.mu.Unlock()

	if cursor == "" || !e.hasTenantContext() {
		return false, nil
	}

	page, err := e.api.Audit.Query(ctx, opts)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		e.log.Debug("dropping audit page from a stale filter session")
		return false, nil
	}
	e.entries = append(e.entries, page.Items...)
	e.nextCursor = page.NextCursor
	return true, nil
}

// Entries returns a copy of the accumulated entries, server order.
func (e *Engine) Entries() []client.AuditEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]client.AuditEntry, len(e.entries))
	copy(out, e.entries)
	return out
}

// Exhausted reports whether the current filter session has no further
// pages. It is also true before the first Search.
func (e *Engine) Exhausted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nextCursor == ""
}

// Searched reports whether the current filter session has loaded its
// first page, distinguishing "no data yet" from an empty result.
func (e *Engine) Searched() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.searched
}

func (e *Engine) hasTenantContext() bool {
	snap := e.sessions.Snapshot()
	return snap.Token != "" && snap.SelectedTenantID != ""
}
