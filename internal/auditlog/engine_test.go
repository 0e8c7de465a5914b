package auditlog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/accesspanel/accesspanel/client"
	"github.com/accesspanel/accesspanel/internal/session"
)

type fixedSession struct {
	sess session.Session
}

func (f fixedSession) Snapshot() session.Session { return f.sess }

var scopedSession = fixedSession{sess: session.Session{
	Token:            "tok",
	SelectedTenantID: "t-a",
}}

// newEngine wires an Engine against a test server whose /audit handler
// pages by cursor: no cursor returns two entries and cursor "c1",
// cursor "c1" returns one entry and no cursor.
func newEngine(t *testing.T, src SessionSource, handler http.HandlerFunc) *Engine {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/audit", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	api := client.New(srv.URL, client.WithToken("tok"), client.WithTenant("t-a"))
	return NewEngine(api, src, log)
}

func pagedHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var page client.AuditPage
		switch r.URL.Query().Get("cursor") {
		case "":
			page = client.AuditPage{
				Items: []client.AuditEntry{
					{ID: "a1", Action: "role.created"},
					{ID: "a2", Action: "role.updated"},
				},
				NextCursor: "c1",
			}
		case "c1":
			page = client.AuditPage{
				Items: []client.AuditEntry{{ID: "a3", Action: "member.created"}},
			}
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page) //nolint:errcheck
	}
}

func entryIDs(entries []client.AuditEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func TestEngine_SearchThenLoadMoreAccumulates(t *testing.T) {
	e := newEngine(t, scopedSession, pagedHandler(t))
	ctx := context.Background()

	if e.Searched() {
		t.Error("Searched should be false before the first query")
	}

	if err := e.Search(ctx); err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if !e.Searched() {
		t.Error("Searched should be true after the first page")
	}
	if e.Exhausted() {
		t.Error("engine should not be exhausted with a cursor pending")
	}

	more, err := e.LoadMore(ctx)
	if err != nil {
		t.Fatalf("LoadMore error: %v", err)
	}
	if !more {
		t.Fatal("LoadMore should report progress")
	}

	got := entryIDs(e.Entries())
	want := []string{"a1", "a2", "a3"}
	if len(got) != len(want) {
		t.Fatalf("got entries %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got entries %v, want %v", got, want)
		}
	}

	if !e.Exhausted() {
		t.Error("engine should be exhausted after the last page")
	}

	// Further loads are no-ops once the cursor is gone.
	more, err = e.LoadMore(ctx)
	if err != nil {
		t.Fatalf("LoadMore error: %v", err)
	}
	if more {
		t.Error("LoadMore past the end should be a no-op")
	}
}

func TestEngine_SearchReplacesAccumulation(t *testing.T) {
	e := newEngine(t, scopedSession, pagedHandler(t))
	ctx := context.Background()

	if err := e.Search(ctx); err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if _, err := e.LoadMore(ctx); err != nil {
		t.Fatalf("LoadMore error: %v", err)
	}
	if err := e.Search(ctx); err != nil {
		t.Fatalf("second Search error: %v", err)
	}

	if got := len(e.Entries()); got != 2 {
		t.Errorf("re-search should replace accumulation, got %d entries", got)
	}
}

func TestEngine_FilterChangeResets(t *testing.T) {
	e := newEngine(t, scopedSession, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := client.AuditPage{NextCursor: "c1"}
		if q.Get("q") == "role" {
			page.Items = []client.AuditEntry{{ID: "f1"}}
		} else {
			page.Items = []client.AuditEntry{{ID: "a1"}}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page) //nolint:errcheck
	})
	ctx := context.Background()

	if err := e.Search(ctx); err != nil {
		t.Fatalf("Search error: %v", err)
	}

	e.SetFilters("role", "")
	if e.Searched() {
		t.Error("filter change should reset the searched flag")
	}
	if got := len(e.Entries()); got != 0 {
		t.Errorf("filter change should discard entries, got %d", got)
	}
	if !e.Exhausted() {
		t.Error("filter change should drop the cursor")
	}

	// LoadMore without a fresh Search does nothing.
	more, err := e.LoadMore(ctx)
	if err != nil {
		t.Fatalf("LoadMore error: %v", err)
	}
	if more {
		t.Error("LoadMore after a filter reset should be a no-op")
	}

	if err := e.Search(ctx); err != nil {
		t.Fatalf("Search error: %v", err)
	}
	entries := e.Entries()
	if len(entries) != 1 || entries[0].ID != "f1" {
		t.Errorf("filtered search returned %v", entryIDs(entries))
	}
}

func TestEngine_SameFiltersKeepAccumulation(t *testing.T) {
	e := newEngine(t, scopedSession, pagedHandler(t))

	if err := e.Search(context.Background()); err != nil {
		t.Fatalf("Search error: %v", err)
	}
	e.SetFilters("", "")

	if got := len(e.Entries()); got != 2 {
		t.Errorf("unchanged filters should keep entries, got %d", got)
	}
	if !e.Searched() {
		t.Error("unchanged filters should keep the searched flag")
	}
}

func TestEngine_FailureLeavesStateIntact(t *testing.T) {
	fail := false
	e := newEngine(t, scopedSession, func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		pagedHandler(t)(w, r)
	})
	ctx := context.Background()

	if err := e.Search(ctx); err != nil {
		t.Fatalf("Search error: %v", err)
	}

	fail = true
	if _, err := e.LoadMore(ctx); err == nil {
		t.Fatal("expected LoadMore error")
	}
	if err := e.Search(ctx); err == nil {
		t.Fatal("expected Search error")
	}

	if got := len(e.Entries()); got != 2 {
		t.Errorf("failures should leave entries intact, got %d", got)
	}
	if e.Exhausted() {
		t.Error("failures should leave the cursor intact")
	}

	fail = false
	more, err := e.LoadMore(ctx)
	if err != nil || !more {
		t.Fatalf("retry after failure: more=%v err=%v", more, err)
	}
	if got := len(e.Entries()); got != 3 {
		t.Errorf("retry should resume from the kept cursor, got %d entries", got)
	}
}

func TestEngine_RequiresTenantContext(t *testing.T) {
	noTenant := fixedSession{sess: session.Session{Token: "tok"}}
	e := newEngine(t, noTenant, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request should reach the server without tenant context")
		w.WriteHeader(http.StatusForbidden)
	})
	ctx := context.Background()

	if err := e.Search(ctx); err != ErrNoTenantContext {
		t.Errorf("Search error = %v, want ErrNoTenantContext", err)
	}
	more, err := e.LoadMore(ctx)
	if more || err != nil {
		t.Errorf("LoadMore = %v, %v; want no-op", more, err)
	}
}
