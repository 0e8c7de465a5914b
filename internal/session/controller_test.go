package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/accesspanel/accesspanel/client"
	"github.com/accesspanel/accesspanel/internal/credstore"
)

// memStore is an in-memory credstore.Store for tests.
type memStore struct {
	m map[string]string
}

func newMemStore() *memStore { return &memStore{m: map[string]string{}} }

func (s *memStore) Get(key string) (string, bool) {
	v, ok := s.m[key]
	return v, ok && v != ""
}

func (s *memStore) Set(key, value string) error {
	s.m[key] = value
	return nil
}

func (s *memStore) Clear(key string) error {
	delete(s.m, key)
	return nil
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func errorResponse(w http.ResponseWriter, status int, code, message string) {
	jsonResponse(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

var (
	tenantA = client.Tenant{ID: "t-a", Name: "Acme", Slug: "acme", Role: client.RoleRef{ID: "r1", Name: "Owner"}}
	tenantB = client.Tenant{ID: "t-b", Name: "Beta", Slug: "beta", Role: client.RoleRef{ID: "r2", Name: "Admin"}}
	testUsr = client.User{ID: "u1", Email: "op@example.com"}
)

// handleMethod registers a handler that only matches the given HTTP method.
func handleMethod(mux *http.ServeMux, method, path string, h http.HandlerFunc) {
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	})
}

// newController wires a Controller against a test server that validates
// any bearer token except "expired" and returns the given tenants.
func newController(t *testing.T, store credstore.Store, tenants []client.Tenant) *Controller {
	t.Helper()

	mux := http.NewServeMux()
	handleMethod(mux, http.MethodGet, "/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer expired" {
			errorResponse(w, 401, "UNAUTHORIZED", "Token expired")
			return
		}
		jsonResponse(w, 200, client.MeResult{User: testUsr, Tenants: tenants})
	})
	handleMethod(mux, http.MethodPost, "/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		if req.Password != "correct" {
			errorResponse(w, 401, "UNAUTHORIZED", "Invalid credentials")
			return
		}
		jsonResponse(w, 200, client.LoginResult{Token: "tok-login", User: testUsr, Tenants: tenants})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewController(client.New(srv.URL), store, testLogger())
}

func TestBootstrap_NoPersistedToken(t *testing.T) {
	c := newController(t, newMemStore(), []client.Tenant{tenantA})

	if got := c.Snapshot().Phase(); got != PhaseBootstrapping {
		t.Fatalf("initial phase = %v", got)
	}
	if err := c.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap error: %v", err)
	}

	snap := c.Snapshot()
	if snap.Phase() != PhaseUnauthenticated {
		t.Errorf("phase = %v, want unauthenticated", snap.Phase())
	}
	if snap.IsBootstrapping {
		t.Error("IsBootstrapping should be false after bootstrap")
	}
}

func TestBootstrap_SingleTenantAutoSelectOverridesPersisted(t *testing.T) {
	store := newMemStore()
	store.m[credstore.KeySessionToken] = "tok-1"
	store.m[credstore.KeySelectedTenantID] = "t-stale"

	c := newController(t, store, []client.Tenant{tenantA})
	if err := c.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap error: %v", err)
	}

	snap := c.Snapshot()
	if snap.SelectedTenantID != tenantA.ID {
		t.Errorf("selected = %q, want %q", snap.SelectedTenantID, tenantA.ID)
	}
	if v, _ := store.Get(credstore.KeySelectedTenantID); v != tenantA.ID {
		t.Errorf("persisted selection = %q, want %q", v, tenantA.ID)
	}
	if snap.Phase() != PhaseAuthenticatedWithTenant {
		t.Errorf("phase = %v", snap.Phase())
	}
}

func TestBootstrap_RestoresPersistedSelection(t *testing.T) {
	store := newMemStore()
	store.m[credstore.KeySessionToken] = "tok-1"
	store.m[credstore.KeySelectedTenantID] = tenantB.ID

	c := newController(t, store, []client.Tenant{tenantA, tenantB})
	if err := c.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap error: %v", err)
	}

	if got := c.Snapshot().SelectedTenantID; got != tenantB.ID {
		t.Errorf("selected = %q, want %q", got, tenantB.ID)
	}
}

func TestBootstrap_DropsDanglingPersistedSelection(t *testing.T) {
	store := newMemStore()
	store.m[credstore.KeySessionToken] = "tok-1"
	store.m[credstore.KeySelectedTenantID] = "t-gone"

	c := newController(t, store, []client.Tenant{tenantA, tenantB})
	if err := c.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap error: %v", err)
	}

	snap := c.Snapshot()
	if snap.SelectedTenantID != "" {
		t.Errorf("selected = %q, want empty", snap.SelectedTenantID)
	}
	if _, ok := store.Get(credstore.KeySelectedTenantID); ok {
		t.Error("dangling persisted selection should be cleared")
	}
	if snap.Phase() != PhaseAuthenticatedNoTenant {
		t.Errorf("phase = %v", snap.Phase())
	}
}

func TestBootstrap_RejectedTokenForcesLogout(t *testing.T) {
	store := newMemStore()
	store.m[credstore.KeySessionToken] = "expired"
	store.m[credstore.KeySelectedTenantID] = tenantA.ID

	c := newController(t, store, []client.Tenant{tenantA})
	err := c.Bootstrap(context.Background())

	var sessErr *SessionInvalidError
	if !errors.As(err, &sessErr) {
		t.Fatalf("expected SessionInvalidError, got %v", err)
	}

	snap := c.Snapshot()
	if snap.Token != "" || snap.User != nil || len(snap.Tenants) != 0 || snap.SelectedTenantID != "" {
		t.Errorf("state not fully cleared: %+v", snap)
	}
	if snap.IsBootstrapping {
		t.Error("IsBootstrapping should be false")
	}
	if _, ok := store.Get(credstore.KeySessionToken); ok {
		t.Error("persisted token should be cleared")
	}
	if d := Guard(snap, "/app/audit"); d.Verdict != VerdictRedirect || d.RedirectTo != PathLogin {
		t.Errorf("guard after forced logout = %+v", d)
	}
}

func TestLogin_TwoTenantsThenSelect(t *testing.T) {
	store := newMemStore()
	c := newController(t, store, []client.Tenant{tenantA, tenantB})

	out, err := c.Login(context.Background(), "op@example.com", "correct")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if len(out.Tenants) != 2 || out.SelectedTenantID != "" {
		t.Errorf("unexpected outcome: %+v", out)
	}

	snap := c.Snapshot()
	if d := Guard(snap, "/app/members"); d.Verdict != VerdictRedirect || d.RedirectTo != PathSelectTenant {
		t.Errorf("guard = %+v, want select-tenant redirect", d)
	}

	if err := c.SelectTenant(tenantB.ID); err != nil {
		t.Fatalf("SelectTenant error: %v", err)
	}
	snap = c.Snapshot()
	if d := Guard(snap, "/app/members"); d.Verdict != VerdictAllow {
		t.Errorf("guard = %+v, want allow", d)
	}
	if v, _ := store.Get(credstore.KeySelectedTenantID); v != tenantB.ID {
		t.Errorf("persisted selection = %q", v)
	}
	if v, _ := store.Get(credstore.KeySessionToken); v != "tok-login" {
		t.Errorf("persisted token = %q", v)
	}
}

func TestLogin_SingleTenantAutoSelects(t *testing.T) {
	c := newController(t, newMemStore(), []client.Tenant{tenantA})

	out, err := c.Login(context.Background(), "op@example.com", "correct")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if out.SelectedTenantID != tenantA.ID {
		t.Errorf("outcome selection = %q, want %q", out.SelectedTenantID, tenantA.ID)
	}
	if got := c.Snapshot().Phase(); got != PhaseAuthenticatedWithTenant {
		t.Errorf("phase = %v", got)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	c := newController(t, newMemStore(), []client.Tenant{tenantA})

	_, err := c.Login(context.Background(), "op@example.com", "wrong")
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
	if authErr.Message != "Invalid credentials" {
		t.Errorf("message = %q, want server message verbatim", authErr.Message)
	}
	if got := c.Snapshot().Token; got != "" {
		t.Errorf("token should stay empty, got %q", got)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	store := newMemStore()
	c := newController(t, store, []client.Tenant{tenantA})
	if _, err := c.Login(context.Background(), "op@example.com", "correct"); err != nil {
		t.Fatalf("Login error: %v", err)
	}

	c.Logout()
	first := c.Snapshot()
	c.Logout()
	second := c.Snapshot()

	for _, snap := range []Session{first, second} {
		if snap.Token != "" || snap.User != nil || len(snap.Tenants) != 0 || snap.SelectedTenantID != "" {
			t.Errorf("logout left state behind: %+v", snap)
		}
	}
	if len(store.m) != 0 {
		t.Errorf("credential store not empty: %v", store.m)
	}
}

func TestSelectTenant_UnknownID(t *testing.T) {
	c := newController(t, newMemStore(), []client.Tenant{tenantA, tenantB})
	if _, err := c.Login(context.Background(), "op@example.com", "correct"); err != nil {
		t.Fatalf("Login error: %v", err)
	}

	if err := c.SelectTenant("t-nope"); !errors.Is(err, ErrUnknownTenant) {
		t.Fatalf("expected ErrUnknownTenant, got %v", err)
	}
	if got := c.Snapshot().SelectedTenantID; got != "" {
		t.Errorf("selection should be unchanged, got %q", got)
	}
}

func TestRefresh_FailureForcesLogout(t *testing.T) {
	mux := http.NewServeMux()
	calls := 0
	handleMethod(mux, http.MethodGet, "/auth/me", func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			jsonResponse(w, 200, client.MeResult{User: testUsr, Tenants: []client.Tenant{tenantA}})
			return
		}
		errorResponse(w, 401, "UNAUTHORIZED", "Token revoked")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := newMemStore()
	store.m[credstore.KeySessionToken] = "tok-1"
	c := NewController(client.New(srv.URL), store, testLogger())

	if err := c.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap error: %v", err)
	}
	if got := c.Snapshot().Phase(); got != PhaseAuthenticatedWithTenant {
		t.Fatalf("phase after bootstrap = %v", got)
	}

	err := c.Refresh(context.Background())
	var sessErr *SessionInvalidError
	if !errors.As(err, &sessErr) {
		t.Fatalf("expected SessionInvalidError, got %v", err)
	}
	if got := c.Snapshot().Phase(); got != PhaseUnauthenticated {
		t.Errorf("phase after failed refresh = %v", got)
	}
}

func TestRefresh_WithoutTokenIsNoop(t *testing.T) {
	c := newController(t, newMemStore(), nil)
	if err := c.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap error: %v", err)
	}
	if err := c.Refresh(context.Background()); err != nil {
		t.Errorf("Refresh without token should be a no-op, got %v", err)
	}
}
