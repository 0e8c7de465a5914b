package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestServer creates a test server that routes to the given handler map.
// Keys are "METHOD /path", values are handler funcs.
func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := routes[r.Method+" "+r.URL.Path]; ok {
			handler(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	c := New(srv.URL, WithToken("test-token"), WithTenant("tenant-1"))
	return srv, c
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

func TestLogin_NoCredentialHeaders(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /auth/login": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "" {
				t.Errorf("login sent Authorization header %q", got)
			}
			if got := r.Header.Get(TenantHeader); got != "" {
				t.Errorf("login sent tenant header %q", got)
			}
			var req loginRequest
			json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
			jsonResponse(w, 200, LoginResult{
				Token:   "tok-1",
				User:    User{ID: "u1", Email: req.Email},
				Tenants: []Tenant{{ID: "t1", Name: "Acme", Slug: "acme"}},
			})
		},
	})

	res, err := c.Auth.Login(context.Background(), "op@example.com", "secret")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if res.Token != "tok-1" || len(res.Tenants) != 1 {
		t.Errorf("unexpected login result: %+v", res)
	}
}

func TestMe_SendsBearerWithoutTenant(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /auth/me": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
				t.Errorf("got Authorization %q", got)
			}
			if got := r.Header.Get(TenantHeader); got != "" {
				t.Errorf("me sent tenant header %q", got)
			}
			jsonResponse(w, 200, MeResult{User: User{ID: "u1", Email: "op@example.com"}})
		},
	})

	res, err := c.Auth.Me(context.Background())
	if err != nil {
		t.Fatalf("Me() error: %v", err)
	}
	if res.User.ID != "u1" {
		t.Errorf("got user %+v", res.User)
	}
}

func TestMembers_SendsTenantScope(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /members": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get(TenantHeader); got != "tenant-1" {
				t.Errorf("got tenant header %q", got)
			}
			jsonResponse(w, 200, []MemberRow{{ID: "m1", Email: "a@example.com", RoleName: "Admin"}})
		},
		"POST /members": func(w http.ResponseWriter, r *http.Request) {
			var req CreateMemberRequest
			json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
			jsonResponse(w, 201, CreatedMember{ID: "m2", UserID: "u2", RoleID: req.RoleID})
		},
	})

	ctx := context.Background()

	members, err := c.Members.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(members) != 1 || members[0].Email != "a@example.com" {
		t.Errorf("unexpected members: %+v", members)
	}

	created, err := c.Members.Create(ctx, &CreateMemberRequest{Email: "b@example.com", Password: "pw", RoleID: "r1"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.RoleID != "r1" {
		t.Errorf("got role id %q", created.RoleID)
	}
}

func TestRoles_CreateUpdate(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /roles": func(w http.ResponseWriter, r *http.Request) {
			var req CreateRoleRequest
			json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
			jsonResponse(w, 201, Role{ID: "r9", Name: req.Name, PermissionCodes: req.PermissionCodes})
		},
		"PATCH /roles/r9": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, Role{ID: "r9", Name: "Renamed"})
		},
	})

	ctx := context.Background()

	role, err := c.Roles.Create(ctx, &CreateRoleRequest{Name: "Auditor", PermissionCodes: []string{"audit:read"}})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if role.Name != "Auditor" {
		t.Errorf("got name %q", role.Name)
	}

	name := "Renamed"
	role, err = c.Roles.Update(ctx, "r9", &UpdateRoleRequest{Name: &name})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if role.Name != "Renamed" {
		t.Errorf("got name %q", role.Name)
	}
}

func TestAuditQuery_ParamsAndCursor(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /audit": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("q") != "role" || q.Get("entity_type") != "membership" {
				t.Errorf("unexpected filters: %v", q)
			}
			if q.Get("limit") != "50" || q.Get("cursor") != "abc" {
				t.Errorf("unexpected paging params: %v", q)
			}
			jsonResponse(w, 200, AuditPage{
				Items:      []AuditEntry{{ID: "a1", Action: "role.created"}},
				NextCursor: "",
			})
		},
	})

	page, err := c.Audit.Query(context.Background(), &AuditQueryOptions{
		Q: "role", EntityType: "membership", Limit: 50, Cursor: "abc",
	})
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if len(page.Items) != 1 || page.NextCursor != "" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestAPIError_Envelope(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /auth/me": func(w http.ResponseWriter, _ *http.Request) {
			errorResponse(w, 401, "UNAUTHORIZED", "Token expired")
		},
	})

	_, err := c.Auth.Me(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Code != "UNAUTHORIZED" || apiErr.Message != "Token expired" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
	if !IsUnauthorized(err) {
		t.Error("IsUnauthorized should be true")
	}
}

func TestAPIError_NonJSONFallback(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /members": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream exploded")) //nolint:errcheck
		},
	})

	_, err := c.Members.List(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Code != "HTTP_ERROR" || apiErr.Message != "HTTP 502" {
		t.Errorf("unexpected fallback error: %+v", apiErr)
	}
}

func TestSetCredentials_ReflectedOnNextRequest(t *testing.T) {
	var gotAuth, gotTenant string
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /roles": func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotTenant = r.Header.Get(TenantHeader)
			jsonResponse(w, 200, []Role{})
		},
	})

	c.SetToken("rotated")
	c.SetTenant("tenant-2")
	if _, err := c.Roles.List(context.Background()); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if gotAuth != "Bearer rotated" || gotTenant != "tenant-2" {
		t.Errorf("credentials not applied: auth=%q tenant=%q", gotAuth, gotTenant)
	}

	c.ClearCredentials()
	if _, err := c.Roles.List(context.Background()); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if gotAuth != "" || gotTenant != "" {
		t.Errorf("credentials not cleared: auth=%q tenant=%q", gotAuth, gotTenant)
	}
}
