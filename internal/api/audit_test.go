package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/accesspanel/accesspanel/internal/api"
	"github.com/accesspanel/accesspanel/internal/models"
)

func TestAuditQuery_Defaults(t *testing.T) {
	t.Parallel()

	var got models.AuditQueryOpts

	repo := &mockAuditRepo{
		queryFn: func(_ context.Context, _, _ string, opts models.AuditQueryOpts) (*models.AuditPage, error) {
			got = opts

			return &models.AuditPage{
				Items: []models.AuditEntry{{ID: "a1", Action: "role.created"}},
			}, nil
		},
	}

	r := newTestRouter()
	h := api.NewAuditHandler(repo, testLogger())
	r.GET("/audit", h.Query)

	w := doRequest(r, http.MethodGet, "/audit", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got.Limit != 50 {
		t.Errorf("expected default limit 50, got %d", got.Limit)
	}
	if got.Cursor != nil {
		t.Errorf("expected nil cursor, got %+v", got.Cursor)
	}

	var page models.AuditPage
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(page.Items) != 1 || page.NextCursor != "" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestAuditQuery_Filters(t *testing.T) {
	t.Parallel()

	var got models.AuditQueryOpts

	repo := &mockAuditRepo{
		queryFn: func(_ context.Context, _, _ string, opts models.AuditQueryOpts) (*models.AuditPage, error) {
			got = opts

			return &models.AuditPage{}, nil
		},
	}

	r := newTestRouter()
	h := api.NewAuditHandler(repo, testLogger())
	r.GET("/audit", h.Query)

	w := doRequest(r, http.MethodGet, "/audit?q=alice&entity_type=role&limit=10", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got.Q != "alice" || got.EntityType != "role" || got.Limit != 10 {
		t.Errorf("unexpected opts: %+v", got)
	}
}

func TestAuditQuery_LimitClamped(t *testing.T) {
	t.Parallel()

	var got models.AuditQueryOpts

	repo := &mockAuditRepo{
		queryFn: func(_ context.Context, _, _ string, opts models.AuditQueryOpts) (*models.AuditPage, error) {
			got = opts

			return &models.AuditPage{}, nil
		},
	}

	r := newTestRouter()
	h := api.NewAuditHandler(repo, testLogger())
	r.GET("/audit", h.Query)

	if w := doRequest(r, http.MethodGet, "/audit?limit=9999", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got.Limit != 200 {
		t.Errorf("expected limit clamped to 200, got %d", got.Limit)
	}

	if w := doRequest(r, http.MethodGet, "/audit?limit=-3", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got.Limit != 50 {
		t.Errorf("expected negative limit to fall back to 50, got %d", got.Limit)
	}
}

func TestAuditQuery_CursorRoundTrip(t *testing.T) {
	t.Parallel()

	position := models.AuditCursor{CreatedAt: time.Now().UTC().Truncate(time.Microsecond), ID: "a50"}

	var got models.AuditQueryOpts

	repo := &mockAuditRepo{
		queryFn: func(_ context.Context, _, _ string, opts models.AuditQueryOpts) (*models.AuditPage, error) {
			got = opts

			return &models.AuditPage{}, nil
		},
	}

	r := newTestRouter()
	h := api.NewAuditHandler(repo, testLogger())
	r.GET("/audit", h.Query)

	w := doRequest(r, http.MethodGet, "/audit?cursor="+position.Encode(), "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got.Cursor == nil || got.Cursor.ID != "a50" || !got.Cursor.CreatedAt.Equal(position.CreatedAt) {
		t.Errorf("cursor did not survive the round trip: %+v", got.Cursor)
	}
}

func TestAuditQuery_BadCursor(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewAuditHandler(&mockAuditRepo{}, testLogger())
	r.GET("/audit", h.Query)

	w := doRequest(r, http.MethodGet, "/audit?cursor=not-base64!!!", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if code := errorCode(t, w.Body.Bytes()); code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %q", code)
	}
}

func TestAuditQuery_EmptyItems(t *testing.T) {
	t.Parallel()

	repo := &mockAuditRepo{
		queryFn: func(_ context.Context, _, _ string, _ models.AuditQueryOpts) (*models.AuditPage, error) {
			return &models.AuditPage{}, nil
		},
	}

	r := newTestRouter()
	h := api.NewAuditHandler(repo, testLogger())
	r.GET("/audit", h.Query)

	w := doRequest(r, http.MethodGet, "/audit", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body := w.Body.String(); body != `{"items":[],"next_cursor":""}` {
		t.Errorf("unexpected empty page body: %s", body)
	}
}
