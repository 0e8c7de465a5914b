package store

import (
	"strings"
	"testing"
	"time"

	"github.com/accesspanel/accesspanel/internal/models"
)

func TestBuildAuditFilter_NoFilters(t *testing.T) {
	where, args := buildAuditFilter(models.AuditQueryOpts{})

	if where != "WHERE a.tenant_id = $1" {
		t.Errorf("unexpected where: %s", where)
	}
	if len(args) != 0 {
		t.Errorf("expected no extra args, got %v", args)
	}
}

func TestBuildAuditFilter_EntityTypeAndText(t *testing.T) {
	where, args := buildAuditFilter(models.AuditQueryOpts{
		EntityType: "role",
		Q:          "alice",
	})

	if !strings.Contains(where, "a.entity_type = $2") {
		t.Errorf("entity_type predicate missing: %s", where)
	}
	if !strings.Contains(where, "a.action ILIKE $3") ||
		!strings.Contains(where, "app_user_email(a.actor_user_id) ILIKE $3") {
		t.Errorf("free-text predicate missing: %s", where)
	}
	if len(args) != 2 || args[0] != "role" || args[1] != "%alice%" {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestBuildAuditFilter_Cursor(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	where, args := buildAuditFilter(models.AuditQueryOpts{
		Cursor: &models.AuditCursor{CreatedAt: at, ID: "row-1"},
	})

	if !strings.Contains(where, "(a.created_at, a.id) < ($2, $3)") {
		t.Errorf("keyset predicate missing: %s", where)
	}
	if len(args) != 2 || args[1] != "row-1" {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestBuildAuditFilter_AllCombined(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	where, args := buildAuditFilter(models.AuditQueryOpts{
		EntityType: "membership",
		Q:          "created",
		Cursor:     &models.AuditCursor{CreatedAt: at, ID: "row-9"},
	})

	// Placeholders must stay sequential across all predicates.
	for _, want := range []string{"$2", "$3", "($4, $5)"} {
		if !strings.Contains(where, want) {
			t.Errorf("missing placeholder %s in: %s", want, where)
		}
	}
	if len(args) != 4 {
		t.Errorf("expected 4 args, got %v", args)
	}
}
