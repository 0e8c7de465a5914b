package models

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCreateMemberRequest_Validate(t *testing.T) {
	valid := CreateMemberRequest{Email: "a@example.com", Password: "longenough", RoleID: "r1"}
	if err := (&valid).Validate(); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}

	tests := []struct {
		name    string
		req     CreateMemberRequest
		wantErr error
	}{
		{"missing email", CreateMemberRequest{Password: "longenough", RoleID: "r1"}, ErrMissingEmail},
		{"bad email", CreateMemberRequest{Email: "nope", Password: "longenough", RoleID: "r1"}, ErrInvalidEmail},
		{"trailing at", CreateMemberRequest{Email: "nope@", Password: "longenough", RoleID: "r1"}, ErrInvalidEmail},
		{"missing password", CreateMemberRequest{Email: "a@example.com", RoleID: "r1"}, ErrMissingPassword},
		{"weak password", CreateMemberRequest{Email: "a@example.com", Password: "short", RoleID: "r1"}, ErrPasswordTooWeak},
		{"missing role", CreateMemberRequest{Email: "a@example.com", Password: "longenough"}, ErrMissingRoleID},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.req.Validate(); !errors.Is(err, tc.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}

	long := valid
	long.Email = strings.Repeat("a", 250) + "@example.com"
	if err := (&long).Validate(); err == nil {
		t.Error("overlong email should be rejected")
	}
}

func TestRoleRequests_Validate(t *testing.T) {
	create := CreateRoleRequest{Name: "Auditor", PermissionCodes: []string{"audit:read"}}
	if err := (&create).Validate(); err != nil {
		t.Errorf("valid create rejected: %v", err)
	}

	if err := (&CreateRoleRequest{}).Validate(); !errors.Is(err, ErrMissingName) {
		t.Error("empty name should be rejected")
	}

	longName := strings.Repeat("x", 101)
	if err := (&CreateRoleRequest{Name: longName}).Validate(); err == nil {
		t.Error("overlong name should be rejected")
	}

	empty := ""
	if err := (&UpdateRoleRequest{Name: &empty}).Validate(); !errors.Is(err, ErrMissingName) {
		t.Error("explicit empty name should be rejected")
	}

	// Nil fields mean "leave unchanged" and are always valid.
	if err := (&UpdateRoleRequest{}).Validate(); err != nil {
		t.Errorf("empty patch rejected: %v", err)
	}

	codes := []string{}
	if err := (&UpdateRoleRequest{PermissionCodes: &codes}).Validate(); err != nil {
		t.Errorf("clearing permissions rejected: %v", err)
	}
}

func TestAuditCursor_RoundTrip(t *testing.T) {
	orig := AuditCursor{
		CreatedAt: time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC),
		ID:        "0f4b2a6e-9b1c-4f6d-8a3e-111122223333",
	}

	decoded, err := DecodeAuditCursor(orig.Encode())
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !decoded.CreatedAt.Equal(orig.CreatedAt) || decoded.ID != orig.ID {
		t.Errorf("round trip mismatch: %+v", decoded)
	}
}

func TestDecodeAuditCursor_Invalid(t *testing.T) {
	if c, err := DecodeAuditCursor(""); c != nil || err != nil {
		t.Errorf("empty cursor should decode to nil, got %v, %v", c, err)
	}

	if _, err := DecodeAuditCursor("!!not-base64!!"); err == nil {
		t.Error("garbage cursor should fail")
	}

	// Valid base64, valid JSON, but no position fields.
	if _, err := DecodeAuditCursor("e30="); err == nil {
		t.Error("cursor without fields should fail")
	}
}
