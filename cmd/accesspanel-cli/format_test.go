package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"
)

// captureStdout replaces os.Stdout with a pipe, calls f, then returns the
// captured output and restores os.Stdout. It is NOT safe for parallel use
// because os.Stdout is a package-level variable.
func captureStdout(t *testing.T, f func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w

	done := make(chan struct{})
	var buf bytes.Buffer
	go func() {
		io.Copy(&buf, r)
		close(done)
	}()

	f()

	w.Close()
	<-done
	os.Stdout = orig
	r.Close()
	return buf.String()
}

// TestFormatJSON verifies that formatJSON emits indented JSON to stdout.
func TestFormatJSON(t *testing.T) {
	type sample struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	v := sample{ID: "abc-123", Email: "alice@example.com"}

	got := captureStdout(t, func() { formatJSON(v) })

	var out sample
	if err := json.Unmarshal([]byte(got), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput: %s", err, got)
	}
	if out.ID != "abc-123" {
		t.Errorf("id: got %q, want %q", out.ID, "abc-123")
	}
	if out.Email != "alice@example.com" {
		t.Errorf("email: got %q, want %q", out.Email, "alice@example.com")
	}
	if !strings.Contains(got, "\n") {
		t.Errorf("expected indented JSON but got: %s", got)
	}
}

// TestFormatTable verifies column alignment and separator row.
func TestFormatTable(t *testing.T) {
	headers := []string{"ID", "EMAIL", "ROLE"}
	rows := [][]string{
		{"abc-123", "alice@example.com", "Owner"},
		{"x", "bob@example.com", "Support Engineer"},
	}

	got := captureStdout(t, func() { formatTable(headers, rows) })
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")

	// Expect: header, separator, row, row.
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), got)
	}

	for _, h := range headers {
		if !strings.Contains(lines[0], h) {
			t.Errorf("header line missing %q: %s", h, lines[0])
		}
	}
	if !strings.Contains(lines[1], "---") {
		t.Errorf("expected separator row, got: %s", lines[1])
	}
	if !strings.Contains(lines[3], "Support Engineer") {
		t.Errorf("row content missing: %s", lines[3])
	}
}

// TestFormatQuiet verifies quiet output prints only the identifier.
func TestFormatQuiet(t *testing.T) {
	got := captureStdout(t, func() { formatQuiet("m-42") })
	if got != "m-42\n" {
		t.Errorf("expected bare id line, got %q", got)
	}
}
