package repositories

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/anonto42/blaze/backend/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestViewerKey(t *testing.T) {
	if got := ViewerKey(models.Viewer{UserID: "u1", IP: "1.2.3.4"}); got != "user:u1" {
		t.Fatalf("signed-in key = %q", got)
	}
	if got := ViewerKey(models.Viewer{}); got != "" {
		t.Fatalf("unknown viewer key = %q", got)
	}

	a := ViewerKey(models.Viewer{IP: "1.2.3.4", UserAgent: "firefox"})
	b := ViewerKey(models.Viewer{IP: "1.2.3.4", UserAgent: "firefox"})
	c := ViewerKey(models.Viewer{IP: "1.2.3.4", UserAgent: "chrome"})
	if !strings.HasPrefix(a, "anon:") || a != b {
		t.Fatalf("anonymous key not stable: %q %q", a, b)
	}
	if a == c {
		t.Fatal("different agents should not share a key")
	}
	if strings.Contains(a, "1.2.3.4") {
		t.Fatal("anonymous key leaks the address")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505"}
	if !isUniqueViolation(fmt.Errorf("insert: %w", dup)) {
		t.Fatal("wrapped 23505 not detected")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation reported as duplicate")
	}
	if isUniqueViolation(errors.New("boom")) || isUniqueViolation(nil) {
		t.Fatal("plain errors are not duplicates")
	}
}
