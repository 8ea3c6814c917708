package session

import (
	"context"
	"testing"
	"time"
)

func TestIssuerRoundTrip(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	token, issued, err := iss.Issue("uid-1", "a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := iss.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.UserID != "uid-1" || got.Email != "a@example.com" {
		t.Fatalf("unexpected session %+v", got)
	}
	if got.TokenID == "" || got.TokenID != issued.TokenID {
		t.Fatalf("token id mismatch: %q vs %q", got.TokenID, issued.TokenID)
	}
}

func TestIssuerRejectsForeignSignature(t *testing.T) {
	token, _, err := NewIssuer("one", time.Hour).Issue("uid-1", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewIssuer("two", time.Hour).Parse(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestIssuerRejectsExpired(t *testing.T) {
	iss := NewIssuer("secret", time.Minute)
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := iss.Issue("uid-1", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	iss.now = time.Now
	if _, err := iss.Parse(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := iss.Parse("garbage"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestContextRoundTrip(t *testing.T) {
	if UserID(context.Background()) != "" {
		t.Fatal("anonymous context should have no user")
	}
	ctx := NewContext(context.Background(), &Session{UserID: "u"})
	if s, ok := FromContext(ctx); !ok || s.UserID != "u" {
		t.Fatalf("session not found in context")
	}
}

func TestMemoryRevoker(t *testing.T) {
	r := NewMemoryRevoker()
	ctx := context.Background()
	if err := r.Revoke(ctx, "jti", time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if ok, _ := r.IsRevoked(ctx, "jti"); !ok {
		t.Fatal("expected revoked")
	}
	if ok, _ := r.IsRevoked(ctx, "other"); ok {
		t.Fatal("unexpected revocation")
	}
	r.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if ok, _ := r.IsRevoked(ctx, "jti"); ok {
		t.Fatal("revocation should lapse after expiry")
	}
}
