package firebase

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
)

func TestIdentityFromToken(t *testing.T) {
	id := IdentityFromToken(&auth.Token{UID: "uid-1", Claims: map[string]interface{}{
		"email": "a@example.com",
		"name":  "Ada",
	}})
	if id.UID != "uid-1" || id.Email != "a@example.com" || id.Name != "Ada" {
		t.Fatalf("unexpected identity %+v", id)
	}

	bare := IdentityFromToken(&auth.Token{UID: "uid-2", Claims: map[string]interface{}{"email": 42}})
	if bare.Email != "" || bare.Name != "" {
		t.Fatalf("non-string claims should be ignored: %+v", bare)
	}
}

func TestInitFirebaseNeedsCredentials(t *testing.T) {
	if _, err := InitFirebase(context.Background(), ""); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
	if _, err := InitFirebase(context.Background(), "/does/not/exist.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
