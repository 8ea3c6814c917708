package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/anonto42/blaze/backend/internal/models"
)

func TestProfileUpsert(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.token(t, "alice")
	bob := ts.token(t, "bob")

	rec := ts.do(http.MethodPut, "/api/v1/profile", alice, models.UpsertProfileRequest{Username: "alice", FullName: " Alice A "})
	expectStatus(t, rec, http.StatusOK)

	rec = ts.do(http.MethodGet, "/api/v1/profile", alice, nil)
	expectStatus(t, rec, http.StatusOK)
	var own models.Profile
	decode(t, rec, &own)
	if own.FullName != "Alice A" || own.Username == nil || *own.Username != "alice" || own.Email == "" {
		t.Fatalf("unexpected own profile %+v", own)
	}

	expectStatus(t, ts.do(http.MethodPut, "/api/v1/profile", bob, models.UpsertProfileRequest{Username: "ALICE"}), http.StatusConflict)
	expectStatus(t, ts.do(http.MethodPut, "/api/v1/profile", bob, models.UpsertProfileRequest{Website: "not a url"}), http.StatusBadRequest)
}

func TestUsernameStoredLowercase(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.token(t, "ada")
	other := ts.token(t, "other")

	rec := ts.do(http.MethodPut, "/api/v1/profile", ada, models.UpsertProfileRequest{Username: "Ada"})
	expectStatus(t, rec, http.StatusOK)
	var saved models.Profile
	decode(t, rec, &saved)
	if saved.Username == nil || *saved.Username != "ada" {
		t.Fatalf("username = %v, want ada", saved.Username)
	}

	expectStatus(t, ts.do(http.MethodPut, "/api/v1/profile", other, models.UpsertProfileRequest{Username: "ada"}), http.StatusConflict)
	for _, name := range []string{"ada", "ADA", "Ada"} {
		rec := ts.do(http.MethodGet, "/api/v1/profiles/by-username/"+name, "", nil)
		expectStatus(t, rec, http.StatusOK)
		var p models.Profile
		decode(t, rec, &p)
		if p.UserID != "ada" {
			t.Fatalf("%s resolved to %q", name, p.UserID)
		}
	}
}

func TestPublicProfile(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.token(t, "alice")
	expectStatus(t, ts.do(http.MethodPut, "/api/v1/profile", alice, models.UpsertProfileRequest{Username: "alice"}), http.StatusOK)

	for _, path := range []string{"/api/v1/profiles/alice", "/api/v1/profiles/by-username/Alice"} {
		rec := ts.do(http.MethodGet, path, "", nil)
		expectStatus(t, rec, http.StatusOK)
		var p models.Profile
		decode(t, rec, &p)
		if p.UserID != "alice" || p.Email != "" {
			t.Fatalf("%s: unexpected public profile %+v", path, p)
		}
	}
	expectStatus(t, ts.do(http.MethodGet, "/api/v1/profiles/nobody", "", nil), http.StatusNotFound)
}

func TestGetProfileMissing(t *testing.T) {
	ts := newTestServer(t)
	tok, _, err := ts.issuer.Issue("ghost", "")
	if err != nil {
		t.Fatal(err)
	}
	expectStatus(t, ts.do(http.MethodGet, "/api/v1/profile", tok, nil), http.StatusNotFound)
}

func TestUploadAvatar(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.token(t, "alice")

	expectStatus(t, ts.upload("/api/v1/profile/avatar", alice, "notes.txt", "text/plain", 10), http.StatusBadRequest)
	expectStatus(t, ts.upload("/api/v1/profile/avatar", alice, "big.png", "image/png", MaxImageSize+1), http.StatusBadRequest)

	rec := ts.upload("/api/v1/profile/avatar", alice, "Me.PNG", "image/png", 1024)
	expectStatus(t, rec, http.StatusCreated)
	var resp struct {
		URL string `json:"url"`
		Key string `json:"key"`
	}
	decode(t, rec, &resp)
	if !strings.HasPrefix(resp.Key, "avatars/alice/") || !strings.HasSuffix(resp.Key, ".png") {
		t.Fatalf("key = %q", resp.Key)
	}
	if resp.URL != "https://cdn.test/"+resp.Key {
		t.Fatalf("url = %q", resp.URL)
	}

	rec = ts.upload("/api/v1/uploads/featured", alice, "cover", "image/jpeg", 10)
	expectStatus(t, rec, http.StatusCreated)
	decode(t, rec, &resp)
	if !strings.HasPrefix(resp.Key, "featured/alice/") {
		t.Fatalf("featured key = %q", resp.Key)
	}
}

func TestReplacedAvatarIsRemoved(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.token(t, "alice")

	upload := func() string {
		rec := ts.upload("/api/v1/profile/avatar", alice, "me.png", "image/png", 64)
		expectStatus(t, rec, http.StatusCreated)
		var resp struct {
			URL string `json:"url"`
		}
		decode(t, rec, &resp)
		return resp.URL
	}
	first, second := upload(), upload()

	expectStatus(t, ts.do(http.MethodPut, "/api/v1/profile", alice, models.UpsertProfileRequest{AvatarURL: first}), http.StatusOK)
	expectStatus(t, ts.do(http.MethodPut, "/api/v1/profile", alice, models.UpsertProfileRequest{AvatarURL: first, Bio: "same avatar"}), http.StatusOK)
	if len(ts.objects.removed) != 0 {
		t.Fatalf("unchanged avatar removed: %v", ts.objects.removed)
	}

	expectStatus(t, ts.do(http.MethodPut, "/api/v1/profile", alice, models.UpsertProfileRequest{AvatarURL: second}), http.StatusOK)
	if len(ts.objects.removed) != 1 || "https://cdn.test/"+ts.objects.removed[0] != first {
		t.Fatalf("removed = %v, want key of %s", ts.objects.removed, first)
	}

	// switching to an external avatar drops the uploaded one; the external one is never deleted
	expectStatus(t, ts.do(http.MethodPut, "/api/v1/profile", alice, models.UpsertProfileRequest{AvatarURL: "https://gravatar.com/avatar/x"}), http.StatusOK)
	expectStatus(t, ts.do(http.MethodPut, "/api/v1/profile", alice, models.UpsertProfileRequest{}), http.StatusOK)
	if len(ts.objects.removed) != 2 {
		t.Fatalf("removed = %v", ts.objects.removed)
	}

	// another user's upload is left alone
	bob := ts.token(t, "bob")
	expectStatus(t, ts.do(http.MethodPut, "/api/v1/profile", bob, models.UpsertProfileRequest{AvatarURL: second}), http.StatusOK)
	expectStatus(t, ts.do(http.MethodPut, "/api/v1/profile", bob, models.UpsertProfileRequest{}), http.StatusOK)
	if len(ts.objects.removed) != 2 {
		t.Fatalf("removed = %v", ts.objects.removed)
	}
}

func TestObjectKeyFallsBackToContentType(t *testing.T) {
	key := objectKey("avatars", "u1", "blob", "image/png")
	if !strings.HasPrefix(key, "avatars/u1/") || !strings.HasSuffix(key, ".png") {
		t.Fatalf("key = %q", key)
	}
	a, b := objectKey("avatars", "u1", "a.gif", "image/gif"), objectKey("avatars", "u1", "a.gif", "image/gif")
	if a == b {
		t.Fatalf("keys should be unique, got %q twice", a)
	}
}
