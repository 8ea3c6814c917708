package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/blaze/backend/internal/engagement"
	"github.com/anonto42/blaze/backend/internal/middleware"
	"github.com/anonto42/blaze/backend/internal/models"
	"github.com/anonto42/blaze/backend/internal/session"
	"github.com/anonto42/blaze/backend/validators"
	"github.com/labstack/echo/v4"
)

type testServer struct {
	e       *echo.Echo
	store   *memStore
	objects *fakeObjectStore
	issuer  *session.Issuer
	broker  *session.Broker
	subs    *fakeSubscriptions
	prefs   *fakePreferences
	auth    *AuthHandler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		e:       echo.New(),
		store:   newMemStore(),
		objects: &fakeObjectStore{},
		issuer:  session.NewIssuer("test-secret", time.Hour),
		broker:  session.NewBroker(),
		subs:    &fakeSubscriptions{emails: map[string]bool{}},
		prefs:   &fakePreferences{saved: map[string]models.Preference{}},
	}
	ts.e.Validator = validators.NewValidator()

	revoker := session.NewMemoryRevoker()
	sync := engagement.NewSynchronizer(engagement.Deps{
		Likes:    ts.store,
		Comments: ts.store,
		Views:    ts.store,
		Counters: ts.store,
	})
	verifier := fakeVerifier{tokens: map[string]*auth.Token{
		"good-id-token": {UID: "alice", Claims: map[string]interface{}{"email": "alice@example.com", "name": "Alice Liddell"}},
	}}

	sa := middleware.NewSessionAuth(ts.issuer, revoker)
	api := ts.e.Group("/api/v1", sa.OptionalSession())
	protected := sa.RequireSession()

	ts.auth = NewAuthHandler(ts.store, verifier, ts.issuer, revoker, ts.broker)
	ts.auth.heartbeat = 20 * time.Millisecond
	ts.auth.RegisterAuthRoutes(api, protected)
	NewPostHandler(ts.store, ts.store, sync).RegisterPostRoutes(api, protected)
	NewEngagementHandler(ts.store, ts.store, sync).RegisterEngagementRoutes(api, protected)
	NewProfileHandler(ts.store, ts.objects, ts.broker).RegisterProfileRoutes(api, protected)
	NewSubscriptionHandler(ts.subs).RegisterSubscriptionRoutes(api)
	NewPreferenceHandler(ts.prefs).RegisterPreferenceRoutes(api, protected)
	return ts
}

// token signs a session for userID and makes sure a profile exists for them
func (ts *testServer) token(t *testing.T, userID string) string {
	t.Helper()
	if _, err := ts.store.EnsureProfile(context.Background(), userID, userID+"@example.com", ""); err != nil {
		t.Fatal(err)
	}
	tok, _, err := ts.issuer.Issue(userID, userID+"@example.com")
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (ts *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	req.Header.Set("User-Agent", "test-agent")
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) upload(path, token, filename, contentType string, size int) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, _ := mw.CreatePart(h)
	_, _ = part.Write(bytes.Repeat([]byte{'x'}, size))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, want, rec.Body.String())
	}
}
