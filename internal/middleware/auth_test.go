package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rsheridan/inkwell/internal/auth"
	"github.com/rsheridan/inkwell/internal/database"
	"github.com/rsheridan/inkwell/internal/store"
)

func setupSessions(t *testing.T) *store.SessionStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewSessionStore(db)
}

func TestRequireSessionNoCookie(t *testing.T) {
	sessions := setupSessions(t)

	handler := RequireSession(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run without a session")
	}))

	req := httptest.NewRequest("GET", "/api/admin/books", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireSessionBadToken(t *testing.T) {
	sessions := setupSessions(t)

	handler := RequireSession(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run with a forged token")
	}))

	req := httptest.NewRequest("GET", "/api/admin/books", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireSessionValid(t *testing.T) {
	sessions := setupSessions(t)
	sess, err := sessions.Create("worker@example.com", time.Hour)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var gotEmail string
	handler := RequireSession(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail = auth.Email(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/admin/books", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotEmail != "worker@example.com" {
		t.Errorf("context email = %q, want %q", gotEmail, "worker@example.com")
	}
}
