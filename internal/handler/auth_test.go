package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rsheridan/inkwell/internal/authn"
	"github.com/rsheridan/inkwell/internal/database"
	"github.com/rsheridan/inkwell/internal/middleware"
	"github.com/rsheridan/inkwell/internal/ratelimit"
	"github.com/rsheridan/inkwell/internal/store"
)

type captureMailer struct {
	lastCode string
	fail     bool
}

func (m *captureMailer) SendLoginCode(email, code string) error {
	if m.fail {
		return http.ErrHandlerTimeout
	}
	m.lastCode = code
	return nil
}

func setupAuthHandler(t *testing.T) (*AuthHandler, *captureMailer, *store.SessionStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mailer := &captureMailer{}
	sessions := store.NewSessionStore(db)
	svc := authn.New(
		store.NewMagicCodeStore(db),
		sessions,
		ratelimit.New(),
		mailer,
		authn.Config{AllowedEmails: []string{"worker@example.com"}},
		slog.Default(),
	)
	return NewAuthHandler(svc, slog.Default()), mailer, sessions
}

func postJSON(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.RemoteAddr = "10.0.0.1:12345"
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestRequestCodeOK(t *testing.T) {
	h, mailer, _ := setupAuthHandler(t)

	w := postJSON(h.RequestCode, `{"email":"worker@example.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body)
	}
	var resp map[string]bool
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp["ok"] {
		t.Errorf("body = %s, want ok:true", w.Body)
	}
	if len(mailer.lastCode) != 6 {
		t.Errorf("code = %q, want 6 digits", mailer.lastCode)
	}
}

func TestRequestCodeErrors(t *testing.T) {
	h, mailer, _ := setupAuthHandler(t)

	cases := []struct {
		name      string
		body      string
		failMail  bool
		status    int
		wantError string
	}{
		{"invalid email", `{"email":"not-an-email"}`, false, http.StatusBadRequest, "Invalid email"},
		{"not on allow-list", `{"email":"intruder@example.com"}`, false, http.StatusForbidden, "Not authorized"},
		{"mail failure", `{"email":"worker@example.com"}`, true, http.StatusInternalServerError, "Failed to send email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mailer.fail = tc.failMail
			w := postJSON(h.RequestCode, tc.body)
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tc.status, w.Body)
			}
			var resp map[string]any
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp["error"] != tc.wantError {
				t.Errorf("error = %q, want %q", resp["error"], tc.wantError)
			}
		})
	}
}

func TestRequestCodeRateLimited(t *testing.T) {
	h, _, _ := setupAuthHandler(t)

	for i := 0; i < 5; i++ {
		if w := postJSON(h.RequestCode, `{"email":"worker@example.com"}`); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, w.Code)
		}
	}
	w := postJSON(h.RequestCode, `{"email":"worker@example.com"}`)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("6th request status = %d, want 429", w.Code)
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "Too many requests, try again later." {
		t.Errorf("error = %q", resp["error"])
	}
}

func TestVerifyCodeSetsSessionCookie(t *testing.T) {
	h, mailer, sessions := setupAuthHandler(t)

	postJSON(h.RequestCode, `{"email":"worker@example.com"}`)
	w := postJSON(h.VerifyCode, `{"email":"worker@example.com","code":"`+mailer.lastCode+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("no worker_admin cookie set")
	}
	if len(cookie.Value) != 64 {
		t.Errorf("token length = %d, want 64", len(cookie.Value))
	}
	if cookie.Path != "/" || !cookie.HttpOnly || cookie.SameSite != http.SameSiteStrictMode {
		t.Errorf("cookie attributes = %+v", cookie)
	}
	if cookie.MaxAge != 3600 {
		t.Errorf("Max-Age = %d, want 3600", cookie.MaxAge)
	}

	sess, err := sessions.GetByToken(cookie.Value)
	if err != nil || sess == nil {
		t.Fatalf("session lookup: %v %v", sess, err)
	}
	if sess.Email != "worker@example.com" {
		t.Errorf("session email = %q", sess.Email)
	}
}

func TestVerifyCodeErrors(t *testing.T) {
	h, mailer, _ := setupAuthHandler(t)
	postJSON(h.RequestCode, `{"email":"worker@example.com"}`)

	cases := []struct {
		name      string
		body      string
		status    int
		wantError string
	}{
		{"missing code", `{"email":"worker@example.com"}`, http.StatusBadRequest, "Missing email or code"},
		{"missing email", `{"code":"123456"}`, http.StatusBadRequest, "Missing email or code"},
		{"wrong code", `{"email":"worker@example.com","code":"000001"}`, http.StatusUnauthorized, "Invalid code"},
		{"no code issued", `{"email":"other@example.com","code":"123456"}`, http.StatusUnauthorized, "Code expired or not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Keep the wrong-code case from hitting the right code by accident.
			if tc.name == "wrong code" && mailer.lastCode == "000001" {
				t.Skip("generated code collides with test fixture")
			}
			w := postJSON(h.VerifyCode, tc.body)
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tc.status, w.Body)
			}
			var resp map[string]string
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp["error"] != tc.wantError {
				t.Errorf("error = %q, want %q", resp["error"], tc.wantError)
			}
		})
	}
}

func TestVerifyCodeSingleUse(t *testing.T) {
	h, mailer, _ := setupAuthHandler(t)

	postJSON(h.RequestCode, `{"email":"worker@example.com"}`)
	body := `{"email":"worker@example.com","code":"` + mailer.lastCode + `"}`

	if w := postJSON(h.VerifyCode, body); w.Code != http.StatusOK {
		t.Fatalf("first verify status = %d", w.Code)
	}
	w := postJSON(h.VerifyCode, body)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("replay status = %d, want 401", w.Code)
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "Code expired or not found" {
		t.Errorf("error = %q", resp["error"])
	}
}

func TestLogoutClearsCookieAndSession(t *testing.T) {
	h, mailer, sessions := setupAuthHandler(t)

	postJSON(h.RequestCode, `{"email":"worker@example.com"}`)
	vw := postJSON(h.VerifyCode, `{"email":"worker@example.com","code":"`+mailer.lastCode+`"}`)
	var token string
	for _, c := range vw.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			token = c.Value
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	w := httptest.NewRecorder()
	h.Logout(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var cleared *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			cleared = c
		}
	}
	if cleared == nil || cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Errorf("expected expired empty cookie, got %+v", cleared)
	}

	sess, _ := sessions.GetByToken(token)
	if sess != nil {
		t.Error("server session should be deleted on logout")
	}
}
