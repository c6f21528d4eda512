package authn

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/rsheridan/inkwell/internal/database"
	"github.com/rsheridan/inkwell/internal/ratelimit"
	"github.com/rsheridan/inkwell/internal/store"
)

type fakeMailer struct {
	sent []struct{ email, code string }
	err  error
}

func (m *fakeMailer) SendLoginCode(email, code string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, struct{ email, code string }{email, code})
	return nil
}

func (m *fakeMailer) lastCode() string {
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].code
}

func setupService(t *testing.T, cfg Config) (*Service, *fakeMailer) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if cfg.AllowedEmails == nil {
		cfg.AllowedEmails = []string{"worker@example.com"}
	}
	mailer := &fakeMailer{}
	svc := New(
		store.NewMagicCodeStore(db),
		store.NewSessionStore(db),
		ratelimit.New(),
		mailer,
		cfg,
		slog.Default(),
	)
	return svc, mailer
}

func TestRequestThenVerifySucceedsExactlyOnce(t *testing.T) {
	svc, mailer := setupService(t, Config{})

	if err := svc.RequestCode("worker@example.com", "1.2.3.4"); err != nil {
		t.Fatalf("request code: %v", err)
	}
	code := mailer.lastCode()
	if len(code) != 6 {
		t.Fatalf("code = %q, want 6 digits", code)
	}

	sess, err := svc.VerifyCode("worker@example.com", code, "1.2.3.4")
	if err != nil {
		t.Fatalf("verify code: %v", err)
	}
	if sess == nil || sess.Email != "worker@example.com" {
		t.Fatalf("session = %v", sess)
	}

	// Replaying the consumed code fails with not found, not mismatch.
	_, err = svc.VerifyCode("worker@example.com", code, "1.2.3.4")
	if !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("replay err = %v, want ErrCodeNotFound", err)
	}
}

func TestRequestCodeNormalizesEmail(t *testing.T) {
	svc, mailer := setupService(t, Config{})

	if err := svc.RequestCode("  Worker@Example.COM ", "1.2.3.4"); err != nil {
		t.Fatalf("request code: %v", err)
	}

	if _, err := svc.VerifyCode("worker@example.com", mailer.lastCode(), "1.2.3.4"); err != nil {
		t.Fatalf("verify with normalized email: %v", err)
	}
}

func TestRequestCodeInvalidEmail(t *testing.T) {
	svc, _ := setupService(t, Config{})

	err := svc.RequestCode("not-an-address", "1.2.3.4")
	if !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("err = %v, want ErrInvalidEmail", err)
	}
}

func TestRequestCodeNotAllowed(t *testing.T) {
	svc, _ := setupService(t, Config{})

	err := svc.RequestCode("stranger@example.com", "1.2.3.4")
	if !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("err = %v, want ErrNotAllowed", err)
	}
}

func TestRequestCodeRateLimit(t *testing.T) {
	svc, _ := setupService(t, Config{})

	for i := 0; i < 5; i++ {
		if err := svc.RequestCode("worker@example.com", "1.2.3.4"); err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
	}

	err := svc.RequestCode("worker@example.com", "1.2.3.4")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("6th request err = %v, want ErrRateLimited", err)
	}

	// A different IP is unaffected.
	if err := svc.RequestCode("worker@example.com", "5.6.7.8"); err != nil {
		t.Fatalf("other IP: %v", err)
	}
}

func TestVerifyCodeRateLimit(t *testing.T) {
	svc, _ := setupService(t, Config{})

	// Attempts count whether or not a code exists.
	for i := 0; i < 10; i++ {
		_, err := svc.VerifyCode("worker@example.com", "000000", "1.2.3.4")
		if !errors.Is(err, ErrCodeNotFound) {
			t.Fatalf("attempt %d err = %v, want ErrCodeNotFound", i+1, err)
		}
	}

	_, err := svc.VerifyCode("worker@example.com", "000000", "1.2.3.4")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("11th attempt err = %v, want ErrRateLimited", err)
	}
}

func TestVerifyCodeMismatch(t *testing.T) {
	svc, mailer := setupService(t, Config{})

	svc.RequestCode("worker@example.com", "1.2.3.4")

	wrong := "000000"
	if mailer.lastCode() == wrong {
		wrong = "000001"
	}
	_, err := svc.VerifyCode("worker@example.com", wrong, "1.2.3.4")
	if !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("err = %v, want ErrCodeMismatch", err)
	}

	// A wrong attempt does not consume the code.
	if _, err := svc.VerifyCode("worker@example.com", mailer.lastCode(), "1.2.3.4"); err != nil {
		t.Fatalf("correct code after mismatch: %v", err)
	}
}

func TestVerifyCodeExpiryDeletesCode(t *testing.T) {
	svc, mailer := setupService(t, Config{})

	now := time.Now()
	svc.now = func() time.Time { return now }

	svc.RequestCode("worker@example.com", "1.2.3.4")
	code := mailer.lastCode()

	// Advance past the 10-minute lifetime.
	now = now.Add(10*time.Minute + time.Second)

	_, err := svc.VerifyCode("worker@example.com", code, "1.2.3.4")
	if !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("err = %v, want ErrCodeExpired", err)
	}

	// The expiry path deleted the code, so the same code now reports
	// not found rather than expired.
	_, err = svc.VerifyCode("worker@example.com", code, "1.2.3.4")
	if !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("err = %v, want ErrCodeNotFound after deletion", err)
	}
}

func TestRequestCodeOverwritesPrevious(t *testing.T) {
	svc, mailer := setupService(t, Config{})

	svc.RequestCode("worker@example.com", "1.2.3.4")
	first := mailer.lastCode()
	svc.RequestCode("worker@example.com", "1.2.3.4")
	second := mailer.lastCode()

	if first != second {
		// Only the most recently issued code validates.
		_, err := svc.VerifyCode("worker@example.com", first, "1.2.3.4")
		if !errors.Is(err, ErrCodeMismatch) {
			t.Fatalf("stale code err = %v, want ErrCodeMismatch", err)
		}
	}
	if _, err := svc.VerifyCode("worker@example.com", second, "1.2.3.4"); err != nil {
		t.Fatalf("latest code: %v", err)
	}
}

func TestRequestCodeMailFailureKeepsCode(t *testing.T) {
	svc, mailer := setupService(t, Config{})

	mailer.err = fmt.Errorf("smtp down")
	err := svc.RequestCode("worker@example.com", "1.2.3.4")
	if !errors.Is(err, ErrEmailDelivery) {
		t.Fatalf("err = %v, want ErrEmailDelivery", err)
	}

	// The code was stored before the send; a retry overwrites it and the
	// new one validates.
	mailer.err = nil
	if err := svc.RequestCode("worker@example.com", "1.2.3.4"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if _, err := svc.VerifyCode("worker@example.com", mailer.lastCode(), "1.2.3.4"); err != nil {
		t.Fatalf("verify after retry: %v", err)
	}
}

func TestLogout(t *testing.T) {
	svc, mailer := setupService(t, Config{})

	svc.RequestCode("worker@example.com", "1.2.3.4")
	sess, err := svc.VerifyCode("worker@example.com", mailer.lastCode(), "1.2.3.4")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if err := svc.Logout(sess.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	// Logging out an unknown token is a no-op.
	if err := svc.Logout("unknown"); err != nil {
		t.Fatalf("logout unknown: %v", err)
	}
}
