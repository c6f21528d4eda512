// Package authn implements the magic-link login flow: one-time emailed
// codes, per-IP rate limiting, and session issuance.
package authn

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/rsheridan/inkwell/internal/model"
	"github.com/rsheridan/inkwell/internal/ratelimit"
	"github.com/rsheridan/inkwell/internal/store"
)

const (
	purposeRequest = "request-code"
	purposeVerify  = "verify-code"
)

// Mailer delivers a one-time code to an address.
type Mailer interface {
	SendLoginCode(email, code string) error
}

// Config is injected at construction; the service never reads process
// environment itself.
type Config struct {
	// AllowedEmails is the admin allow-list. Compared case-insensitively.
	AllowedEmails []string

	CodeTTL    time.Duration // default 10 minutes
	SessionTTL time.Duration // default 1 hour

	RequestLimit int           // default 5 per window
	VerifyLimit  int           // default 10 per window
	Window       time.Duration // default 10 minutes
}

func (c *Config) applyDefaults() {
	if c.CodeTTL == 0 {
		c.CodeTTL = 10 * time.Minute
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = time.Hour
	}
	if c.RequestLimit == 0 {
		c.RequestLimit = 5
	}
	if c.VerifyLimit == 0 {
		c.VerifyLimit = 10
	}
	if c.Window == 0 {
		c.Window = 10 * time.Minute
	}
}

type Service struct {
	codes    *store.MagicCodeStore
	sessions *store.SessionStore
	limiter  *ratelimit.Limiter
	mailer   Mailer
	allowed  map[string]bool
	cfg      Config
	logger   *slog.Logger

	// now is overridable in tests.
	now func() time.Time
}

func New(codes *store.MagicCodeStore, sessions *store.SessionStore, limiter *ratelimit.Limiter, mailer Mailer, cfg Config, logger *slog.Logger) *Service {
	cfg.applyDefaults()
	allowed := make(map[string]bool, len(cfg.AllowedEmails))
	for _, e := range cfg.AllowedEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			allowed[e] = true
		}
	}
	return &Service{
		codes:    codes,
		sessions: sessions,
		limiter:  limiter,
		mailer:   mailer,
		allowed:  allowed,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// generateCode returns a uniformly random 6-digit code, leading zeros
// allowed (000000–999999).
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequestCode issues a one-time code for the email and mails it.
// Requesting again overwrites any previous code (last write wins) and
// restarts its lifetime. On a mail failure the stored code stays valid
// and the caller may retry within the rate limit.
func (s *Service) RequestCode(email, clientIP string) error {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		s.logger.Warn("code request rejected", "reason", "invalid email", "ip", clientIP)
		return ErrInvalidEmail
	}
	if !s.allowed[email] {
		s.logger.Warn("code request rejected", "reason", "not allowed", "email", email, "ip", clientIP)
		return ErrNotAllowed
	}
	if !s.limiter.Allow(purposeRequest, clientIP, s.cfg.RequestLimit, s.cfg.Window) {
		s.logger.Warn("code request rejected", "reason", "rate limited", "ip", clientIP)
		return ErrRateLimited
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.cfg.CodeTTL)
	if err := s.codes.Set(email, code, expiresAt); err != nil {
		return err
	}

	if err := s.mailer.SendLoginCode(email, code); err != nil {
		s.logger.Error("code request send failed", "email", email, "ip", clientIP, "error", err)
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}

	s.logger.Info("code sent", "email", email, "ip", clientIP)
	return nil
}

// VerifyCode redeems a code. A correct code is single-use: it is deleted
// before the session is issued, so replaying it yields ErrCodeNotFound.
// Every attempt, right or wrong, counts against the verify rate limit.
func (s *Service) VerifyCode(email, code, clientIP string) (*model.Session, error) {
	email = normalizeEmail(email)

	if !s.limiter.Allow(purposeVerify, clientIP, s.cfg.VerifyLimit, s.cfg.Window) {
		s.logger.Warn("code verify rejected", "reason", "rate limited", "ip", clientIP)
		return nil, ErrRateLimited
	}

	mc, err := s.codes.Get(email)
	if err != nil {
		return nil, err
	}
	if mc == nil {
		s.logger.Warn("code verify failed", "reason", "not found", "email", email, "ip", clientIP)
		return nil, ErrCodeNotFound
	}
	if s.now().After(mc.ExpiresAt) {
		// Cleanup independent of any TTL sweeper: the next attempt with
		// the same code reports not found, proving deletion.
		if err := s.codes.Delete(email); err != nil {
			return nil, err
		}
		s.logger.Warn("code verify failed", "reason", "expired", "email", email, "ip", clientIP)
		return nil, ErrCodeExpired
	}
	if mc.Code != code {
		s.logger.Warn("code verify failed", "reason", "mismatch", "email", email, "ip", clientIP)
		return nil, ErrCodeMismatch
	}

	if err := s.codes.Delete(email); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Create(email, s.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}

	s.logger.Info("admin authenticated", "email", email, "ip", clientIP)
	return sess, nil
}

// Logout destroys the session behind the token. Unknown tokens are a no-op.
func (s *Service) Logout(token string) error {
	return s.sessions.Delete(token)
}

// SessionTTL reports the configured session lifetime, used for the
// cookie Max-Age.
func (s *Service) SessionTTL() time.Duration {
	return s.cfg.SessionTTL
}
