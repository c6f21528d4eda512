package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rsheridan/inkwell/internal/model"
)

// MagicCodeStore holds one-time login codes, one row per email address.
// Requesting a new code replaces the previous one (last write wins).
type MagicCodeStore struct {
	db *sql.DB
}

func NewMagicCodeStore(db *sql.DB) *MagicCodeStore {
	return &MagicCodeStore{db: db}
}

// Set stores the code for the email, overwriting any existing code.
func (s *MagicCodeStore) Set(email, code string, expiresAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO magic_codes (email, code, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET code = excluded.code, expires_at = excluded.expires_at, created_at = datetime('now')`,
		email, code, expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("set magic code: %w", err)
	}
	return nil
}

// Get returns the stored code for the email, or nil if none exists.
// Expiry is the caller's concern: an expired row is still returned so the
// authenticator can distinguish expired from never-requested.
func (s *MagicCodeStore) Get(email string) (*model.MagicCode, error) {
	var mc model.MagicCode
	err := s.db.QueryRow(
		`SELECT email, code, expires_at, created_at FROM magic_codes WHERE email = ?`, email,
	).Scan(&mc.Email, &mc.Code, &mc.ExpiresAt, &mc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get magic code: %w", err)
	}
	return &mc, nil
}

// Delete removes the code for the email. Deleting a missing code is a no-op.
func (s *MagicCodeStore) Delete(email string) error {
	_, err := s.db.Exec(`DELETE FROM magic_codes WHERE email = ?`, email)
	if err != nil {
		return fmt.Errorf("delete magic code: %w", err)
	}
	return nil
}

// DeleteExpired removes codes past their expiry and returns the count.
func (s *MagicCodeStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM magic_codes WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("delete expired magic codes: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
