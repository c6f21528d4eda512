package model

import "time"

// MagicCode is a one-time login code keyed by normalized email address.
// At most one code exists per email; requesting a new code overwrites it.
type MagicCode struct {
	Email     string    `json:"email"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
