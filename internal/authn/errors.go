package authn

import "errors"

var (
	// ErrInvalidEmail is returned for syntactically invalid addresses.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrNotAllowed is returned when the address is not on the admin
	// allow-list. Checked after syntax, before rate limiting, so the two
	// rejections stay distinguishable.
	ErrNotAllowed = errors.New("email not allowed")

	// ErrRateLimited is returned when the per-IP window is exhausted.
	ErrRateLimited = errors.New("rate limited")

	// ErrCodeNotFound is returned when no code exists for the email:
	// never requested, already consumed, or evicted.
	ErrCodeNotFound = errors.New("code not found")

	// ErrCodeExpired is returned when the stored code is past its
	// lifetime. The code is deleted on this path.
	ErrCodeExpired = errors.New("code expired")

	// ErrCodeMismatch is returned when the supplied code is wrong.
	ErrCodeMismatch = errors.New("code mismatch")

	// ErrEmailDelivery is returned when the outbound mail call fails.
	// The stored code stays valid; the caller may retry the request.
	ErrEmailDelivery = errors.New("email delivery failed")
)
