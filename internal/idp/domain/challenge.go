package domain

import "time"

// Challenge is a short-lived, single-use request to prove possession of a
// factor. One verify call consumes it atomically, whether it succeeds or not.
type Challenge struct {
	ID        string
	FactorID  string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// Consumed reports whether a verify call has already used this challenge.
func (c Challenge) Consumed() bool { return c.UsedAt != nil }

// Expired reports whether the challenge has passed its validity window.
func (c Challenge) Expired(now time.Time) bool { return now.After(c.ExpiresAt) }
