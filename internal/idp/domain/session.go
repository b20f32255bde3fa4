package domain

import "time"

// Authenticator assurance levels. AAL1 means the password alone was verified;
// AAL2 means a second factor was verified within this session.
const (
	AAL1 = "aal1"
	AAL2 = "aal2"
)

// Authentication method references recorded on a session.
const (
	AMRPassword = "pwd"
	AMROTP      = "otp"
)

// Session is the server-side record backing an issued session token. The
// token carries the same claims, but this row is the source of truth: a
// revoked or expired row invalidates the token regardless of its signature.
type Session struct {
	ID        string
	UserID    string
	AAL       string // AAL1 or AAL2
	AMR       []string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Active reports whether the session can still be used.
func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
