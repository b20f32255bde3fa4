package idp

import "time"

// Assurance levels reported by the provider.
const (
	AAL1 = "aal1"
	AAL2 = "aal2"
)

// Factor statuses.
const (
	FactorStatusUnverified = "unverified"
	FactorStatusVerified   = "verified"
)

// User is the account subset the provider exposes over the wire.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// TokenResponse is returned by POST /v1/auth/login and by a successful
// verify. The access token is a bearer credential for the named session.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"` // always "Bearer"
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
	AAL         string    `json:"aal"`
	AMR         []string  `json:"amr"`
}

// SessionResponse is returned by GET /v1/auth/session. The AAL here is read
// from the session row, not echoed from the token, so it reflects any
// promotion that happened after the token was minted.
type SessionResponse struct {
	SessionID string    `json:"session_id"`
	User      User      `json:"user"`
	AAL       string    `json:"aal"`
	AMR       []string  `json:"amr"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Factor is a registered TOTP credential. The secret is never included; it
// is only ever returned once, inside EnrollResponse.
type Factor struct {
	ID           string     `json:"id"`
	FriendlyName string     `json:"friendly_name,omitempty"`
	FactorType   string     `json:"factor_type"` // always "totp"
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
}

// FactorsResponse is returned by GET /v1/factors. Only verified factors are
// listed, oldest first; the first entry is the canonical sign-in factor.
type FactorsResponse struct {
	Factors []Factor `json:"factors"`
}

// EnrollRequest is the body of POST /v1/factors.
type EnrollRequest struct {
	FriendlyName string `json:"friendly_name,omitempty"`
}

// TOTPProvisioning carries the shared secret material shown to the user
// exactly once at enrollment.
type TOTPProvisioning struct {
	Secret  string `json:"secret"`
	QRCode  string `json:"qr_code"` // otpauth:// URL to render as a QR code
	Issuer  string `json:"issuer"`
	Account string `json:"account"`
}

// EnrollResponse is returned by POST /v1/factors.
type EnrollResponse struct {
	ID         string           `json:"id"`
	FactorType string           `json:"factor_type"`
	TOTP       TOTPProvisioning `json:"totp"`
}

// ChallengeResponse is returned by POST /v1/factors/{id}/challenge. The
// challenge is single use and must be verified before ExpiresAt.
type ChallengeResponse struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VerifyRequest is the body of POST /v1/factors/{id}/verify.
type VerifyRequest struct {
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
}

// BootstrapRequest is the body of POST /v1/bootstrap, gated by the
// provider's bootstrap token.
type BootstrapRequest struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports per-dependency readiness.
type HealthChecks struct {
	Database         string `json:"database,omitempty"`
	IdentityProvider string `json:"identity_provider,omitempty"`
}
