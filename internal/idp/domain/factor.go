package domain

import "time"

// Factor statuses. A factor starts unverified at enrollment and becomes
// verified after the first successful challenge verification.
const (
	FactorStatusUnverified = "unverified"
	FactorStatusVerified   = "verified"
)

// FactorTypeTOTP is the only factor type the provider supports.
const FactorTypeTOTP = "totp"

// Factor is a registered TOTP credential bound to a user account.
type Factor struct {
	ID           string
	UserID       string
	FriendlyName string
	Secret       string // base32 TOTP secret, returned to the caller exactly once
	Status       string // FactorStatusUnverified or FactorStatusVerified
	CreatedAt    time.Time
	UpdatedAt    time.Time
	VerifiedAt   *time.Time
}

// Verified reports whether the factor has completed enrollment.
func (f Factor) Verified() bool { return f.Status == FactorStatusVerified }

// EnrollResponse is returned once when a factor is created. The secret and
// otpauth URI are never re-displayed after enrollment completes.
type EnrollResponse struct {
	FactorID string
	Secret   string
	QRCode   string // otpauth:// URL for QR code generation
	Issuer   string
	Account  string
}
