package gate

import "context"

// Assurance levels as reported by the identity provider.
const (
	AAL1 = "aal1"
	AAL2 = "aal2"
)

// Session is the gate's fully typed view of a provider session. The
// assurance level is a first-class field, sourced from the provider's
// canonical response, never duck-typed out of an opaque blob.
type Session struct {
	UserID string
	Email  string
	AAL    string
}

// Factor identifies an enrolled TOTP credential.
type Factor struct {
	ID           string
	FriendlyName string
}

// Enrollment is the one-time provisioning material for a new factor.
type Enrollment struct {
	FactorID string
	Secret   string
	QRCode   string // otpauth:// URL, rendered as a scannable code
}

// Provider is the identity-provider capability the gate consumes. A
// Provider instance is bound to one browser session: SignInWithPassword
// establishes the credential that the remaining calls implicitly use.
//
// Implementations translate their own error vocabulary into the gate's
// sentinels: ErrInvalidCredentials for a rejected password,
// ErrInvalidCode for a wrong or expired code, ErrChallengeConsumed for a
// lost race on a single-use challenge, and ErrNotAuthenticated for a
// missing session.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (Session, error)
	GetSession(ctx context.Context) (Session, error)
	ListFactors(ctx context.Context) ([]Factor, error)
	EnrollFactor(ctx context.Context, friendlyName string) (Enrollment, error)
	CreateChallenge(ctx context.Context, factorID string) (string, error)
	VerifyChallenge(ctx context.Context, factorID, challengeID, code string) error
	SignOut(ctx context.Context) error
}
