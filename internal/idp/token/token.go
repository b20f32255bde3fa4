// Package token mints and verifies the HS256 session tokens issued by the
// identity provider. The token is a bearer credential that names a session
// row; the database row stays the source of truth for revocation and the
// current assurance level.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the default lifetime of a session token. It matches
// the lifetime of the backing session row.
const DefaultSessionTTL = 8 * time.Hour

var (
	ErrMalformed   = errors.New("token: malformed token")
	ErrAlgMismatch = errors.New("token: algorithm mismatch")
	ErrInvalidSig  = errors.New("token: invalid signature")
	ErrExpired     = errors.New("token: token expired")
	ErrIssuer      = errors.New("token: issuer mismatch")
)

// Claims are the session-token claims. Additive changes only, so older
// tokens keep verifying across deploys.
type Claims struct {
	jwt.RegisteredClaims

	// SID names the backing session row.
	SID string `json:"sid"`

	// Email of the authenticated user, for display only.
	Email string `json:"email,omitempty"`

	// AAL is the assurance level at mint time ("aal1" or "aal2"). Callers
	// that gate on assurance must re-read the session row rather than
	// trust this snapshot.
	AAL string `json:"aal"`

	// AMR lists the authentication methods used ("pwd", "otp").
	AMR []string `json:"amr,omitempty"`
}

// Codec signs and verifies session tokens with a shared HS256 secret.
type Codec struct {
	secret []byte
	issuer string
}

// NewCodec builds a Codec. The secret must be non-empty; issuer is stamped
// into and enforced on every token.
func NewCodec(secret []byte, issuer string) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token: empty signing secret")
	}
	return &Codec{secret: secret, issuer: issuer}, nil
}

// Mint signs a token for the given session.
func (c *Codec) Mint(userID, sid, email, aal string, amr []string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        newJTI(),
		},
		SID:   sid,
		Email: email,
		AAL:   aal,
		AMR:   amr,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify parses and validates a token, returning its claims.
func (c *Codec) Verify(raw string) (Claims, error) {
	var claims Claims

	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAlgMismatch
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return Claims{}, ErrInvalidSig
	case err != nil:
		return Claims{}, ErrMalformed
	case !tok.Valid:
		return Claims{}, ErrMalformed
	}

	if c.issuer != "" && claims.Issuer != c.issuer {
		return Claims{}, ErrIssuer
	}

	return claims, nil
}

// newJTI returns a URL-safe random identifier for the "jti" claim.
func newJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
