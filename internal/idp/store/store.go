package store

import (
	"context"
	"errors"

	"github.com/zusplus/zusplus/internal/idp/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Factors() Factors
	Challenges() Challenges
	Sessions() Sessions

	ApplyMigrations() error

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store scoped to a single transaction.
type Tx interface {
	Users() Users
	Factors() Factors
	Challenges() Challenges
	Sessions() Sessions
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during password sign-in.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// IsEmpty returns true if there are no users. Used by bootstrap.
	IsEmpty(ctx context.Context) (bool, error)
}

type Factors interface {
	// GetFactorByID fetches a factor regardless of status.
	GetFactorByID(ctx context.Context, id string) (domain.Factor, error)

	// ListVerifiedFactors returns the user's verified TOTP factors, oldest
	// first, so the first entry is the canonical factor.
	ListVerifiedFactors(ctx context.Context, userID string) ([]domain.Factor, error)

	// CreateFactor inserts a new unverified factor.
	CreateFactor(ctx context.Context, f domain.Factor) error

	// MarkFactorVerified flips the factor to verified and stamps verified_at.
	MarkFactorVerified(ctx context.Context, factorID string) error

	// DeleteUnverifiedFactors removes pending factors for a user, so
	// re-enrollment replaces an abandoned attempt.
	DeleteUnverifiedFactors(ctx context.Context, userID string) error
}

type Challenges interface {
	// CreateChallenge stores a freshly minted challenge.
	CreateChallenge(ctx context.Context, c domain.Challenge) error

	// GetChallenge fetches a challenge by id.
	GetChallenge(ctx context.Context, id string) (domain.Challenge, error)

	// ConsumeChallenge marks the challenge used. It fails with ErrNotFound
	// if the challenge does not exist or was already consumed, which makes
	// consumption atomic: exactly one verify call wins.
	ConsumeChallenge(ctx context.Context, id string) error

	// DeleteExpiredChallenges is housekeeping.
	DeleteExpiredChallenges(ctx context.Context) error
}

type Sessions interface {
	// CreateSession records a new session row.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSession fetches a session by id.
	GetSession(ctx context.Context, id string) (domain.Session, error)

	// PromoteSession raises the session to AAL2 and records the extra
	// authentication method reference.
	PromoteSession(ctx context.Context, id string, amr []string) error

	// RevokeSession stamps revoked_at; the session token dies with it.
	RevokeSession(ctx context.Context, id string) error

	// DeleteExpiredSessions is housekeeping.
	DeleteExpiredSessions(ctx context.Context) error
}
