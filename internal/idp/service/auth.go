package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zusplus/zusplus/internal/idp/domain"
	"github.com/zusplus/zusplus/internal/idp/store"
	"github.com/zusplus/zusplus/internal/idp/token"
	"github.com/zusplus/zusplus/pkg/cryptox"
	"github.com/zusplus/zusplus/pkg/idx"
	"github.com/zusplus/zusplus/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found or no longer active")

	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
)

// AuthService handles password sign-in, session reads, logout and the
// one-time bootstrap of the first account.
type AuthService struct {
	Store      store.Store
	Codec      *token.Codec
	SessionTTL time.Duration

	// BootstrapToken gates the first-account creation endpoint.
	BootstrapToken string
}

func (s *AuthService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return token.DefaultSessionTTL
}

// Login verifies the password and opens a fresh AAL1 session. The returned
// token is the bearer credential for everything after the password step,
// including factor enrollment and verification.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, domain.Session, domain.User, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn roughly the same time as a real verify so the
			// response does not leak account existence.
			_ = cryptox.VerifyPassword(password, dummyHash)
			return "", domain.Session{}, domain.User{}, ErrInvalidCredentials
		}
		return "", domain.Session{}, domain.User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Warn("password sign-in rejected", slog.String("user_id", user.ID))
		return "", domain.Session{}, domain.User{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	sess := domain.Session{
		ID:        idx.New().String(),
		UserID:    user.ID,
		AAL:       domain.AAL1,
		AMR:       []string{domain.AMRPassword},
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL()),
	}
	if err := s.Store.Sessions().CreateSession(ctx, sess); err != nil {
		return "", domain.Session{}, domain.User{}, fmt.Errorf("failed to create session: %w", err)
	}

	raw, err := s.Codec.Mint(user.ID, sess.ID, user.Email, sess.AAL, sess.AMR, sess.ExpiresAt.Sub(now), now)
	if err != nil {
		return "", domain.Session{}, domain.User{}, fmt.Errorf("failed to mint session token: %w", err)
	}

	l.Info("password sign-in succeeded",
		slog.String("user_id", user.ID),
		slog.String("session_id", sess.ID),
	)
	return raw, sess, user, nil
}

// Session reads the current session row and its user. This is the source of
// truth for assurance level: the AAL in the token is only a snapshot.
func (s *AuthService) Session(ctx context.Context, sid string) (domain.Session, domain.User, error) {
	sess, err := s.Store.Sessions().GetSession(ctx, sid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, domain.User{}, ErrSessionNotFound
		}
		return domain.Session{}, domain.User{}, fmt.Errorf("failed to load session: %w", err)
	}
	if !sess.Active(time.Now().UTC()) {
		return domain.Session{}, domain.User{}, ErrSessionNotFound
	}

	user, err := s.Store.Users().GetUserByID(ctx, sess.UserID)
	if err != nil {
		return domain.Session{}, domain.User{}, fmt.Errorf("failed to load user: %w", err)
	}

	return sess, user, nil
}

// Logout revokes the session row. The token keeps its valid signature but
// every session read after this fails.
func (s *AuthService) Logout(ctx context.Context, sid string) error {
	err := s.Store.Sessions().RevokeSession(ctx, sid)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// Bootstrap creates the first user account when the store is empty. It is
// gated by a pre-configured token so a freshly deployed instance cannot be
// claimed by whoever finds it first.
func (s *AuthService) Bootstrap(ctx context.Context, providedToken, email, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to check users: %w", err)
	}
	if !empty {
		l.Warn("attempted bootstrap on already-bootstrapped system")
		return domain.User{}, ErrBootstrapAlready
	}

	if s.BootstrapToken == "" || providedToken != s.BootstrapToken {
		l.Warn("unauthorized bootstrap attempt")
		return domain.User{}, ErrBootstrapUnauthorized
	}

	passHash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: passHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	l.Info("bootstrap created first account", slog.String("user_id", user.ID))
	return user, nil
}

// dummyHash is a throwaway argon2 hash verified on unknown-email sign-ins
// to keep the timing close to the real path.
const dummyHash = "$argon2id$v=19$m=19456,t=2,p=1$AAAAAAAAAAAAAAAAAAAAAA$on2eJ0n+qQ8X8mCj0rN1qFyXxTTLDCzvdeOZ8vdZ2KE"
