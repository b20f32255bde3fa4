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
	"github.com/zusplus/zusplus/pkg/idx"
	"github.com/zusplus/zusplus/pkg/slogx"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// DefaultChallengeTTL bounds how long a verify call may follow its challenge.
const DefaultChallengeTTL = 5 * time.Minute

var (
	ErrInvalidTOTPCode    = errors.New("invalid TOTP code")
	ErrFactorNotFound     = errors.New("factor not found")
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrChallengeExpired   = errors.New("challenge expired")
	ErrChallengeConsumed  = errors.New("challenge already consumed")
	ErrFactorNotChallenge = errors.New("challenge does not belong to this factor")
)

// FactorService owns TOTP enrollment and the challenge/verify flow.
type FactorService struct {
	Store        store.Store
	Codec        *token.Codec
	Issuer       string // Issuer name stamped into otpauth URLs (e.g. "ZUSPlus")
	ChallengeTTL time.Duration
}

func (s *FactorService) challengeTTL() time.Duration {
	if s.ChallengeTTL > 0 {
		return s.ChallengeTTL
	}
	return DefaultChallengeTTL
}

// Enroll mints a new unverified TOTP factor for the user and returns the
// secret and otpauth URL exactly once. Any previous unverified factor is
// replaced, so an abandoned enrollment can simply be restarted.
func (s *FactorService) Enroll(ctx context.Context, userID, friendlyName string) (domain.EnrollResponse, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.EnrollResponse{}, fmt.Errorf("failed to load user: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.EnrollResponse{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	now := time.Now().UTC()
	factor := domain.Factor{
		ID:           idx.New().String(),
		UserID:       userID,
		FriendlyName: friendlyName,
		Secret:       key.Secret(),
		Status:       domain.FactorStatusUnverified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Factors().DeleteUnverifiedFactors(ctx, userID); err != nil {
			return fmt.Errorf("failed to clear pending factors: %w", err)
		}
		return tx.Factors().CreateFactor(ctx, factor)
	})
	if err != nil {
		return domain.EnrollResponse{}, fmt.Errorf("failed to store factor: %w", err)
	}

	l.Info("TOTP factor enrolled",
		slog.String("user_id", userID),
		slog.String("factor_id", factor.ID),
	)
	return domain.EnrollResponse{
		FactorID: factor.ID,
		Secret:   key.Secret(),
		QRCode:   key.URL(),
		Issuer:   s.Issuer,
		Account:  user.Email,
	}, nil
}

// ListVerified returns the user's verified factors, oldest first. The first
// entry is the canonical factor a sign-in should challenge.
func (s *FactorService) ListVerified(ctx context.Context, userID string) ([]domain.Factor, error) {
	factors, err := s.Store.Factors().ListVerifiedFactors(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list factors: %w", err)
	}
	return factors, nil
}

// Challenge opens a short-lived, single-use window in which exactly one
// verify call may be made against the factor.
func (s *FactorService) Challenge(ctx context.Context, userID, factorID string) (domain.Challenge, error) {
	factor, err := s.Store.Factors().GetFactorByID(ctx, factorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Challenge{}, ErrFactorNotFound
		}
		return domain.Challenge{}, fmt.Errorf("failed to load factor: %w", err)
	}
	if factor.UserID != userID {
		return domain.Challenge{}, ErrFactorNotFound
	}

	now := time.Now().UTC()
	ch := domain.Challenge{
		ID:        idx.New().String(),
		FactorID:  factor.ID,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.challengeTTL()),
	}
	if err := s.Store.Challenges().CreateChallenge(ctx, ch); err != nil {
		return domain.Challenge{}, fmt.Errorf("failed to create challenge: %w", err)
	}
	return ch, nil
}

// VerifyResult reports a successful verification. A fresh AAL2 token is
// minted for the same session id that the caller presented.
type VerifyResult struct {
	Factor  domain.Factor
	Session domain.Session
	Token   string
}

// Verify consumes the challenge and checks the TOTP code. The challenge is
// consumed first and unconditionally: a wrong code still burns it, and a
// second verify against the same challenge fails with ErrChallengeConsumed
// no matter what code it carries. On success an unverified factor becomes
// verified and the session is promoted to AAL2.
func (s *FactorService) Verify(ctx context.Context, sess domain.Session, factorID, challengeID, code string) (VerifyResult, error) {
	l := slogx.FromContext(ctx)

	factor, err := s.Store.Factors().GetFactorByID(ctx, factorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return VerifyResult{}, ErrFactorNotFound
		}
		return VerifyResult{}, fmt.Errorf("failed to load factor: %w", err)
	}
	if factor.UserID != sess.UserID {
		return VerifyResult{}, ErrFactorNotFound
	}

	ch, err := s.Store.Challenges().GetChallenge(ctx, challengeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return VerifyResult{}, ErrChallengeNotFound
		}
		return VerifyResult{}, fmt.Errorf("failed to load challenge: %w", err)
	}
	if ch.FactorID != factor.ID {
		return VerifyResult{}, ErrFactorNotChallenge
	}

	now := time.Now().UTC()
	if ch.Expired(now) {
		return VerifyResult{}, ErrChallengeExpired
	}

	// Consume before validating the code. First caller wins; everyone else
	// gets ErrChallengeConsumed regardless of what code they sent.
	if err := s.Store.Challenges().ConsumeChallenge(ctx, challengeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return VerifyResult{}, ErrChallengeConsumed
		}
		return VerifyResult{}, fmt.Errorf("failed to consume challenge: %w", err)
	}

	if !totp.Validate(code, factor.Secret) {
		l.Warn("TOTP code rejected",
			slog.String("user_id", sess.UserID),
			slog.String("factor_id", factor.ID),
		)
		return VerifyResult{}, ErrInvalidTOTPCode
	}

	amr := []string{domain.AMRPassword, domain.AMROTP}
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if !factor.Verified() {
			if err := tx.Factors().MarkFactorVerified(ctx, factor.ID); err != nil {
				return fmt.Errorf("failed to mark factor verified: %w", err)
			}
		}
		return tx.Sessions().PromoteSession(ctx, sess.ID, amr)
	})
	if err != nil {
		return VerifyResult{}, fmt.Errorf("failed to promote session: %w", err)
	}

	factor.Status = domain.FactorStatusVerified
	sess.AAL = domain.AAL2
	sess.AMR = amr

	user, err := s.Store.Users().GetUserByID(ctx, sess.UserID)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("failed to load user: %w", err)
	}

	raw, err := s.Codec.Mint(sess.UserID, sess.ID, user.Email, sess.AAL, sess.AMR, sess.ExpiresAt.Sub(now), now)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("failed to mint session token: %w", err)
	}

	l.Info("session promoted to aal2",
		slog.String("user_id", sess.UserID),
		slog.String("session_id", sess.ID),
		slog.String("factor_id", factor.ID),
	)
	return VerifyResult{Factor: factor, Session: sess, Token: raw}, nil
}
