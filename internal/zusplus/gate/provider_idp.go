package gate

import (
	"context"
	"errors"
	"sync"

	"github.com/zusplus/zusplus/pkg/idp"
)

// IDPProvider adapts the identity-provider SDK to the gate's Provider
// capability. One instance carries one browser session.
type IDPProvider struct {
	client *idp.Client

	mu   sync.RWMutex
	sess *idp.Session
}

// NewIDPProvider wraps an SDK client.
func NewIDPProvider(client *idp.Client) *IDPProvider {
	return &IDPProvider{client: client}
}

func (p *IDPProvider) current() *idp.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sess
}

func (p *IDPProvider) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	sess, err := p.client.Login(ctx, email, password)
	if err != nil {
		return Session{}, mapError(err)
	}

	p.mu.Lock()
	p.sess = sess
	p.mu.Unlock()

	resp, err := sess.Get(ctx)
	if err != nil {
		return Session{}, mapError(err)
	}
	return Session{UserID: resp.User.ID, Email: resp.User.Email, AAL: resp.AAL}, nil
}

func (p *IDPProvider) GetSession(ctx context.Context) (Session, error) {
	sess := p.current()
	if sess == nil {
		return Session{}, ErrNotAuthenticated
	}

	resp, err := sess.Get(ctx)
	if err != nil {
		return Session{}, mapError(err)
	}
	return Session{UserID: resp.User.ID, Email: resp.User.Email, AAL: resp.AAL}, nil
}

func (p *IDPProvider) ListFactors(ctx context.Context) ([]Factor, error) {
	sess := p.current()
	if sess == nil {
		return nil, ErrNotAuthenticated
	}

	factors, err := sess.ListFactors(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]Factor, 0, len(factors))
	for _, f := range factors {
		out = append(out, Factor{ID: f.ID, FriendlyName: f.FriendlyName})
	}
	return out, nil
}

func (p *IDPProvider) EnrollFactor(ctx context.Context, friendlyName string) (Enrollment, error) {
	sess := p.current()
	if sess == nil {
		return Enrollment{}, ErrNotAuthenticated
	}

	resp, err := sess.Enroll(ctx, friendlyName)
	if err != nil {
		return Enrollment{}, mapError(err)
	}
	return Enrollment{
		FactorID: resp.ID,
		Secret:   resp.TOTP.Secret,
		QRCode:   resp.TOTP.QRCode,
	}, nil
}

func (p *IDPProvider) CreateChallenge(ctx context.Context, factorID string) (string, error) {
	sess := p.current()
	if sess == nil {
		return "", ErrNotAuthenticated
	}

	resp, err := sess.CreateChallenge(ctx, factorID)
	if err != nil {
		return "", mapError(err)
	}
	return resp.ID, nil
}

func (p *IDPProvider) VerifyChallenge(ctx context.Context, factorID, challengeID, code string) error {
	sess := p.current()
	if sess == nil {
		return ErrNotAuthenticated
	}

	if _, err := sess.Verify(ctx, factorID, challengeID, code); err != nil {
		return mapError(err)
	}
	return nil
}

func (p *IDPProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	sess := p.sess
	p.sess = nil
	p.mu.Unlock()

	if sess == nil {
		return nil
	}
	return sess.Logout(ctx)
}

// mapError translates SDK error codes into the gate's vocabulary.
func mapError(err error) error {
	var apiErr *idp.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.Code {
	case idp.ErrorCodeInvalidCredentials:
		return ErrInvalidCredentials
	case idp.ErrorCodeInvalidCode, idp.ErrorCodeChallengeExpired:
		return ErrInvalidCode
	case idp.ErrorCodeChallengeConsumed:
		return ErrChallengeConsumed
	case idp.ErrorCodeInvalidToken:
		return ErrNotAuthenticated
	default:
		return err
	}
}
