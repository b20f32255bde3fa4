package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeProvider is an in-memory Provider with scriptable failures.
type fakeProvider struct {
	mu sync.Mutex

	password string
	email    string

	factors    []Factor
	sessionAAL string
	signedIn   bool

	enrollCount    int
	nextChallenge  int
	consumed       map[string]bool
	validCode      string
	listFactorsErr error
	signInErr      error
}

func newFakeProvider(email, password string, enrolled bool) *fakeProvider {
	p := &fakeProvider{
		email:     email,
		password:  password,
		validCode: "123456",
		consumed:  map[string]bool{},
	}
	if enrolled {
		p.factors = []Factor{{ID: "factor-1"}}
	}
	return p
}

func (p *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.signInErr != nil {
		return Session{}, p.signInErr
	}
	if email != p.email || password != p.password {
		return Session{}, ErrInvalidCredentials
	}
	p.signedIn = true
	p.sessionAAL = AAL1
	return Session{UserID: "user-1", Email: email, AAL: p.sessionAAL}, nil
}

func (p *fakeProvider) GetSession(ctx context.Context) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.signedIn {
		return Session{}, ErrNotAuthenticated
	}
	return Session{UserID: "user-1", Email: p.email, AAL: p.sessionAAL}, nil
}

func (p *fakeProvider) ListFactors(ctx context.Context) ([]Factor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listFactorsErr != nil {
		return nil, p.listFactorsErr
	}
	return append([]Factor(nil), p.factors...), nil
}

func (p *fakeProvider) EnrollFactor(ctx context.Context, friendlyName string) (Enrollment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enrollCount++
	id := fmt.Sprintf("pending-%d", p.enrollCount)
	return Enrollment{FactorID: id, Secret: "SECRET" + id, QRCode: "otpauth://totp/" + id}, nil
}

func (p *fakeProvider) CreateChallenge(ctx context.Context, factorID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextChallenge++
	return fmt.Sprintf("challenge-%d", p.nextChallenge), nil
}

func (p *fakeProvider) VerifyChallenge(ctx context.Context, factorID, challengeID, code string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.consumed[challengeID] {
		return ErrChallengeConsumed
	}
	p.consumed[challengeID] = true
	if code != p.validCode {
		return ErrInvalidCode
	}
	p.sessionAAL = AAL2
	if factorID != "factor-1" {
		// enrollment completing
		p.factors = append(p.factors, Factor{ID: factorID})
	}
	return nil
}

func (p *fakeProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signedIn = false
	p.sessionAAL = ""
	return nil
}

func TestLoginRoutesUnenrolledAccountToEnrollment(t *testing.T) {
	ctx := context.Background()
	g := New(newFakeProvider("jan@example.pl", "pw", false))

	state, err := g.Login(ctx, "jan@example.pl", "pw")
	require.NoError(t, err)
	require.Equal(t, StateEnrollmentRequired, state)
	require.Equal(t, StateEnrollmentRequired, g.State())
}

func TestLoginRoutesEnrolledAccountToVerification(t *testing.T) {
	ctx := context.Background()
	g := New(newFakeProvider("jan@example.pl", "pw", true))

	state, err := g.Login(ctx, "jan@example.pl", "pw")
	require.NoError(t, err)
	require.Equal(t, StateVerificationRequired, state)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider("jan@example.pl", "pw", true)
	g := New(provider)

	state, err := g.Login(ctx, "jan@example.pl", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, StateLoggedOut, state)
	require.False(t, provider.signedIn)
}

func TestLoginRejectsEmptyInput(t *testing.T) {
	ctx := context.Background()
	g := New(newFakeProvider("jan@example.pl", "pw", true))

	_, err := g.Login(ctx, "", "pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = g.Login(ctx, "jan@example.pl", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginHoldsOnFactorInspectionFailure(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider("jan@example.pl", "pw", true)
	provider.listFactorsErr = errors.New("network down")
	g := New(provider)

	state, err := g.Login(ctx, "jan@example.pl", "pw")
	require.ErrorIs(t, err, ErrProvider)
	require.Equal(t, StateLoggedOut, state)
	// Never silently grants access and the half-open session is dropped.
	require.False(t, provider.signedIn)
}

func TestEnrollmentFlow(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider("jan@example.pl", "pw", false)
	g := New(provider)

	_, err := g.Login(ctx, "jan@example.pl", "pw")
	require.NoError(t, err)

	enrollment, err := g.StartEnrollment(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.Secret)
	require.Contains(t, enrollment.QRCode, "otpauth://")

	t.Run("wrong code keeps state and reuses the secret", func(t *testing.T) {
		state, err := g.VerifyEnrollment(ctx, "000000")
		require.ErrorIs(t, err, ErrInvalidCode)
		require.Equal(t, StateEnrollmentRequired, state)

		again, err := g.StartEnrollment(ctx)
		require.NoError(t, err)
		require.Equal(t, enrollment.FactorID, again.FactorID)
		require.Equal(t, enrollment.Secret, again.Secret)
		require.Equal(t, 1, provider.enrollCount)
	})

	t.Run("correct code authenticates", func(t *testing.T) {
		state, err := g.VerifyEnrollment(ctx, "123456")
		require.NoError(t, err)
		require.Equal(t, StateAuthenticated, state)
		require.Equal(t, AAL2, g.Session().AAL)
		require.NoError(t, g.Guard(ctx))
	})
}

func TestVerificationFlow(t *testing.T) {
	ctx := context.Background()
	g := New(newFakeProvider("jan@example.pl", "pw", true))

	_, err := g.Login(ctx, "jan@example.pl", "pw")
	require.NoError(t, err)

	// Three wrong attempts in a row stay in VerificationRequired.
	for i := 0; i < 3; i++ {
		state, err := g.VerifyLogin(ctx, "999999")
		require.ErrorIs(t, err, ErrInvalidCode)
		require.Equal(t, StateVerificationRequired, state)
	}

	state, err := g.VerifyLogin(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, state)
}

func TestVerifyRejectsMalformedCodes(t *testing.T) {
	ctx := context.Background()
	g := New(newFakeProvider("jan@example.pl", "pw", true))

	_, err := g.Login(ctx, "jan@example.pl", "pw")
	require.NoError(t, err)

	for _, code := range []string{"", "12345", "1234567", "12345a", " 123456", "123456 ", "12 456"} {
		_, err := g.VerifyLogin(ctx, code)
		require.ErrorIs(t, err, ErrInvalidCode, "code %q", code)
		require.Equal(t, StateVerificationRequired, g.State())
	}
}

func TestConsumedChallengeCollapsesToInvalidCode(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider("jan@example.pl", "pw", true)
	g := New(provider)

	_, err := g.Login(ctx, "jan@example.pl", "pw")
	require.NoError(t, err)

	// Pre-consume the challenge the gate is about to create, simulating
	// the double-submit race where the first trigger already burned it.
	provider.consumed["challenge-1"] = true

	_, err = g.VerifyLogin(ctx, "123456")
	require.ErrorIs(t, err, ErrInvalidCode)
	require.NotErrorIs(t, err, ErrChallengeConsumed)
}

func TestCheckMFAStatusTracksProviderFactors(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider("jan@example.pl", "pw", false)
	g := New(provider)

	_, err := g.Login(ctx, "jan@example.pl", "pw")
	require.NoError(t, err)
	require.Equal(t, StateEnrollmentRequired, g.State())

	// A factor appearing on the provider (enrolled from another device)
	// moves the gate to verification on the next check.
	provider.mu.Lock()
	provider.factors = []Factor{{ID: "factor-1"}}
	provider.mu.Unlock()

	state, err := g.CheckMFAStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, StateVerificationRequired, state)

	t.Run("provider failure keeps the current state", func(t *testing.T) {
		provider.mu.Lock()
		provider.listFactorsErr = errors.New("network down")
		provider.mu.Unlock()

		state, err := g.CheckMFAStatus(ctx)
		require.ErrorIs(t, err, ErrProvider)
		require.Equal(t, StateVerificationRequired, state)
	})
}

func TestCheckMFAStatusRejectsWrongState(t *testing.T) {
	ctx := context.Background()
	g := New(newFakeProvider("jan@example.pl", "pw", true))

	_, err := g.CheckMFAStatus(ctx)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestGuard(t *testing.T) {
	ctx := context.Background()

	t.Run("denies without a session", func(t *testing.T) {
		g := New(newFakeProvider("jan@example.pl", "pw", true))
		require.ErrorIs(t, g.Guard(ctx), ErrNotAuthenticated)
		require.Equal(t, StateLoggedOut, g.State())
	})

	t.Run("denies at aal1 and resets to logged out", func(t *testing.T) {
		g := New(newFakeProvider("jan@example.pl", "pw", true))
		_, err := g.Login(ctx, "jan@example.pl", "pw")
		require.NoError(t, err)

		require.ErrorIs(t, g.Guard(ctx), ErrNotAuthenticated)
		require.Equal(t, StateLoggedOut, g.State())
	})

	t.Run("reads assurance from the provider, not the snapshot", func(t *testing.T) {
		provider := newFakeProvider("jan@example.pl", "pw", true)
		g := New(provider)
		_, err := g.Login(ctx, "jan@example.pl", "pw")
		require.NoError(t, err)
		_, err = g.VerifyLogin(ctx, "123456")
		require.NoError(t, err)
		require.NoError(t, g.Guard(ctx))

		// Provider-side demotion is seen on the next guard even though
		// the gate still believes it is authenticated.
		provider.mu.Lock()
		provider.sessionAAL = AAL1
		provider.mu.Unlock()

		require.ErrorIs(t, g.Guard(ctx), ErrNotAuthenticated)
		require.Equal(t, StateLoggedOut, g.State())
	})
}

func TestSignOutResetsGate(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider("jan@example.pl", "pw", true)
	g := New(provider)

	_, err := g.Login(ctx, "jan@example.pl", "pw")
	require.NoError(t, err)
	_, err = g.VerifyLogin(ctx, "123456")
	require.NoError(t, err)

	g.SignOut(ctx)
	require.Equal(t, StateLoggedOut, g.State())
	require.False(t, provider.signedIn)
	require.ErrorIs(t, g.Guard(ctx), ErrNotAuthenticated)
}

// blockingProvider parks VerifyChallenge until released, to probe the
// in-flight guard.
type blockingProvider struct {
	*fakeProvider
	entered chan struct{}
	release chan struct{}
}

func (p *blockingProvider) VerifyChallenge(ctx context.Context, factorID, challengeID, code string) error {
	close(p.entered)
	<-p.release
	return p.fakeProvider.VerifyChallenge(ctx, factorID, challengeID, code)
}

func TestReentrantVerifyReturnsBusy(t *testing.T) {
	ctx := context.Background()
	provider := &blockingProvider{
		fakeProvider: newFakeProvider("jan@example.pl", "pw", true),
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	g := New(provider)

	_, err := g.Login(ctx, "jan@example.pl", "pw")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := g.VerifyLogin(ctx, "123456")
		done <- err
	}()

	<-provider.entered
	require.Equal(t, StateChecking, g.State())

	// The manual submit firing while auto-submit is in flight is a no-op.
	_, err = g.VerifyLogin(ctx, "123456")
	require.ErrorIs(t, err, ErrBusy)

	close(provider.release)
	require.NoError(t, <-done)
	require.Equal(t, StateAuthenticated, g.State())
}

func TestOperationsRejectWrongState(t *testing.T) {
	ctx := context.Background()
	g := New(newFakeProvider("jan@example.pl", "pw", false))

	_, err := g.VerifyLogin(ctx, "123456")
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = g.StartEnrollment(ctx)
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = g.Login(ctx, "jan@example.pl", "pw")
	require.NoError(t, err)

	_, err = g.VerifyLogin(ctx, "123456")
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = g.VerifyEnrollment(ctx, "123456")
	require.ErrorIs(t, err, ErrInvalidState)
}
