// Package gate implements the MFA session gate: the ordered flow from
// password sign-in, through TOTP enrollment or verification, to a fully
// assured session that may view protected content.
//
// The gate is a small state machine:
//
//	LoggedOut -> PasswordSubmitted -> { EnrollmentRequired | VerificationRequired } -> Authenticated
//
// with a Checking substate while a provider call is in flight. All provider
// access goes through the injected Provider capability; the gate holds no
// ambient globals and trusts no cached assurance flags when guarding.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zusplus/zusplus/pkg/slogx"
)

// State names the gate's position in the sign-in flow.
type State string

const (
	StateLoggedOut            State = "logged_out"
	StateChecking             State = "checking"
	StateEnrollmentRequired   State = "enrollment_required"
	StateVerificationRequired State = "verification_required"
	StateAuthenticated        State = "authenticated"
)

var (
	// ErrBusy is returned when a call arrives while another provider
	// round-trip is outstanding. Callers treat it as a no-op: the
	// in-flight call's outcome stands.
	ErrBusy = errors.New("gate: operation already in flight")

	// ErrInvalidState is returned when an operation does not apply to the
	// gate's current state, e.g. verifying before logging in.
	ErrInvalidState = errors.New("gate: operation not valid in current state")

	// ErrInvalidCredentials covers a rejected email/password pair.
	ErrInvalidCredentials = errors.New("gate: invalid email or password")

	// ErrInvalidCode covers a wrong, expired or malformed 6-digit code.
	// An already-consumed challenge also collapses into this: the benign
	// double-submit race must not surface as a distinct hard error.
	ErrInvalidCode = errors.New("gate: invalid code")

	// ErrChallengeConsumed is returned by providers when a verify call
	// lost the race for a single-use challenge. The gate maps it to
	// ErrInvalidCode before it reaches a caller.
	ErrChallengeConsumed = errors.New("gate: challenge already consumed")

	// ErrNotAuthenticated is returned by Guard when the session is absent
	// or below AAL2.
	ErrNotAuthenticated = errors.New("gate: session is not fully authenticated")

	// ErrProvider wraps identity-provider failures that are neither a
	// credential nor a code problem, e.g. network errors.
	ErrProvider = errors.New("gate: identity provider request failed")
)

// enrollFriendlyName is the fixed label for the single TOTP factor an
// account carries.
const enrollFriendlyName = "ZUSPlus TOTP"

// Gate drives one user's sign-in flow. It is safe for concurrent use; a
// second call while one is in flight returns ErrBusy instead of racing.
type Gate struct {
	provider Provider

	mu       sync.Mutex
	inFlight bool
	state    State

	session  Session
	factorID string // canonical verified factor, set after inspection

	// pending enrollment, held in memory only while the enrollment
	// screen is active and reused across failed attempts
	pending *Enrollment
}

// New creates a gate in the LoggedOut state.
func New(provider Provider) *Gate {
	return &Gate{
		provider: provider,
		state:    StateLoggedOut,
	}
}

// State reports the current state. While a provider call is outstanding it
// reports StateChecking.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return StateChecking
	}
	return g.state
}

// Session returns the current session snapshot. Only meaningful outside
// StateLoggedOut.
func (g *Gate) Session() Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// begin takes the in-flight guard. It returns ErrBusy when another call
// holds it, and a release func that must run in a defer.
func (g *Gate) begin(want ...State) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inFlight {
		return nil, ErrBusy
	}
	if len(want) > 0 {
		ok := false
		for _, s := range want {
			if g.state == s {
				ok = true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidState, g.state)
		}
	}

	g.inFlight = true
	release := func() {
		g.mu.Lock()
		g.inFlight = false
		g.mu.Unlock()
	}
	return release, nil
}

// Login submits the password and, on success, inspects the account's factor
// list to decide the next step. A provider failure during inspection holds
// the gate in LoggedOut; it never silently grants access.
func (g *Gate) Login(ctx context.Context, email, password string) (State, error) {
	if email == "" || password == "" {
		return StateLoggedOut, ErrInvalidCredentials
	}

	release, err := g.begin(StateLoggedOut)
	if err != nil {
		return g.State(), err
	}
	defer release()

	log := slogx.FromContext(ctx)

	sess, err := g.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return StateLoggedOut, ErrInvalidCredentials
		}
		log.Warn("password sign-in failed", "err", err)
		return StateLoggedOut, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	factors, err := g.provider.ListFactors(ctx)
	if err != nil {
		// Session exists but we cannot decide the next step. Drop it
		// and make the user retry rather than guessing.
		_ = g.provider.SignOut(ctx)
		log.Warn("factor inspection failed", "err", err)
		return StateLoggedOut, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = sess

	switch {
	case len(factors) == 0:
		g.factorID = ""
		g.state = StateEnrollmentRequired
	case sess.AAL == AAL2:
		// MFA already satisfied within this session.
		g.factorID = factors[0].ID
		g.state = StateAuthenticated
	default:
		g.factorID = factors[0].ID
		g.state = StateVerificationRequired
	}

	log.Info("password step completed",
		slog.String("user_id", sess.UserID),
		slog.String("next", string(g.state)),
	)
	return g.state, nil
}

// CheckMFAStatus re-inspects the account's factor list and re-routes the
// gate between the enrollment and verification steps. Login runs the same
// inspection implicitly; this re-runs it for a flow that is already past
// the password step, e.g. after an enrollment was abandoned elsewhere.
func (g *Gate) CheckMFAStatus(ctx context.Context) (State, error) {
	release, err := g.begin(StateEnrollmentRequired, StateVerificationRequired)
	if err != nil {
		return g.State(), err
	}
	defer release()

	factors, err := g.provider.ListFactors(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		slogx.FromContext(ctx).Warn("factor inspection failed", "err", err)
		return g.state, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	if len(factors) == 0 {
		g.factorID = ""
		g.state = StateEnrollmentRequired
	} else {
		g.factorID = factors[0].ID
		g.pending = nil
		g.state = StateVerificationRequired
	}
	return g.state, nil
}

// StartEnrollment requests a new TOTP factor and returns its provisioning
// secret. Calling it again while an enrollment is pending returns the same
// secret, so a failed code attempt does not force a re-scan.
func (g *Gate) StartEnrollment(ctx context.Context) (Enrollment, error) {
	g.mu.Lock()
	if g.pending != nil && g.state == StateEnrollmentRequired {
		pending := *g.pending
		g.mu.Unlock()
		return pending, nil
	}
	g.mu.Unlock()

	release, err := g.begin(StateEnrollmentRequired)
	if err != nil {
		return Enrollment{}, err
	}
	defer release()

	enrollment, err := g.provider.EnrollFactor(ctx, enrollFriendlyName)
	if err != nil {
		return Enrollment{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	g.mu.Lock()
	g.pending = &enrollment
	g.mu.Unlock()
	return enrollment, nil
}

// VerifyEnrollment proves possession of the pending factor. On success the
// session reaches AAL2 and the gate is Authenticated; on a wrong code the
// gate stays in EnrollmentRequired and the same pending secret is reused.
func (g *Gate) VerifyEnrollment(ctx context.Context, code string) (State, error) {
	if err := validateCode(code); err != nil {
		return g.State(), err
	}

	release, err := g.begin(StateEnrollmentRequired)
	if err != nil {
		return g.State(), err
	}
	defer release()

	g.mu.Lock()
	pending := g.pending
	g.mu.Unlock()
	if pending == nil {
		return StateEnrollmentRequired, fmt.Errorf("%w: enrollment not started", ErrInvalidState)
	}

	if err := g.challengeAndVerify(ctx, pending.FactorID, code); err != nil {
		return StateEnrollmentRequired, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.factorID = pending.FactorID
	g.pending = nil
	g.session.AAL = AAL2
	g.state = StateAuthenticated
	return g.state, nil
}

// VerifyLogin proves possession of the already-enrolled factor identified
// during factor inspection.
func (g *Gate) VerifyLogin(ctx context.Context, code string) (State, error) {
	if err := validateCode(code); err != nil {
		return g.State(), err
	}

	release, err := g.begin(StateVerificationRequired)
	if err != nil {
		return g.State(), err
	}
	defer release()

	g.mu.Lock()
	factorID := g.factorID
	g.mu.Unlock()

	if err := g.challengeAndVerify(ctx, factorID, code); err != nil {
		return StateVerificationRequired, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.session.AAL = AAL2
	g.state = StateAuthenticated
	return g.state, nil
}

// challengeAndVerify performs the strict challenge-then-verify sequence.
// If the challenge step fails, verification is not attempted. A lost race
// on the single-use challenge comes back as ErrInvalidCode.
func (g *Gate) challengeAndVerify(ctx context.Context, factorID, code string) error {
	challengeID, err := g.provider.CreateChallenge(ctx, factorID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}

	err = g.provider.VerifyChallenge(ctx, factorID, challengeID, code)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidCode), errors.Is(err, ErrChallengeConsumed):
		return ErrInvalidCode
	default:
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
}

// Guard decides whether protected content may be shown. It reads the
// assurance level from the provider's source of truth rather than the
// gate's own snapshot, and on anything short of AAL2 it resets the gate to
// LoggedOut: partial flow state is never resumed across a failed guard.
func (g *Gate) Guard(ctx context.Context) error {
	release, err := g.begin()
	if err != nil {
		return err
	}
	defer release()

	sess, err := g.provider.GetSession(ctx)
	if err != nil || sess.AAL != AAL2 {
		g.reset()
		if err != nil && !errors.Is(err, ErrNotAuthenticated) {
			slogx.FromContext(ctx).Warn("guard session read failed", "err", err)
		}
		return ErrNotAuthenticated
	}

	g.mu.Lock()
	g.session = sess
	g.state = StateAuthenticated
	g.mu.Unlock()
	return nil
}

// SignOut revokes the session with the provider and resets the gate.
func (g *Gate) SignOut(ctx context.Context) {
	release, err := g.begin()
	if err != nil {
		return
	}
	defer release()

	_ = g.provider.SignOut(ctx)
	g.reset()
}

func (g *Gate) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = Session{}
	g.factorID = ""
	g.pending = nil
	g.state = StateLoggedOut
}

// validateCode enforces the code format: exactly 6 ASCII digits, no
// surrounding whitespace.
func validateCode(code string) error {
	if len(code) != 6 {
		return ErrInvalidCode
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return ErrInvalidCode
		}
	}
	return nil
}
