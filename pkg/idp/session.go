package idp

import (
	"context"
	"net/http"
	"sync"
)

// Session is an authenticated handle on the provider. It is safe for
// concurrent use; a successful Verify swaps in the new AAL2 token under
// the lock.
type Session struct {
	client *Client

	mu          sync.RWMutex
	accessToken string
}

func newSession(c *Client, tok TokenResponse) *Session {
	return &Session{client: c, accessToken: tok.AccessToken}
}

// Token returns the current access token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Session) do(ctx context.Context, method, path string, in, out any) error {
	return s.client.do(ctx, method, path, s.Token(), in, out)
}

// Get reads the session from the provider. This is the authoritative view
// of the current assurance level.
func (s *Session) Get(ctx context.Context) (SessionResponse, error) {
	var resp SessionResponse
	err := s.do(ctx, http.MethodGet, "/v1/auth/session", nil, &resp)
	return resp, err
}

// Logout revokes the session server side. The local token is useless after
// this returns.
func (s *Session) Logout(ctx context.Context) error {
	return s.do(ctx, http.MethodPost, "/v1/auth/logout", nil, nil)
}

// ListFactors returns the account's verified TOTP factors, oldest first.
func (s *Session) ListFactors(ctx context.Context) ([]Factor, error) {
	var resp FactorsResponse
	if err := s.do(ctx, http.MethodGet, "/v1/factors", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Factors, nil
}

// Enroll registers a new TOTP factor. The returned provisioning secret is
// shown exactly once and never again.
func (s *Session) Enroll(ctx context.Context, friendlyName string) (EnrollResponse, error) {
	var resp EnrollResponse
	err := s.do(ctx, http.MethodPost, "/v1/factors", EnrollRequest{FriendlyName: friendlyName}, &resp)
	return resp, err
}

// CreateChallenge opens a single-use verification window against a factor.
func (s *Session) CreateChallenge(ctx context.Context, factorID string) (ChallengeResponse, error) {
	var resp ChallengeResponse
	err := s.do(ctx, http.MethodPost, "/v1/factors/"+factorID+"/challenge", nil, &resp)
	return resp, err
}

// Verify submits a TOTP code against a challenge. On success the session is
// promoted to AAL2 and this Session transparently adopts the new token.
func (s *Session) Verify(ctx context.Context, factorID, challengeID, code string) (TokenResponse, error) {
	var tok TokenResponse
	err := s.do(ctx, http.MethodPost, "/v1/factors/"+factorID+"/verify", VerifyRequest{ChallengeID: challengeID, Code: code}, &tok)
	if err != nil {
		return TokenResponse{}, err
	}

	s.mu.Lock()
	s.accessToken = tok.AccessToken
	s.mu.Unlock()

	return tok, nil
}
