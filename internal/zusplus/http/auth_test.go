package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zusplus/zusplus/internal/zusplus/gate"
	"github.com/zusplus/zusplus/internal/zusplus/report"
	"github.com/zusplus/zusplus/pkg/httpx"
	"github.com/zusplus/zusplus/pkg/slogx"
)

// fakeProvider is a scriptable in-memory identity provider. One instance
// backs one browser flow, mirroring the real adapter's lifecycle.
type fakeProvider struct {
	password  string
	validCode string
	factors   []gate.Factor

	signedIn   bool
	email      string
	aal        string
	nextChalID int
}

func (p *fakeProvider) SignInWithPassword(_ context.Context, email, password string) (gate.Session, error) {
	if password != p.password {
		return gate.Session{}, gate.ErrInvalidCredentials
	}
	p.signedIn = true
	p.email = email
	p.aal = gate.AAL1
	return gate.Session{UserID: "user-1", Email: email, AAL: p.aal}, nil
}

func (p *fakeProvider) GetSession(context.Context) (gate.Session, error) {
	if !p.signedIn {
		return gate.Session{}, gate.ErrNotAuthenticated
	}
	return gate.Session{UserID: "user-1", Email: p.email, AAL: p.aal}, nil
}

func (p *fakeProvider) ListFactors(context.Context) ([]gate.Factor, error) {
	return p.factors, nil
}

func (p *fakeProvider) EnrollFactor(_ context.Context, friendlyName string) (gate.Enrollment, error) {
	return gate.Enrollment{
		FactorID: "factor-new",
		Secret:   "JBSWY3DPEHPK3PXP",
		QRCode:   "otpauth://totp/ZUSPlus:user?secret=JBSWY3DPEHPK3PXP",
	}, nil
}

func (p *fakeProvider) CreateChallenge(_ context.Context, factorID string) (string, error) {
	p.nextChalID++
	return fmt.Sprintf("chal-%d", p.nextChalID), nil
}

func (p *fakeProvider) VerifyChallenge(_ context.Context, factorID, challengeID, code string) error {
	if code != p.validCode {
		return gate.ErrInvalidCode
	}
	p.aal = gate.AAL2
	return nil
}

func (p *fakeProvider) SignOut(context.Context) error {
	p.signedIn = false
	p.aal = ""
	return nil
}

// startTestServer wires the router onto a fresh flow store whose flows all
// share the given provider script, and returns a cookie-keeping client.
// Options run before routes are registered, so they can swap in upstream
// clients.
func startTestServer(t *testing.T, newProvider func() gate.Provider, opts ...func(*Router)) (*httptest.Server, *http.Client, *report.Collector) {
	t.Helper()

	// The shared test IP would trip the brute-force profile.
	origStrict := httpx.StrictLimit
	httpx.StrictLimit = httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
	t.Cleanup(func() { httpx.StrictLimit = origStrict })

	collector := report.NewCollector()
	router := NewRouter("test", slogx.New(slogx.Config{Service: "zusplus-test", Format: "text"}))
	router.Flows = NewFlowStore(newProvider)
	router.Report = collector
	for _, opt := range opts {
		opt(router)
	}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return srv, &http.Client{Jar: jar}, collector
}

func postJSON(t *testing.T, client *http.Client, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

func TestFirstLoginEnrollmentFlow(t *testing.T) {
	provider := &fakeProvider{password: "hunter2secret", validCode: "123456"}
	srv, client, collector := startTestServer(t, func() gate.Provider { return provider })

	resp, body := postJSON(t, client, srv.URL+"/api/auth/login", map[string]string{
		"email": "jan@zus.pl", "password": "hunter2secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "enrollment_required", body["state"])

	resp, body = postJSON(t, client, srv.URL+"/api/auth/enroll", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "JBSWY3DPEHPK3PXP", body["secret"])
	require.Contains(t, body["qr_code"], "otpauth://")

	// Wrong code keeps the flow in the enrollment step.
	resp, body = postJSON(t, client, srv.URL+"/api/auth/verify-enrollment", map[string]string{"code": "000000"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Nieprawidłowy kod", body["error_description"])

	resp, body = postJSON(t, client, srv.URL+"/api/auth/verify-enrollment", map[string]string{"code": "123456"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "authenticated", body["state"])
	require.Equal(t, "2FA skonfigurowane pomyślnie!", body["message"])

	stateResp, err := client.Get(srv.URL + "/api/auth/state")
	require.NoError(t, err)
	defer stateResp.Body.Close()
	var state map[string]any
	require.NoError(t, json.NewDecoder(stateResp.Body).Decode(&state))
	require.Equal(t, "authenticated", state["state"])

	snap := collector.Snapshot()
	require.Equal(t, int64(1), snap.Logins)
	require.Equal(t, int64(1), snap.Verifications)
}

func TestReturningLoginVerificationFlow(t *testing.T) {
	provider := &fakeProvider{
		password:  "hunter2secret",
		validCode: "654321",
		factors:   []gate.Factor{{ID: "factor-1", FriendlyName: "ZUSPlus TOTP"}},
	}
	srv, client, _ := startTestServer(t, func() gate.Provider { return provider })

	resp, body := postJSON(t, client, srv.URL+"/api/auth/login", map[string]string{
		"email": "jan@zus.pl", "password": "hunter2secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "verification_required", body["state"])

	resp, body = postJSON(t, client, srv.URL+"/api/auth/verify", map[string]string{"code": "654321"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "authenticated", body["state"])
	require.Equal(t, "Zalogowano pomyślnie!", body["message"])
}

func TestLoginRejectsBadPassword(t *testing.T) {
	provider := &fakeProvider{password: "hunter2secret"}
	srv, client, _ := startTestServer(t, func() gate.Provider { return provider })

	resp, body := postJSON(t, client, srv.URL+"/api/auth/login", map[string]string{
		"email": "jan@zus.pl", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Błąd logowania", body["error_description"])
}

func TestVerifyOutOfOrderConflicts(t *testing.T) {
	provider := &fakeProvider{password: "hunter2secret"}
	srv, client, _ := startTestServer(t, func() gate.Provider { return provider })

	resp, _ := postJSON(t, client, srv.URL+"/api/auth/verify", map[string]string{"code": "123456"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLogoutDropsFlowCookie(t *testing.T) {
	provider := &fakeProvider{password: "hunter2secret", validCode: "123456"}
	srv, client, _ := startTestServer(t, func() gate.Provider { return provider })

	resp, _ := postJSON(t, client, srv.URL+"/api/auth/login", map[string]string{
		"email": "jan@zus.pl", "password": "hunter2secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	logoutResp, err := client.Post(srv.URL+"/api/auth/logout", "application/json", nil)
	require.NoError(t, err)
	defer logoutResp.Body.Close()
	require.Equal(t, http.StatusNoContent, logoutResp.StatusCode)
	require.False(t, provider.signedIn)

	// The next request starts a fresh flow at logged_out.
	stateResp, err := client.Get(srv.URL + "/api/auth/state")
	require.NoError(t, err)
	defer stateResp.Body.Close()
	var state map[string]any
	require.NoError(t, json.NewDecoder(stateResp.Body).Decode(&state))
	require.Equal(t, "logged_out", state["state"])
}
