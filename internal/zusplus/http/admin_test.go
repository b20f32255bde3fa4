package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zusplus/zusplus/internal/zusplus/gate"
)

func TestReportRequiresFullAuthentication(t *testing.T) {
	provider := &fakeProvider{password: "hunter2secret", validCode: "123456"}
	srv, client, _ := startTestServer(t, func() gate.Provider { return provider })

	resp, err := client.Get(srv.URL + "/api/admin/report")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A password-only session is still not enough.
	loginResp, _ := postJSON(t, client, srv.URL+"/api/auth/login", map[string]string{
		"email": "jan@zus.pl", "password": "hunter2secret",
	})
	require.Equal(t, http.StatusOK, loginResp.StatusCode)

	resp, err = client.Get(srv.URL + "/api/admin/report")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestReportAfterVerification(t *testing.T) {
	provider := &fakeProvider{
		password:  "hunter2secret",
		validCode: "123456",
		factors:   []gate.Factor{{ID: "factor-1", FriendlyName: "ZUSPlus TOTP"}},
	}
	srv, client, _ := startTestServer(t, func() gate.Provider { return provider })

	resp, _ := postJSON(t, client, srv.URL+"/api/auth/login", map[string]string{
		"email": "jan@zus.pl", "password": "hunter2secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = postJSON(t, client, srv.URL+"/api/auth/verify", map[string]string{"code": "123456"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reportResp, err := client.Get(srv.URL + "/api/admin/report")
	require.NoError(t, err)
	defer reportResp.Body.Close()
	require.Equal(t, http.StatusOK, reportResp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(reportResp.Body).Decode(&body))
	require.Equal(t, "jan@zus.pl", body["email"])
	require.EqualValues(t, 1, body["logins"])
	require.EqualValues(t, 1, body["verifications"])
}

func TestReportSeesProviderSideDemotion(t *testing.T) {
	provider := &fakeProvider{
		password:  "hunter2secret",
		validCode: "123456",
		factors:   []gate.Factor{{ID: "factor-1", FriendlyName: "ZUSPlus TOTP"}},
	}
	srv, client, _ := startTestServer(t, func() gate.Provider { return provider })

	resp, _ := postJSON(t, client, srv.URL+"/api/auth/login", map[string]string{
		"email": "jan@zus.pl", "password": "hunter2secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = postJSON(t, client, srv.URL+"/api/auth/verify", map[string]string{"code": "123456"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The provider demotes the session behind the gate's back.
	provider.aal = gate.AAL1

	reportResp, err := client.Get(srv.URL + "/api/admin/report")
	require.NoError(t, err)
	reportResp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, reportResp.StatusCode)
}
