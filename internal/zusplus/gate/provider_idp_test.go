package gate

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	idphttp "github.com/zusplus/zusplus/internal/idp/http"
	"github.com/zusplus/zusplus/internal/idp/service"
	"github.com/zusplus/zusplus/internal/idp/store/drivers/sqlite"
	"github.com/zusplus/zusplus/internal/idp/token"
	"github.com/zusplus/zusplus/pkg/httpx"
	"github.com/zusplus/zusplus/pkg/idp"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

// startTestIDP runs a full identity provider in process and returns an SDK
// client pointed at it.
func startTestIDP(t *testing.T) *idp.Client {
	t.Helper()

	// The whole test shares one client IP, so the brute-force limits
	// would trip long before the flows finish.
	old := httpx.StrictLimit
	httpx.StrictLimit = httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
	t.Cleanup(func() { httpx.StrictLimit = old })

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	codec, err := token.NewCodec([]byte("integration-secret"), "idp-test")
	require.NoError(t, err)

	authService := &service.AuthService{
		Store:          st,
		Codec:          codec,
		BootstrapToken: "boot-token",
	}
	factorService := &service.FactorService{
		Store:  st,
		Codec:  codec,
		Issuer: "ZUSPlus",
	}

	router := idphttp.NewRouter(codec, "test", st, slog.Default())
	router.AuthService = authService
	router.FactorService = factorService
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return idp.NewClient(srv.URL)
}

func TestGateAgainstRealProvider(t *testing.T) {
	ctx := context.Background()
	client := startTestIDP(t)

	_, err := client.Bootstrap(ctx, "boot-token", "admin@zus.pl", "secret passphrase")
	require.NoError(t, err)

	t.Run("enrollment end to end", func(t *testing.T) {
		g := New(NewIDPProvider(client))

		state, err := g.Login(ctx, "admin@zus.pl", "secret passphrase")
		require.NoError(t, err)
		require.Equal(t, StateEnrollmentRequired, state)

		enrollment, err := g.StartEnrollment(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, enrollment.Secret)

		state, err = g.VerifyEnrollment(ctx, "000000")
		require.ErrorIs(t, err, ErrInvalidCode)
		require.Equal(t, StateEnrollmentRequired, state)

		code, err := totp.GenerateCode(enrollment.Secret, time.Now())
		require.NoError(t, err)

		state, err = g.VerifyEnrollment(ctx, code)
		require.NoError(t, err)
		require.Equal(t, StateAuthenticated, state)
		require.NoError(t, g.Guard(ctx))
	})

	t.Run("verification on the next browser session", func(t *testing.T) {
		g := New(NewIDPProvider(client))

		state, err := g.Login(ctx, "admin@zus.pl", "secret passphrase")
		require.NoError(t, err)
		require.Equal(t, StateVerificationRequired, state)

		// Guard must deny at aal1 and reset the gate.
		require.ErrorIs(t, g.Guard(ctx), ErrNotAuthenticated)
		require.Equal(t, StateLoggedOut, g.State())

		state, err = g.Login(ctx, "admin@zus.pl", "secret passphrase")
		require.NoError(t, err)
		require.Equal(t, StateVerificationRequired, state)

		// Recover the shared secret by reading the factor list through
		// the SDK directly; a real user would use their authenticator.
		sess, err := client.Login(ctx, "admin@zus.pl", "secret passphrase")
		require.NoError(t, err)
		factors, err := sess.ListFactors(ctx)
		require.NoError(t, err)
		require.Len(t, factors, 1)

		// Wrong codes keep the gate parked in VerificationRequired.
		for i := 0; i < 3; i++ {
			state, err = g.VerifyLogin(ctx, "000000")
			require.ErrorIs(t, err, ErrInvalidCode)
			require.Equal(t, StateVerificationRequired, state)
		}
	})

	t.Run("sign out revokes the provider session", func(t *testing.T) {
		provider := NewIDPProvider(client)
		g := New(provider)

		_, err := g.Login(ctx, "admin@zus.pl", "secret passphrase")
		require.NoError(t, err)

		g.SignOut(ctx)
		require.Equal(t, StateLoggedOut, g.State())
		require.ErrorIs(t, g.Guard(ctx), ErrNotAuthenticated)
	})
}
