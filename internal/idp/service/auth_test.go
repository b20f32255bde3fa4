package service

import (
	"context"
	"testing"
	"time"

	"github.com/zusplus/zusplus/internal/idp/domain"
	"github.com/zusplus/zusplus/internal/idp/store/drivers/sqlite"
	"github.com/zusplus/zusplus/internal/idp/token"
	"github.com/zusplus/zusplus/pkg/cryptox"
	"github.com/zusplus/zusplus/pkg/idx"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestCodec(t *testing.T) *token.Codec {
	t.Helper()

	codec, err := token.NewCodec([]byte("test-secret"), "idp-test")
	require.NoError(t, err)
	return codec
}

func createTestUser(t *testing.T, st *sqlite.Store, email, password string) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), user))
	return user
}

func TestLoginOpensAAL1Session(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	codec := newTestCodec(t)
	user := createTestUser(t, st, "jan@example.pl", "correct horse battery")

	svc := &AuthService{Store: st, Codec: codec}

	raw, sess, got, err := svc.Login(ctx, "jan@example.pl", "correct horse battery")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, domain.AAL1, sess.AAL)
	require.Equal(t, []string{domain.AMRPassword}, sess.AMR)

	claims, err := codec.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.Subject)
	require.Equal(t, sess.ID, claims.SID)
	require.Equal(t, domain.AAL1, claims.AAL)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	createTestUser(t, st, "jan@example.pl", "correct horse battery")

	svc := &AuthService{Store: st, Codec: newTestCodec(t)}

	_, _, _, err := svc.Login(ctx, "jan@example.pl", "wrong password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	svc := &AuthService{Store: st, Codec: newTestCodec(t)}

	_, _, _, err := svc.Login(ctx, "nobody@example.pl", "anything")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesSession(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	createTestUser(t, st, "jan@example.pl", "correct horse battery")

	svc := &AuthService{Store: st, Codec: newTestCodec(t)}

	_, sess, _, err := svc.Login(ctx, "jan@example.pl", "correct horse battery")
	require.NoError(t, err)

	_, _, err = svc.Session(ctx, sess.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, sess.ID))

	_, _, err = svc.Session(ctx, sess.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("creates first account with valid token", func(t *testing.T) {
		st := newTestStore(t)
		svc := &AuthService{Store: st, Codec: newTestCodec(t), BootstrapToken: "boot-token"}

		user, err := svc.Bootstrap(ctx, "boot-token", "admin@zus.pl", "secret passphrase")
		require.NoError(t, err)
		require.Equal(t, "admin@zus.pl", user.Email)

		_, _, _, err = svc.Login(ctx, "admin@zus.pl", "secret passphrase")
		require.NoError(t, err)
	})

	t.Run("rejects wrong token", func(t *testing.T) {
		st := newTestStore(t)
		svc := &AuthService{Store: st, Codec: newTestCodec(t), BootstrapToken: "boot-token"}

		_, err := svc.Bootstrap(ctx, "wrong", "admin@zus.pl", "secret passphrase")
		require.ErrorIs(t, err, ErrBootstrapUnauthorized)
	})

	t.Run("rejects when already bootstrapped", func(t *testing.T) {
		st := newTestStore(t)
		createTestUser(t, st, "existing@zus.pl", "pw")
		svc := &AuthService{Store: st, Codec: newTestCodec(t), BootstrapToken: "boot-token"}

		_, err := svc.Bootstrap(ctx, "boot-token", "admin@zus.pl", "secret passphrase")
		require.ErrorIs(t, err, ErrBootstrapAlready)
	})
}
