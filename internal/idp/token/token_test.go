package token_test

import (
	"testing"
	"time"

	"github.com/zusplus/zusplus/internal/idp/token"

	"github.com/stretchr/testify/require"
)

func TestMintVerifyRoundTrip(t *testing.T) {
	codec, err := token.NewCodec([]byte("test-secret"), "idp")
	require.NoError(t, err)

	now := time.Now().UTC()
	raw, err := codec.Mint("user-1", "sess-1", "jan@example.pl", "aal1", []string{"pwd"}, time.Hour, now)
	require.NoError(t, err)

	claims, err := codec.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "sess-1", claims.SID)
	require.Equal(t, "jan@example.pl", claims.Email)
	require.Equal(t, "aal1", claims.AAL)
	require.Equal(t, []string{"pwd"}, claims.AMR)
	require.NotEmpty(t, claims.ID)
}

func TestVerifyRejectsBadSecret(t *testing.T) {
	a, err := token.NewCodec([]byte("secret-a"), "idp")
	require.NoError(t, err)
	b, err := token.NewCodec([]byte("secret-b"), "idp")
	require.NoError(t, err)

	raw, err := a.Mint("user-1", "sess-1", "", "aal1", nil, time.Hour, time.Now().UTC())
	require.NoError(t, err)

	_, err = b.Verify(raw)
	require.ErrorIs(t, err, token.ErrInvalidSig)
}

func TestVerifyRejectsExpired(t *testing.T) {
	codec, err := token.NewCodec([]byte("test-secret"), "idp")
	require.NoError(t, err)

	past := time.Now().UTC().Add(-2 * time.Hour)
	raw, err := codec.Mint("user-1", "sess-1", "", "aal1", nil, time.Hour, past)
	require.NoError(t, err)

	_, err = codec.Verify(raw)
	require.ErrorIs(t, err, token.ErrExpired)
}

func TestVerifyRejectsIssuerMismatch(t *testing.T) {
	minter, err := token.NewCodec([]byte("test-secret"), "other-idp")
	require.NoError(t, err)
	verifier, err := token.NewCodec([]byte("test-secret"), "idp")
	require.NoError(t, err)

	raw, err := minter.Mint("user-1", "sess-1", "", "aal1", nil, time.Hour, time.Now().UTC())
	require.NoError(t, err)

	_, err = verifier.Verify(raw)
	require.ErrorIs(t, err, token.ErrIssuer)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	codec, err := token.NewCodec([]byte("test-secret"), "idp")
	require.NoError(t, err)

	_, err = codec.Verify("not.a.token")
	require.Error(t, err)
}

func TestNewCodecRequiresSecret(t *testing.T) {
	_, err := token.NewCodec(nil, "idp")
	require.Error(t, err)
}
