package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := GenerateSigner("test-key-001")
	require.NoError(t, err)

	claims := NewSessionClaims(
		"user-1", "tenant-1", "alice",
		[]string{"POLICY_BILLING_USER"}, []string{"pwd"},
		DefaultSessionTTL, "tenauth", time.Now(),
	)

	raw, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := signer.Verifier().Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "tenant-1", got.TenantID)
	require.Equal(t, []string{"POLICY_BILLING_USER"}, got.Permissions)
	require.NoError(t, got.ValidateIssuer("tenauth"))
	require.NoError(t, got.ValidateExpiry())
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	t.Parallel()

	a, err := GenerateSigner("a")
	require.NoError(t, err)
	b, err := GenerateSigner("b")
	require.NoError(t, err)

	raw, err := a.Sign(NewSessionClaims(
		"user-1", "tenant-1", "alice", nil, nil,
		DefaultSessionTTL, "tenauth", time.Now(),
	))
	require.NoError(t, err)

	_, err = b.Verifier().Verify(raw)
	require.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	t.Parallel()

	signer, err := GenerateSigner("test")
	require.NoError(t, err)

	raw, err := signer.Sign(NewSessionClaims(
		"user-1", "tenant-1", "alice", nil, nil,
		time.Minute, "tenauth", time.Now().Add(-time.Hour),
	))
	require.NoError(t, err)

	_, err = signer.Verifier().Verify(raw)
	require.Error(t, err)
}

func TestValidateIssuerMismatch(t *testing.T) {
	t.Parallel()

	c := NewSessionClaims("u", "t", "n", nil, nil, time.Minute, "issuer-a", time.Now())
	require.ErrorIs(t, c.ValidateIssuer("issuer-b"), ErrIssuer)
	require.NoError(t, c.ValidateIssuer(""))
}
