package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
	"github.com/aussiebroadwan/tenauth/internal/auth/service"
	"github.com/aussiebroadwan/tenauth/internal/auth/store"
	"github.com/aussiebroadwan/tenauth/pkg/cryptox"
	"github.com/aussiebroadwan/tenauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTokenService(t *testing.T, s store.Store) *service.TokenService {
	t.Helper()
	signer, err := jwtx.GenerateSigner("test-key")
	require.NoError(t, err)
	return &service.TokenService{
		Store:  s,
		Signer: signer,
		Issuer: "tenauth-test",
	}
}

func seedClient(t *testing.T, s store.Store, id, secret string, scopes []string) {
	t.Helper()
	hash, err := cryptox.HashPassword(secret)
	require.NoError(t, err)
	require.NoError(t, s.Clients().CreateClient(context.Background(), domain.Client{
		ID:         id,
		Name:       id,
		SecretHash: hash,
		Scopes:     scopes,
	}))
}

func TestTokenService_ExchangeRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	ts := newTokenService(t, s)

	seedClient(t, s, "client-1", "s3cret", []string{"billing:read", "billing:write"})

	token, expiresAt, err := ts.ExchangeClientCredentials(ctx, "client-1", "s3cret", nil)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, expiresAt.After(time.Now().Add(24*time.Hour)))

	g, err := ts.IntrospectToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "client-1", g.ClientID)
	require.ElementsMatch(t, []string{"billing:read", "billing:write"}, g.Scopes)
}

func TestTokenService_ExchangeRejectsBadSecret(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	ts := newTokenService(t, s)

	seedClient(t, s, "client-2", "right", nil)

	_, _, err := ts.ExchangeClientCredentials(ctx, "client-2", "wrong", nil)
	require.ErrorIs(t, err, service.ErrInvalidClient)

	_, _, err = ts.ExchangeClientCredentials(ctx, "no-such-client", "x", nil)
	require.ErrorIs(t, err, service.ErrInvalidClient)
}

func TestTokenService_ScopeIntersection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	ts := newTokenService(t, s)

	seedClient(t, s, "client-3", "pw", []string{"a", "b"})

	token, _, err := ts.ExchangeClientCredentials(ctx, "client-3", "pw", []string{"b", "c"})
	require.NoError(t, err)

	g, err := ts.IntrospectToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, g.Scopes)

	// Disjoint request yields nothing grantable.
	_, _, err = ts.ExchangeClientCredentials(ctx, "client-3", "pw", []string{"c", "d"})
	require.ErrorIs(t, err, service.ErrInvalidScope)
}

func TestTokenService_RevokeByValue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	ts := newTokenService(t, s)

	seedClient(t, s, "client-4", "pw", []string{"x"})

	token, _, err := ts.ExchangeClientCredentials(ctx, "client-4", "pw", nil)
	require.NoError(t, err)

	require.NoError(t, ts.RevokeTokenByValue(ctx, token))

	_, err = ts.IntrospectToken(ctx, token)
	require.ErrorIs(t, err, store.ErrNotFound)

	// Revoking a value that maps to no grant is not an error.
	require.NoError(t, ts.RevokeTokenByValue(ctx, "never-issued"))
}

func TestTokenService_SignSession(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ts := newTokenService(t, s)

	u := domain.User{ID: "u1", TenantID: "t1", Username: "alice"}
	token, err := ts.SignSession(u, []string{"POLICY_BASE"}, []string{"pwd"}, time.Now())
	require.NoError(t, err)

	claims, err := ts.Signer.Verifier().Verify(token)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.Subject)
	require.Equal(t, "t1", claims.TenantID)
	require.Equal(t, []string{"POLICY_BASE"}, claims.Permissions)
	require.Equal(t, []string{"pwd"}, claims.AMR)
}
