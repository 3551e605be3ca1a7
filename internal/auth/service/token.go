package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
	"github.com/aussiebroadwan/tenauth/internal/auth/store"
	"github.com/aussiebroadwan/tenauth/pkg/cryptox"
	"github.com/aussiebroadwan/tenauth/pkg/idx"
	"github.com/aussiebroadwan/tenauth/pkg/jwtx"
	"github.com/aussiebroadwan/tenauth/pkg/slogx"
)

var (
	ErrInvalidClient = errors.New("invalid_client")
	ErrInvalidScope  = errors.New("invalid_scope")
)

// DefaultGrantTTL is the lifetime of an opaque bearer grant issued through
// the client-credentials exchange (system tokens are long-lived).
const DefaultGrantTTL = 90 * 24 * time.Hour

// TokenService owns both token primitives: opaque bearer grants for machine
// clients (stored by fingerprint in token_grants) and signed JWT session
// tokens for interactive sign-ins.
type TokenService struct {
	Store      store.Store
	Signer     *jwtx.Signer
	Issuer     string
	SessionTTL time.Duration
	GrantTTL   time.Duration
}

// ExchangeClientCredentials authenticates a machine client and issues an
// opaque bearer value. The value itself is returned exactly once; only its
// SHA-256 fingerprint is persisted.
func (s *TokenService) ExchangeClientCredentials(
	ctx context.Context,
	clientID, clientSecret string,
	requestedScopes []string,
) (string, time.Time, error) {
	now := time.Now()
	log := slogx.FromContext(ctx)

	c, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", time.Time{}, ErrInvalidClient
		}
		return "", time.Time{}, err
	}

	// Only confidential clients may use this exchange.
	if c.SecretHash == "" {
		return "", time.Time{}, ErrInvalidClient
	}
	if err := cryptox.VerifyPassword(clientSecret, c.SecretHash); err != nil {
		log.Info("client secret verification failed", "client_id", clientID)
		return "", time.Time{}, ErrInvalidClient
	}

	effective := requestedScopes
	if len(effective) == 0 {
		effective = c.Scopes
	} else {
		effective = intersectScopes(requestedScopes, c.Scopes)
	}
	if len(effective) == 0 {
		return "", time.Time{}, ErrInvalidScope
	}

	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", time.Time{}, err
	}

	expiresAt := now.Add(s.grantTTL())
	grant := domain.TokenGrant{
		ID:        idx.New().String(),
		ClientID:  c.ID,
		TokenHash: cryptox.FingerprintToken(opaque),
		Scopes:    effective,
		ExpiresAt: expiresAt,
		Revoked:   false,
	}
	if err := s.Store.TokenGrants().CreateTokenGrant(ctx, grant); err != nil {
		return "", time.Time{}, err
	}

	return opaque, expiresAt, nil
}

// RevokeTokenByValue invalidates the grant behind a bearer value. An absent
// grant is tolerated: the token may have expired and been swept, or a
// previous revocation may have half-completed. Either way the desired end
// state holds.
func (s *TokenService) RevokeTokenByValue(ctx context.Context, value string) error {
	err := s.Store.TokenGrants().RevokeTokenGrant(ctx, cryptox.FingerprintToken(value))
	if errors.Is(err, store.ErrNotFound) {
		slogx.FromContext(ctx).Info("token grant already gone on revoke")
		return nil
	}
	return err
}

// IntrospectToken resolves a bearer value to its live grant, rejecting
// revoked and expired grants.
func (s *TokenService) IntrospectToken(ctx context.Context, value string) (domain.TokenGrant, error) {
	g, err := s.Store.TokenGrants().GetTokenGrantByHash(ctx, cryptox.FingerprintToken(value))
	if err != nil {
		return domain.TokenGrant{}, err
	}
	if g.Revoked || time.Now().After(g.ExpiresAt) {
		return domain.TokenGrant{}, store.ErrNotFound
	}
	return g, nil
}

// SignSession issues the JWT for an interactive sign-in, carrying the
// resolved permission codes.
func (s *TokenService) SignSession(u domain.User, permissions, amr []string, now time.Time) (string, error) {
	claims := jwtx.NewSessionClaims(
		u.ID,
		u.TenantID,
		u.Username,
		permissions,
		amr,
		s.sessionTTL(),
		s.Issuer,
		now,
	)
	return s.Signer.Sign(claims)
}

func (s *TokenService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return jwtx.DefaultSessionTTL
}

func (s *TokenService) grantTTL() time.Duration {
	if s.GrantTTL > 0 {
		return s.GrantTTL
	}
	return DefaultGrantTTL
}

func intersectScopes(a, b []string) []string {
	set := map[string]struct{}{}
	for _, s := range b {
		set[s] = struct{}{}
	}
	var out []string
	seen := map[string]struct{}{}
	for _, s := range a {
		if _, ok := set[s]; !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
