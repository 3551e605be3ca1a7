package sqlite

import (
	"context"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
	"github.com/aussiebroadwan/tenauth/internal/auth/store"
)

type tokenGrantsRepo struct {
	q querier
}

func (r *tokenGrantsRepo) CreateTokenGrant(ctx context.Context, g domain.TokenGrant) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO token_grants (id, client_id, token_hash, scopes, expires_at, revoked)
		VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.ClientID, g.TokenHash, joinScopes(g.Scopes), g.ExpiresAt, g.Revoked)
	return mapConstraint(err)
}

func (r *tokenGrantsRepo) GetTokenGrantByHash(ctx context.Context, hash string) (domain.TokenGrant, error) {
	var g domain.TokenGrant
	var scopes string
	err := r.q.QueryRowContext(ctx, `
		SELECT id, client_id, token_hash, scopes, expires_at, revoked, created_at, updated_at
		FROM token_grants WHERE token_hash = ?`, hash).
		Scan(&g.ID, &g.ClientID, &g.TokenHash, &scopes, &g.ExpiresAt, &g.Revoked,
			&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return domain.TokenGrant{}, mapNotFound(err)
	}
	g.Scopes = splitScopes(scopes)
	return g, nil
}

func (r *tokenGrantsRepo) RevokeTokenGrant(ctx context.Context, hash string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE token_grants SET revoked = 1, updated_at = CURRENT_TIMESTAMP
		WHERE token_hash = ?`, hash)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *tokenGrantsRepo) DeleteExpiredTokenGrants(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM token_grants WHERE expires_at < CURRENT_TIMESTAMP`)
	return err
}
