package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
)

type clientsRepo struct {
	q querier
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	var c domain.Client
	var secretHash sql.NullString
	var scopes string
	err := r.q.QueryRowContext(ctx, `
		SELECT id, name, secret_hash, scopes, protected, created_at, updated_at
		FROM clients WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &secretHash, &scopes, &c.Protected, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	c.SecretHash = mapNullString(secretHash)
	c.Scopes = splitScopes(scopes)
	return c, nil
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO clients (id, name, secret_hash, scopes, protected)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, mapStringNull(c.SecretHash), joinScopes(c.Scopes), c.Protected)
	return mapConstraint(err)
}

func (r *clientsRepo) DeleteClient(ctx context.Context, clientID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM clients WHERE id = ? AND protected = 0`, clientID)
	return err
}
