package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
)

type catalogRepo struct {
	q querier
}

func (r *catalogRepo) FindResources(ctx context.Context, name string) ([]domain.CatalogResource, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT name, service_code, authority, api_id
		FROM resources WHERE name = ?`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CatalogResource
	for rows.Next() {
		var cr domain.CatalogResource
		var apiID sql.NullString
		if err := rows.Scan(&cr.Name, &cr.ServiceCode, &cr.Authority, &apiID); err != nil {
			return nil, err
		}
		cr.APIID = mapNullString(apiID)
		out = append(out, cr)
	}
	return out, rows.Err()
}

func (r *catalogRepo) APIExists(ctx context.Context, apiID string) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM apis WHERE id = ?`, apiID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *catalogRepo) CreateResource(ctx context.Context, cr domain.CatalogResource) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO resources (name, service_code, authority, api_id)
		VALUES (?, ?, ?, ?)`,
		cr.Name, cr.ServiceCode, cr.Authority, mapStringNull(cr.APIID))
	return mapConstraint(err)
}

func (r *catalogRepo) CreateAPI(ctx context.Context, a domain.API) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO apis (id, service_code, path) VALUES (?, ?, ?)`,
		a.ID, a.ServiceCode, a.Path)
	return mapConstraint(err)
}
