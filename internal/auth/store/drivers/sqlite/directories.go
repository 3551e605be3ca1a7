package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
)

type directoriesRepo struct {
	q querier
}

func (r *directoriesRepo) GetDirectoryByID(ctx context.Context, id string) (domain.Directory, error) {
	var d domain.Directory
	var timeoutSec int64
	err := r.q.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, url, base_dn, user_dn_pattern, dial_timeout_s,
			created_at, updated_at
		FROM directories WHERE id = ?`, id).
		Scan(&d.ID, &d.TenantID, &d.Name, &d.URL, &d.BaseDN, &d.UserDNPattern,
			&timeoutSec, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return domain.Directory{}, mapNotFound(err)
	}
	d.DialTimeout = time.Duration(timeoutSec) * time.Second
	return d, nil
}

func (r *directoriesRepo) CreateDirectory(ctx context.Context, d domain.Directory) error {
	timeoutSec := int64(d.DialTimeout / time.Second)
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO directories (id, tenant_id, name, url, base_dn, user_dn_pattern, dial_timeout_s)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.TenantID, d.Name, d.URL, d.BaseDN, d.UserDNPattern, timeoutSec)
	return mapConstraint(err)
}

func (r *directoriesRepo) DeleteDirectory(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM directories WHERE id = ?`, id)
	return err
}
