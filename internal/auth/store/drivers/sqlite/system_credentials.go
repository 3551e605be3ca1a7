package sqlite

import (
	"context"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
)

type systemCredentialsRepo struct {
	q querier
}

const credentialColumns = `id, tenant_id, name, value_enc, client_id, expires_at, created_at, updated_at`

func scanCredential(row interface{ Scan(...any) error }) (domain.SystemCredential, error) {
	var c domain.SystemCredential
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.ValueEncrypted, &c.ClientID,
		&c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *systemCredentialsRepo) GetSystemCredentialByID(ctx context.Context, id string) (domain.SystemCredential, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM system_credentials WHERE id = ?`, id)
	c, err := scanCredential(row)
	if err != nil {
		return domain.SystemCredential{}, mapNotFound(err)
	}
	return c, nil
}

func (r *systemCredentialsRepo) GetSystemCredentialByName(ctx context.Context, tenantID, name string) (domain.SystemCredential, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM system_credentials WHERE tenant_id = ? AND name = ?`,
		tenantID, name)
	c, err := scanCredential(row)
	if err != nil {
		return domain.SystemCredential{}, mapNotFound(err)
	}
	return c, nil
}

func (r *systemCredentialsRepo) ListSystemCredentials(ctx context.Context, tenantID string) ([]domain.SystemCredential, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+credentialColumns+` FROM system_credentials
		WHERE tenant_id = ? ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SystemCredential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *systemCredentialsRepo) CountSystemCredentials(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM system_credentials WHERE tenant_id = ?`, tenantID).Scan(&n)
	return n, err
}

func (r *systemCredentialsRepo) CreateSystemCredential(ctx context.Context, c domain.SystemCredential) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO system_credentials (id, tenant_id, name, value_enc, client_id, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.TenantID, c.Name, c.ValueEncrypted, c.ClientID, c.ExpiresAt)
	return mapConstraint(err)
}

func (r *systemCredentialsRepo) DeleteSystemCredential(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM system_credentials WHERE id = ?`, id)
	return err
}

type credentialResourcesRepo struct {
	q querier
}

func (r *credentialResourcesRepo) CreateCredentialResource(ctx context.Context, cr domain.CredentialResource) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO credential_resources (credential_id, resource, service_code, authority)
		VALUES (?, ?, ?, ?)`,
		cr.CredentialID, cr.Resource, cr.ServiceCode, cr.Authority)
	return mapConstraint(err)
}

func (r *credentialResourcesRepo) ListCredentialResources(ctx context.Context, credentialID string) ([]domain.CredentialResource, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT credential_id, resource, service_code, authority
		FROM credential_resources WHERE credential_id = ?`, credentialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CredentialResource
	for rows.Next() {
		var cr domain.CredentialResource
		if err := rows.Scan(&cr.CredentialID, &cr.Resource, &cr.ServiceCode, &cr.Authority); err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}

func (r *credentialResourcesRepo) HasCredentialResource(ctx context.Context, credentialID, resource string) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM credential_resources
		WHERE credential_id = ? AND resource = ?`, credentialID, resource).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *credentialResourcesRepo) DeleteCredentialResources(ctx context.Context, credentialID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM credential_resources WHERE credential_id = ?`, credentialID)
	return err
}
