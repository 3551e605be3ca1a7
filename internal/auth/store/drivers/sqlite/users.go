package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
)

type usersRepo struct {
	q querier
}

const userColumns = `id, tenant_id, username, full_name, password_hash, mobile, email,
	sys_admin, operator, acting_user_id, directory_id, created_at, updated_at`

func (r *usersRepo) scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	var mobile, email, dirID sql.NullString
	err := row.Scan(
		&u.ID, &u.TenantID, &u.Username, &u.FullName, &u.PasswordHash,
		&mobile, &email, &u.SysAdmin, &u.Operator, &u.ActingUserID, &dirID,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.Mobile = mapNullStringPtr(mobile)
	u.Email = mapNullStringPtr(email)
	u.DirectoryID = mapNullStringPtr(dirID)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := r.scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, tenantID, username string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = ? AND username = ?`,
		tenantID, username)
	u, err := r.scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByMobile(ctx context.Context, tenantID, mobile string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = ? AND mobile = ?`,
		tenantID, mobile)
	u, err := r.scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, tenantID, email string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = ? AND email = ?`,
		tenantID, email)
	u, err := r.scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, tenant_id, username, full_name, password_hash,
			mobile, email, sys_admin, operator, acting_user_id, directory_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.TenantID, u.Username, u.FullName, u.PasswordHash,
		mapOptionalString(u.Mobile), mapOptionalString(u.Email),
		u.SysAdmin, u.Operator, u.ActingUserID, mapOptionalString(u.DirectoryID),
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newHash, userID)
	return err
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	return err
}
