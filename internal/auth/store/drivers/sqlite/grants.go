package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
)

type orgGrantsRepo struct {
	q querier
}

func (r *orgGrantsRepo) CreateOrgGrant(ctx context.Context, g domain.OrgGrant) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO org_grants (policy_id, org_type, org_id, is_default)
		VALUES (?, ?, ?, ?)`,
		g.PolicyID, string(g.OrgType), g.OrgID, g.Default)
	return mapConstraint(err)
}

func (r *orgGrantsRepo) DeleteOrgGrant(ctx context.Context, policyID string, orgType domain.OrgType, orgID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM org_grants WHERE policy_id = ? AND org_type = ? AND org_id = ?`,
		policyID, string(orgType), orgID)
	return err
}

func (r *orgGrantsRepo) DeleteGrantsForOrg(ctx context.Context, orgType domain.OrgType, orgID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM org_grants WHERE org_type = ? AND org_id = ?`,
		string(orgType), orgID)
	return err
}

type operatorRolesRepo struct {
	q querier
}

func (r *operatorRolesRepo) ListOperatorRoleCodes(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT role_code FROM operator_roles WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows)
}

func (r *operatorRolesRepo) CreateOperatorRole(ctx context.Context, or domain.OperatorRole) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO operator_roles (user_id, role_code) VALUES (?, ?)`,
		or.UserID, or.RoleCode)
	return mapConstraint(err)
}

func (r *operatorRolesRepo) DeleteOperatorRoles(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM operator_roles WHERE user_id = ?`, userID)
	return err
}

type membershipsRepo struct {
	q querier
}

func (r *membershipsRepo) ListOrgIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT org_id FROM memberships WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows)
}

func (r *membershipsRepo) CreateMembership(ctx context.Context, m domain.Membership) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO memberships (user_id, org_type, org_id) VALUES (?, ?, ?)`,
		m.UserID, string(m.OrgType), m.OrgID)
	return mapConstraint(err)
}

func (r *membershipsRepo) DeleteMemberships(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM memberships WHERE user_id = ?`, userID)
	return err
}

func collectStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
