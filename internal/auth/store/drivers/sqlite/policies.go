package sqlite

import (
	"context"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
)

type policiesRepo struct {
	q querier
}

func (r *policiesRepo) GetPolicyByID(ctx context.Context, id string) (domain.Policy, error) {
	var p domain.Policy
	var kind string
	err := r.q.QueryRowContext(ctx, `
		SELECT id, name, code, kind, is_default, grant_stage, app_id, client_id,
			enabled, created_at, updated_at
		FROM policies WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Code, &kind, &p.Default, &p.GrantStage,
			&p.AppID, &p.ClientID, &p.Enabled, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Policy{}, mapNotFound(err)
	}
	p.Kind = domain.PolicyKind(kind)
	return p, nil
}

func (r *policiesRepo) CreatePolicy(ctx context.Context, p domain.Policy) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO policies (id, name, code, kind, is_default, grant_stage,
			app_id, client_id, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Code, string(p.Kind), p.Default, p.GrantStage,
		p.AppID, p.ClientID, p.Enabled)
	return mapConstraint(err)
}

func (r *policiesRepo) DeletePolicy(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM policies WHERE id = ?`, id)
	return err
}

// ListGrantedPolicyCodes is the administrator query: every enabled policy
// reachable from the org-id set, default marker ignored.
func (r *policiesRepo) ListGrantedPolicyCodes(ctx context.Context, orgIDs []string) ([]string, error) {
	if len(orgIDs) == 0 {
		return nil, nil
	}
	rows, err := r.q.QueryContext(ctx, `
		SELECT DISTINCT p.code
		FROM policies p
		JOIN org_grants g ON g.policy_id = p.id
		WHERE p.enabled = 1 AND g.org_id IN (`+placeholders(len(orgIDs))+`)`,
		stringArgs(orgIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows)
}

// ListDefaultGrantedPolicyCodes is the ordinary-member query: only enabled
// policies marked default are visible.
func (r *policiesRepo) ListDefaultGrantedPolicyCodes(ctx context.Context, orgIDs []string) ([]string, error) {
	if len(orgIDs) == 0 {
		return nil, nil
	}
	rows, err := r.q.QueryContext(ctx, `
		SELECT DISTINCT p.code
		FROM policies p
		JOIN org_grants g ON g.policy_id = p.id
		WHERE p.enabled = 1 AND p.is_default = 1
			AND g.org_id IN (`+placeholders(len(orgIDs))+`)`,
		stringArgs(orgIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows)
}
