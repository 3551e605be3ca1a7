package service

import (
	"context"
	"sort"
	"strings"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
	"github.com/aussiebroadwan/tenauth/internal/auth/store"
)

// Permission code prefixes. Policy-derived codes and delegated-operator
// codes must stay distinguishable in the resolved set.
const (
	PermissionPrefixPolicy   = "POLICY_"
	PermissionPrefixOperator = "OPERATOR_"
)

// AuthorityResolver aggregates the full effective permission set for an
// authenticated principal. It is read-only and safe for concurrent use; it
// performs no caching, so callers see policy changes on the next resolve.
type AuthorityResolver struct {
	Store store.Store
}

// Resolve computes the deduplicated permission codes for the principal.
//
// Administrators and ordinary members deliberately use two different
// queries: administrators see every policy granted to their org closure,
// ordinary members only see policies marked default. Predefined elevated
// policies are therefore invisible to regular users even when granted to a
// shared org entity.
func (r *AuthorityResolver) Resolve(ctx context.Context, p domain.Principal) ([]string, error) {
	orgIDs, err := r.Store.Memberships().ListOrgIDs(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	// The closure always contains the principal itself and its tenant, even
	// if no membership rows were materialised yet.
	orgIDs = appendUnique(orgIDs, p.UserID)
	if p.TenantID != "" {
		orgIDs = appendUnique(orgIDs, p.TenantID)
	}

	var codes []string
	if p.SysAdmin {
		codes, err = r.Store.Policies().ListGrantedPolicyCodes(ctx, orgIDs)
	} else {
		codes, err = r.Store.Policies().ListDefaultGrantedPolicyCodes(ctx, orgIDs)
	}
	if err != nil {
		return nil, err
	}

	perms := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		perms[withPrefix(code, PermissionPrefixPolicy)] = struct{}{}
	}

	// Delegated-operator sign-ins additionally union in operator-role
	// grants, under their own prefix.
	if p.Operator && p.ActingUserID != "" {
		roleCodes, err := r.Store.OperatorRoles().ListOperatorRoleCodes(ctx, p.UserID)
		if err != nil {
			return nil, err
		}
		for _, code := range roleCodes {
			perms[withPrefix(code, PermissionPrefixOperator)] = struct{}{}
		}
	}

	out := make([]string, 0, len(perms))
	for perm := range perms {
		out = append(out, perm)
	}
	sort.Strings(out)
	return out, nil
}

// withPrefix prepends prefix unless the code already carries it.
func withPrefix(code, prefix string) string {
	if strings.HasPrefix(code, prefix) {
		return code
	}
	return prefix + code
}

func appendUnique(xs []string, x string) []string {
	for _, v := range xs {
		if v == x {
			return xs
		}
	}
	return append(xs, x)
}
