package service_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
	"github.com/aussiebroadwan/tenauth/internal/auth/service"
	"github.com/stretchr/testify/require"
)

func TestAuthorityResolver_AdminSeesAllGrantedPolicies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	r := &service.AuthorityResolver{Store: s}

	seedPolicyGrant(t, s, "BASE_USER", true, domain.OrgTypeTenant, "t1")
	seedPolicyGrant(t, s, "AUDIT_ADMIN", false, domain.OrgTypeTenant, "t1")

	admin := domain.Principal{UserID: "u-admin", TenantID: "t1", SysAdmin: true}
	member := domain.Principal{UserID: "u-member", TenantID: "t1"}

	got, err := r.Resolve(ctx, admin)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"POLICY_BASE_USER", "POLICY_AUDIT_ADMIN"}, got)

	// The ordinary member only sees policies marked default, even though the
	// elevated one is granted to the same tenant entity.
	got, err = r.Resolve(ctx, member)
	require.NoError(t, err)
	require.Equal(t, []string{"POLICY_BASE_USER"}, got)
}

func TestAuthorityResolver_MembershipClosure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	r := &service.AuthorityResolver{Store: s}

	seedPolicyGrant(t, s, "DIRECT", true, domain.OrgTypeUser, "u1")
	seedPolicyGrant(t, s, "VIA_DEPT", true, domain.OrgTypeDepartment, "dept-eng")
	seedPolicyGrant(t, s, "VIA_GROUP", true, domain.OrgTypeGroup, "grp-oncall")
	seedPolicyGrant(t, s, "VIA_TENANT", true, domain.OrgTypeTenant, "t1")
	seedPolicyGrant(t, s, "OTHER_DEPT", true, domain.OrgTypeDepartment, "dept-sales")

	require.NoError(t, s.Memberships().CreateMembership(ctx, domain.Membership{
		UserID: "u1", OrgType: domain.OrgTypeDepartment, OrgID: "dept-eng",
	}))
	require.NoError(t, s.Memberships().CreateMembership(ctx, domain.Membership{
		UserID: "u1", OrgType: domain.OrgTypeGroup, OrgID: "grp-oncall",
	}))

	got, err := r.Resolve(ctx, domain.Principal{UserID: "u1", TenantID: "t1"})
	require.NoError(t, err)
	require.ElementsMatch(t,
		[]string{"POLICY_DIRECT", "POLICY_VIA_DEPT", "POLICY_VIA_GROUP", "POLICY_VIA_TENANT"},
		got)
}

func TestAuthorityResolver_PrefixNotDoubled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	r := &service.AuthorityResolver{Store: s}

	seedPolicyGrant(t, s, "POLICY_ALREADY_PREFIXED", true, domain.OrgTypeUser, "u2")

	got, err := r.Resolve(ctx, domain.Principal{UserID: "u2", TenantID: "t1"})
	require.NoError(t, err)
	require.Equal(t, []string{"POLICY_ALREADY_PREFIXED"}, got)
}

func TestAuthorityResolver_OperatorUnion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	r := &service.AuthorityResolver{Store: s}

	seedPolicyGrant(t, s, "BASE", true, domain.OrgTypeUser, "u3")
	require.NoError(t, s.OperatorRoles().CreateOperatorRole(ctx, domain.OperatorRole{
		UserID: "u3", RoleCode: "SUPPORT",
	}))

	t.Run("delegated operator unions role codes", func(t *testing.T) {
		got, err := r.Resolve(ctx, domain.Principal{
			UserID: "u3", TenantID: "t1", Operator: true, ActingUserID: "u-target",
		})
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"POLICY_BASE", "OPERATOR_SUPPORT"}, got)
	})

	t.Run("operator flag without acting user does not", func(t *testing.T) {
		got, err := r.Resolve(ctx, domain.Principal{
			UserID: "u3", TenantID: "t1", Operator: true,
		})
		require.NoError(t, err)
		require.Equal(t, []string{"POLICY_BASE"}, got)
	})
}

func TestAuthorityResolver_AdminSetContainsMemberSet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	r := &service.AuthorityResolver{Store: s}

	seedPolicyGrant(t, s, "A", true, domain.OrgTypeTenant, "t1")
	seedPolicyGrant(t, s, "B", false, domain.OrgTypeTenant, "t1")
	seedPolicyGrant(t, s, "C", true, domain.OrgTypeUser, "u4")

	memberSet, err := r.Resolve(ctx, domain.Principal{UserID: "u4", TenantID: "t1"})
	require.NoError(t, err)
	adminSet, err := r.Resolve(ctx, domain.Principal{UserID: "u4", TenantID: "t1", SysAdmin: true})
	require.NoError(t, err)

	require.Subset(t, adminSet, memberSet)
	require.Greater(t, len(adminSet), len(memberSet))
}

func TestAuthorityResolver_DisabledPolicyInvisible(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	r := &service.AuthorityResolver{Store: s}

	p := domain.Policy{
		ID: "pol-disabled", Name: "disabled", Code: "DISABLED",
		Kind: domain.PolicyKindTenant, Default: true, Enabled: false,
	}
	require.NoError(t, s.Policies().CreatePolicy(ctx, p))
	require.NoError(t, s.OrgGrants().CreateOrgGrant(ctx, domain.OrgGrant{
		PolicyID: p.ID, OrgType: domain.OrgTypeUser, OrgID: "u5",
	}))

	got, err := r.Resolve(ctx, domain.Principal{UserID: "u5", TenantID: "t1", SysAdmin: true})
	require.NoError(t, err)
	require.Empty(t, got)
}
