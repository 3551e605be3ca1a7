package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
	"github.com/aussiebroadwan/tenauth/internal/auth/store"
	"github.com/aussiebroadwan/tenauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tenauth/pkg/cryptox"
	"github.com/aussiebroadwan/tenauth/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "tenauth-service-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())

	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s store.Store, u domain.User) domain.User {
	t.Helper()
	if u.ID == "" {
		u.ID = idx.New().String()
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func seedPolicyGrant(t *testing.T, s store.Store, code string, isDefault bool, orgType domain.OrgType, orgID string) {
	t.Helper()
	ctx := context.Background()

	p := domain.Policy{
		ID:      idx.New().String(),
		Name:    code,
		Code:    code,
		Kind:    domain.PolicyKindTenant,
		Default: isDefault,
		Enabled: true,
	}
	require.NoError(t, s.Policies().CreatePolicy(ctx, p))
	require.NoError(t, s.OrgGrants().CreateOrgGrant(ctx, domain.OrgGrant{
		PolicyID: p.ID,
		OrgType:  orgType,
		OrgID:    orgID,
	}))
}
