package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
	"github.com/aussiebroadwan/tenauth/internal/auth/store"
	"github.com/aussiebroadwan/tenauth/pkg/cryptox"
	"github.com/aussiebroadwan/tenauth/pkg/idx"
	"github.com/aussiebroadwan/tenauth/pkg/slogx"
)

var (
	ErrBootstrapDisabled  = errors.New("bootstrap_disabled")
	ErrBootstrapBadToken  = errors.New("bootstrap_bad_token")
	ErrBootstrapCompleted = errors.New("bootstrap_completed")
)

// Bootstrapper provisions the first administrator of a tenant. It is guarded
// by a deployment-time shared token and refuses to run twice for the same
// tenant.
type Bootstrapper struct {
	Store store.Store
	Token string
}

// BootstrapRequest describes the initial administrator.
type BootstrapRequest struct {
	Token    string
	TenantID string
	Username string
	FullName string
	Password string
}

// Provision creates the tenant administrator and a default base policy
// granted to the tenant, so the very first sign-in already resolves a
// non-empty permission set.
func (b *Bootstrapper) Provision(ctx context.Context, req BootstrapRequest) (domain.User, error) {
	if b.Token == "" {
		return domain.User{}, ErrBootstrapDisabled
	}
	if subtle.ConstantTimeCompare([]byte(req.Token), []byte(b.Token)) != 1 {
		return domain.User{}, ErrBootstrapBadToken
	}

	_, err := b.Store.Users().GetUserByUsername(ctx, req.TenantID, req.Username)
	switch {
	case err == nil:
		return domain.User{}, ErrBootstrapCompleted
	case !errors.Is(err, store.ErrNotFound):
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(req.Password)
	if err != nil {
		return domain.User{}, err
	}

	u := domain.User{
		ID:           idx.New().String(),
		TenantID:     req.TenantID,
		Username:     req.Username,
		FullName:     req.FullName,
		PasswordHash: TagCredential(AlgArgon2, hash),
		SysAdmin:     true,
	}

	err = b.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			return err
		}

		// Policy codes are globally unique, so the base policy is minted
		// per tenant.
		policy := domain.Policy{
			ID:      idx.New().String(),
			Name:    "Base access",
			Code:    strings.ToUpper(req.TenantID) + "_BASE_USER",
			Kind:    domain.PolicyKindPlatform,
			Default: true,
			Enabled: true,
		}
		if err := tx.Policies().CreatePolicy(ctx, policy); err != nil {
			return err
		}
		return tx.OrgGrants().CreateOrgGrant(ctx, domain.OrgGrant{
			PolicyID: policy.ID,
			OrgType:  domain.OrgTypeTenant,
			OrgID:    req.TenantID,
		})
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("provision tenant admin: %w", err)
	}

	slogx.FromContext(ctx).Info("tenant bootstrapped",
		"tenant_id", req.TenantID, "user_id", u.ID)
	return u, nil
}
