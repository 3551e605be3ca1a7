package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
	"github.com/aussiebroadwan/tenauth/internal/auth/obs"
	"github.com/aussiebroadwan/tenauth/internal/auth/store"
	"github.com/aussiebroadwan/tenauth/pkg/cryptox"
	"github.com/aussiebroadwan/tenauth/pkg/idx"
	"github.com/aussiebroadwan/tenauth/pkg/slogx"
)

var (
	ErrNotAdministrator    = errors.New("not_administrator")
	ErrCredentialNameTaken = errors.New("credential_name_taken")
	ErrResourceUnknown     = errors.New("resource_unknown")
	ErrResourceAmbiguous   = errors.New("resource_ambiguous")
	ErrAPINotFound         = errors.New("api_not_found")
	ErrQuotaExceeded       = errors.New("credential_quota_exceeded")
)

// DefaultCredentialQuota caps live system credentials per tenant.
const DefaultCredentialQuota = 3

// TokenExchanger is the slice of TokenService the credential manager needs:
// mint a bearer for a just-registered client, and invalidate one by value.
type TokenExchanger interface {
	ExchangeClientCredentials(ctx context.Context, clientID, clientSecret string, scopes []string) (string, time.Time, error)
	RevokeTokenByValue(ctx context.Context, value string) error
}

// SystemCredentialManager issues, lists and revokes long-lived machine
// credentials scoped to catalog resources. Issuance spans a remote token
// exchange between two local transactions, so failures after the exchange
// are compensated rather than rolled back.
type SystemCredentialManager struct {
	Store  store.Store
	Tokens TokenExchanger
	Cipher *cryptox.Cipher
	Quota  int
}

// Issue validates the request, registers a dedicated machine client, obtains
// a bearer via the client-credentials exchange and persists the encrypted
// credential. The plaintext bearer rides back once on the Value field and is
// never stored.
func (m *SystemCredentialManager) Issue(
	ctx context.Context,
	p domain.Principal,
	name string,
	resources []string,
) (domain.SystemCredential, error) {
	log := slogx.FromContext(ctx)

	cred, err := m.issue(ctx, p, name, resources)
	if err != nil {
		obs.CredentialOpsTotal.WithLabelValues("issue", "error").Inc()
		return domain.SystemCredential{}, err
	}

	obs.CredentialOpsTotal.WithLabelValues("issue", "ok").Inc()
	log.Info("system credential issued",
		"tenant_id", cred.TenantID,
		"credential_id", cred.ID,
		"name", cred.Name,
	)
	return cred, nil
}

func (m *SystemCredentialManager) issue(
	ctx context.Context,
	p domain.Principal,
	name string,
	resources []string,
) (domain.SystemCredential, error) {
	log := slogx.FromContext(ctx)

	if !p.SysAdmin {
		return domain.SystemCredential{}, ErrNotAdministrator
	}

	// Validation order is part of the contract: name clash first, then
	// resource resolution, then quota.
	_, err := m.Store.SystemCredentials().GetSystemCredentialByName(ctx, p.TenantID, name)
	switch {
	case err == nil:
		return domain.SystemCredential{}, fmt.Errorf("%w: %q", ErrCredentialNameTaken, name)
	case !errors.Is(err, store.ErrNotFound):
		return domain.SystemCredential{}, err
	}

	resolved, err := m.resolveResources(ctx, resources)
	if err != nil {
		return domain.SystemCredential{}, err
	}

	quota := m.Quota
	if quota <= 0 {
		quota = DefaultCredentialQuota
	}
	count, err := m.Store.SystemCredentials().CountSystemCredentials(ctx, p.TenantID)
	if err != nil {
		return domain.SystemCredential{}, err
	}
	if count >= quota {
		return domain.SystemCredential{}, fmt.Errorf("%w: tenant %s holds %d of %d", ErrQuotaExceeded, p.TenantID, count, quota)
	}

	// The client id is a pure function of (tenant, name), so re-issuing under
	// the same name always lands on the same registration.
	clientID := deriveClientID(p.TenantID, name)
	clientSecret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.SystemCredential{}, err
	}
	secretHash, err := cryptox.HashPassword(clientSecret)
	if err != nil {
		return domain.SystemCredential{}, err
	}

	scopes := make([]string, 0, len(resolved))
	for _, r := range resolved {
		scopes = append(scopes, r.Name)
	}

	// Phase 1: registration is delete-then-insert so a stale registration
	// left behind by an earlier partial failure never blocks re-issuance.
	err = m.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Clients().DeleteClient(ctx, clientID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return tx.Clients().CreateClient(ctx, domain.Client{
			ID:         clientID,
			Name:       "syscred:" + p.TenantID + ":" + name,
			SecretHash: secretHash,
			Scopes:     scopes,
		})
	})
	if err != nil {
		return domain.SystemCredential{}, fmt.Errorf("register credential client: %w", err)
	}

	// Phase 2: self-exchange for the bearer value.
	value, expiresAt, err := m.Tokens.ExchangeClientCredentials(ctx, clientID, clientSecret, nil)
	if err != nil {
		if derr := m.Store.Clients().DeleteClient(ctx, clientID); derr != nil {
			log.Error("issuance compensation failed: client left registered",
				"client_id", clientID, "err", derr)
		}
		return domain.SystemCredential{}, fmt.Errorf("exchange credential token: %w", err)
	}

	encrypted, err := m.Cipher.Encrypt(value)
	if err != nil {
		m.compensateIssue(ctx, clientID, value)
		return domain.SystemCredential{}, err
	}

	cred := domain.SystemCredential{
		ID:             idx.New().String(),
		TenantID:       p.TenantID,
		Name:           name,
		ValueEncrypted: encrypted,
		Value:          value,
		ClientID:       clientID,
		ExpiresAt:      expiresAt,
	}

	// Phase 3: persist the credential and its resource scoping together.
	err = m.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.SystemCredentials().CreateSystemCredential(ctx, cred); err != nil {
			return err
		}
		for _, r := range resolved {
			cr := domain.CredentialResource{
				CredentialID: cred.ID,
				Resource:     r.Name,
				ServiceCode:  r.ServiceCode,
				Authority:    r.Authority,
			}
			if err := tx.CredentialResources().CreateCredentialResource(ctx, cr); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		m.compensateIssue(ctx, clientID, value)
		return domain.SystemCredential{}, fmt.Errorf("persist credential: %w", err)
	}

	return cred, nil
}

// compensateIssue undoes the remote half of a failed issuance: best effort,
// logged, never surfaced. A grant that survives here is swept by Revoke.
func (m *SystemCredentialManager) compensateIssue(ctx context.Context, clientID, value string) {
	log := slogx.FromContext(ctx)
	if err := m.Tokens.RevokeTokenByValue(ctx, value); err != nil {
		log.Error("issuance compensation failed: grant left live", "client_id", clientID, "err", err)
	}
	if err := m.Store.Clients().DeleteClient(ctx, clientID); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error("issuance compensation failed: client left registered", "client_id", clientID, "err", err)
	}
}

func (m *SystemCredentialManager) resolveResources(ctx context.Context, names []string) ([]domain.CatalogResource, error) {
	out := make([]domain.CatalogResource, 0, len(names))
	for _, name := range names {
		matches, err := m.Store.Catalog().FindResources(ctx, name)
		if err != nil {
			return nil, err
		}
		switch {
		case len(matches) == 0:
			return nil, fmt.Errorf("%w: %q", ErrResourceUnknown, name)
		case len(matches) > 1:
			return nil, fmt.Errorf("%w: %q matches %d services", ErrResourceAmbiguous, name, len(matches))
		}
		r := matches[0]
		if r.APIID != "" {
			ok, err := m.Store.Catalog().APIExists(ctx, r.APIID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("%w: resource %q references api %s", ErrAPINotFound, name, r.APIID)
			}
		}
		out = append(out, r)
	}
	return out, nil
}

// CredentialWithResources pairs a credential with its resource scoping for
// listing. Values stay encrypted.
type CredentialWithResources struct {
	Credential domain.SystemCredential
	Resources  []domain.CredentialResource
}

// List returns the tenant's credentials with encrypted values only.
func (m *SystemCredentialManager) List(ctx context.Context, p domain.Principal) ([]CredentialWithResources, error) {
	if !p.SysAdmin {
		return nil, ErrNotAdministrator
	}

	creds, err := m.Store.SystemCredentials().ListSystemCredentials(ctx, p.TenantID)
	if err != nil {
		return nil, err
	}

	out := make([]CredentialWithResources, 0, len(creds))
	for _, c := range creds {
		rs, err := m.Store.CredentialResources().ListCredentialResources(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, CredentialWithResources{Credential: c, Resources: rs})
	}
	return out, nil
}

// Revoke tears down credentials: remote grant first (absence tolerated), then
// the client registration and local rows. Processing continues across ids so
// one bad entry does not strand the rest; the first error is reported.
func (m *SystemCredentialManager) Revoke(ctx context.Context, p domain.Principal, ids []string) error {
	if !p.SysAdmin {
		obs.CredentialOpsTotal.WithLabelValues("revoke", "error").Inc()
		return ErrNotAdministrator
	}

	var firstErr error
	for _, id := range ids {
		if err := m.revokeOne(ctx, p, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	outcome := "ok"
	if firstErr != nil {
		outcome = "error"
	}
	obs.CredentialOpsTotal.WithLabelValues("revoke", outcome).Inc()
	return firstErr
}

func (m *SystemCredentialManager) revokeOne(ctx context.Context, p domain.Principal, id string) error {
	log := slogx.FromContext(ctx)

	cred, err := m.Store.SystemCredentials().GetSystemCredentialByID(ctx, id)
	if err != nil {
		return err
	}
	// Tenant scoping: a credential belonging to another tenant is invisible.
	if cred.TenantID != p.TenantID {
		return store.ErrNotFound
	}

	value, err := m.Cipher.Decrypt(cred.ValueEncrypted)
	if err != nil {
		// Undecryptable means the grant cannot be addressed remotely. Local
		// teardown still proceeds; the grant dies at its expiry.
		log.Error("credential value undecryptable, skipping grant invalidation",
			"credential_id", cred.ID, "err", err)
	} else if err := m.Tokens.RevokeTokenByValue(ctx, value); err != nil {
		return fmt.Errorf("revoke credential grant: %w", err)
	}

	err = m.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Clients().DeleteClient(ctx, cred.ClientID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := tx.CredentialResources().DeleteCredentialResources(ctx, cred.ID); err != nil {
			return err
		}
		return tx.SystemCredentials().DeleteSystemCredential(ctx, cred.ID)
	})
	if err != nil {
		return fmt.Errorf("delete credential %s: %w", cred.ID, err)
	}

	log.Info("system credential revoked", "tenant_id", cred.TenantID, "credential_id", cred.ID)
	return nil
}

// AuthorizeResourceAccess reports whether a live credential is scoped to the
// named resource.
func (m *SystemCredentialManager) AuthorizeResourceAccess(ctx context.Context, credentialID, resource string) (bool, error) {
	cred, err := m.Store.SystemCredentials().GetSystemCredentialByID(ctx, credentialID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !cred.ExpiresAt.IsZero() && time.Now().After(cred.ExpiresAt) {
		return false, nil
	}
	return m.Store.CredentialResources().HasCredentialResource(ctx, credentialID, resource)
}

// RegisterResource adds a catalog entry credentials can be scoped to.
func (m *SystemCredentialManager) RegisterResource(ctx context.Context, p domain.Principal, r domain.CatalogResource) error {
	if !p.SysAdmin {
		return ErrNotAdministrator
	}
	if r.APIID != "" {
		ok, err := m.Store.Catalog().APIExists(ctx, r.APIID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrAPINotFound, r.APIID)
		}
	}
	return m.Store.Catalog().CreateResource(ctx, r)
}

// RegisterAPI adds an API catalog entry.
func (m *SystemCredentialManager) RegisterAPI(ctx context.Context, p domain.Principal, a domain.API) error {
	if !p.SysAdmin {
		return ErrNotAdministrator
	}
	if a.ID == "" {
		a.ID = idx.New().String()
	}
	return m.Store.Catalog().CreateAPI(ctx, a)
}

// deriveClientID maps (tenant, name) onto a stable registration id.
func deriveClientID(tenantID, name string) string {
	return "sc_" + cryptox.FingerprintToken(tenantID + "\x00" + name)[:24]
}
