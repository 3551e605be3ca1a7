package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. Sub-repositories keep concerns tidy and make it obvious
// which tables an operation touches.
type Store interface {
	Users() Users
	Directories() Directories
	Policies() Policies
	OrgGrants() OrgGrants
	OperatorRoles() OperatorRoles
	Memberships() Memberships
	Clients() Clients
	TokenGrants() TokenGrants
	SystemCredentials() SystemCredentials
	CredentialResources() CredentialResources
	Catalog() Catalog

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST Commit() or Rollback() the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn inside a transaction, committing on nil and rolling
	// back on error. Prefer this over Tx directly.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername looks a user up within a tenant for password sign-in.
	GetUserByUsername(ctx context.Context, tenantID, username string) (domain.User, error)

	// GetUserByMobile and GetUserByEmail back the out-of-band sign-in
	// channels; they only match users with the channel bound.
	GetUserByMobile(ctx context.Context, tenantID, mobile string) (domain.User, error)
	GetUserByEmail(ctx context.Context, tenantID, email string) (domain.User, error)

	CreateUser(ctx context.Context, u domain.User) error
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
	DeleteUser(ctx context.Context, userID string) error
}

type Directories interface {
	GetDirectoryByID(ctx context.Context, id string) (domain.Directory, error)
	CreateDirectory(ctx context.Context, d domain.Directory) error
	DeleteDirectory(ctx context.Context, id string) error
}

type Policies interface {
	GetPolicyByID(ctx context.Context, id string) (domain.Policy, error)
	CreatePolicy(ctx context.Context, p domain.Policy) error
	DeletePolicy(ctx context.Context, id string) error

	// ListGrantedPolicyCodes returns the codes of every enabled policy
	// granted to any of the given org entities, regardless of the policy's
	// default marker. This is the administrator-facing query.
	ListGrantedPolicyCodes(ctx context.Context, orgIDs []string) ([]string, error)

	// ListDefaultGrantedPolicyCodes is the ordinary-member query: only
	// enabled policies marked default are visible. Kept as a separate query
	// on purpose; the asymmetry with ListGrantedPolicyCodes is intentional.
	ListDefaultGrantedPolicyCodes(ctx context.Context, orgIDs []string) ([]string, error)
}

type OrgGrants interface {
	CreateOrgGrant(ctx context.Context, g domain.OrgGrant) error
	DeleteOrgGrant(ctx context.Context, policyID string, orgType domain.OrgType, orgID string) error
	DeleteGrantsForOrg(ctx context.Context, orgType domain.OrgType, orgID string) error
}

type OperatorRoles interface {
	ListOperatorRoleCodes(ctx context.Context, userID string) ([]string, error)
	CreateOperatorRole(ctx context.Context, r domain.OperatorRole) error
	DeleteOperatorRoles(ctx context.Context, userID string) error
}

type Memberships interface {
	// ListOrgIDs returns the org-id closure for a user: self, departments,
	// groups and owning tenant.
	ListOrgIDs(ctx context.Context, userID string) ([]string, error)
	CreateMembership(ctx context.Context, m domain.Membership) error
	DeleteMemberships(ctx context.Context, userID string) error
}

type Clients interface {
	GetClientByID(ctx context.Context, id string) (domain.Client, error)
	CreateClient(ctx context.Context, c domain.Client) error
	DeleteClient(ctx context.Context, clientID string) error
}

type TokenGrants interface {
	CreateTokenGrant(ctx context.Context, g domain.TokenGrant) error
	GetTokenGrantByHash(ctx context.Context, hash string) (domain.TokenGrant, error)
	RevokeTokenGrant(ctx context.Context, hash string) error
	DeleteExpiredTokenGrants(ctx context.Context) error
}

type SystemCredentials interface {
	GetSystemCredentialByID(ctx context.Context, id string) (domain.SystemCredential, error)
	GetSystemCredentialByName(ctx context.Context, tenantID, name string) (domain.SystemCredential, error)
	ListSystemCredentials(ctx context.Context, tenantID string) ([]domain.SystemCredential, error)
	CountSystemCredentials(ctx context.Context, tenantID string) (int, error)
	CreateSystemCredential(ctx context.Context, c domain.SystemCredential) error
	DeleteSystemCredential(ctx context.Context, id string) error
}

type CredentialResources interface {
	CreateCredentialResource(ctx context.Context, r domain.CredentialResource) error
	ListCredentialResources(ctx context.Context, credentialID string) ([]domain.CredentialResource, error)
	HasCredentialResource(ctx context.Context, credentialID, resource string) (bool, error)
	DeleteCredentialResources(ctx context.Context, credentialID string) error
}

// Catalog is the resource catalog consulted during credential issuance.
type Catalog interface {
	// FindResources returns every catalog row with the given resource name,
	// across all services. Issuance requires exactly one match.
	FindResources(ctx context.Context, name string) ([]domain.CatalogResource, error)
	APIExists(ctx context.Context, apiID string) (bool, error)
	CreateResource(ctx context.Context, r domain.CatalogResource) error
	CreateAPI(ctx context.Context, a domain.API) error
}
