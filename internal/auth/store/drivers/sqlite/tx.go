package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/tenauth/internal/auth/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // outer DB stays open; caller commits or rolls back

// Ping is a no-op inside a transaction; the connection already exists.
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx starts

func (t *txStore) Users() store.Users                         { return &usersRepo{q: t.tx} }
func (t *txStore) Directories() store.Directories             { return &directoriesRepo{q: t.tx} }
func (t *txStore) Policies() store.Policies                   { return &policiesRepo{q: t.tx} }
func (t *txStore) OrgGrants() store.OrgGrants                 { return &orgGrantsRepo{q: t.tx} }
func (t *txStore) OperatorRoles() store.OperatorRoles         { return &operatorRolesRepo{q: t.tx} }
func (t *txStore) Memberships() store.Memberships             { return &membershipsRepo{q: t.tx} }
func (t *txStore) Clients() store.Clients                     { return &clientsRepo{q: t.tx} }
func (t *txStore) TokenGrants() store.TokenGrants             { return &tokenGrantsRepo{q: t.tx} }
func (t *txStore) SystemCredentials() store.SystemCredentials { return &systemCredentialsRepo{q: t.tx} }
func (t *txStore) CredentialResources() store.CredentialResources {
	return &credentialResourcesRepo{q: t.tx}
}
func (t *txStore) Catalog() store.Catalog { return &catalogRepo{q: t.tx} }
