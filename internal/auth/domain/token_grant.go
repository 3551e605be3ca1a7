package domain

import "time"

// TokenGrant is the persisted record behind an opaque bearer value issued by
// the client-credentials exchange. Only the SHA-256 fingerprint of the value
// is stored.
type TokenGrant struct {
	ID        string
	ClientID  string
	TokenHash string
	Scopes    []string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
