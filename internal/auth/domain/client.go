package domain

import "time"

// Client is a registered machine-client identity. System credentials own one
// client each; the secret is stored argon2 encoded only.
type Client struct {
	ID         string
	Name       string
	SecretHash string
	Scopes     []string
	Protected  bool // protected clients cannot be deleted
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
