package domain

import "time"

// SystemCredential is a long-lived machine credential scoped to specific API
// resources. The bearer value is stored encrypted; Value carries the
// plaintext only on the single issuance response and is never persisted.
type SystemCredential struct {
	ID             string
	TenantID       string
	Name           string
	ValueEncrypted string
	Value          string `json:"-"`
	ClientID       string
	ExpiresAt      time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CredentialResource scopes a SystemCredential to one named API resource.
type CredentialResource struct {
	CredentialID string
	Resource     string
	ServiceCode  string
	Authority    string
}

// CatalogResource is one row of the resource catalog consulted during
// issuance. Authority references an API id when the resource is api-scoped.
type CatalogResource struct {
	Name        string
	ServiceCode string
	Authority   string
	APIID       string
}

// API is a catalog entry referenced by api-scoped resources.
type API struct {
	ID          string
	ServiceCode string
	Path        string
}
