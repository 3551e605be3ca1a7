package domain

import "time"

// Directory is the configuration for an external LDAP server a tenant
// delegates password verification to.
type Directory struct {
	ID            string
	TenantID      string
	Name          string
	URL           string // ldap:// or ldaps://
	BaseDN        string
	UserDNPattern string // e.g. "cn=%s,ou=people"; joined with BaseDN
	DialTimeout   time.Duration
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
