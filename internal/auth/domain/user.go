package domain

import "time"

type User struct {
	ID           string
	TenantID     string
	Username     string
	FullName     string
	PasswordHash string  // algorithm-tagged, e.g. "{argon2}$argon2id$..."
	Mobile       *string // nullable until bound
	Email        *string // nullable until bound
	SysAdmin     bool
	Operator     bool
	ActingUserID string  // delegated "to-user" identity, empty for direct sign-ins
	DirectoryID  *string // set when the user authenticates against a directory
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the authenticated identity handed to the authority resolver
// and the credential manager. It is derived from a User at sign-in time.
type Principal struct {
	UserID       string
	TenantID     string
	Username     string
	SysAdmin     bool
	Operator     bool
	ActingUserID string
}

func (u User) Principal() Principal {
	return Principal{
		UserID:       u.ID,
		TenantID:     u.TenantID,
		Username:     u.Username,
		SysAdmin:     u.SysAdmin,
		Operator:     u.Operator,
		ActingUserID: u.ActingUserID,
	}
}
