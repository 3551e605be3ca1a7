package domain

import "time"

// PolicyKind distinguishes platform-seeded policies from ones a tenant
// administrator defined.
type PolicyKind string

const (
	PolicyKindPlatform PolicyKind = "platform"
	PolicyKindTenant   PolicyKind = "tenant"
)

// Recognised policy code suffixes. A suffix, when present, determines the
// role class of the policy.
const (
	PolicySuffixAdmin = "_ADMIN"
	PolicySuffixUser  = "_USER"
	PolicySuffixGuest = "_GUEST"
	PolicySuffixExt   = "_EXT"
)

type Policy struct {
	ID         string
	Name       string
	Code       string
	Kind       PolicyKind
	Default    bool
	GrantStage string // optional grant-stage marker, empty when unset
	AppID      string
	ClientID   string
	Enabled    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasValidSuffix reports whether the policy code carries no suffix marker or
// one of the four recognised ones.
func (p Policy) HasValidSuffix() bool {
	code := p.Code
	for _, s := range []string{PolicySuffixAdmin, PolicySuffixUser, PolicySuffixGuest, PolicySuffixExt} {
		if len(code) > len(s) && code[len(code)-len(s):] == s {
			return true
		}
	}
	// No underscore-delimited suffix at all is fine too.
	for i := len(code) - 1; i >= 0; i-- {
		if code[i] == '_' {
			return false
		}
	}
	return true
}
