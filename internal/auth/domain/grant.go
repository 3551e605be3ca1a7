package domain

import "time"

// OrgType is the kind of organizational entity a policy can be granted to.
type OrgType string

const (
	OrgTypeTenant     OrgType = "tenant"
	OrgTypeUser       OrgType = "user"
	OrgTypeDepartment OrgType = "department"
	OrgTypeGroup      OrgType = "group"
)

// OrgGrant binds a policy to an organizational entity. Uniqueness is
// (PolicyID, OrgType, OrgID).
type OrgGrant struct {
	PolicyID  string
	OrgType   OrgType
	OrgID     string
	Default   bool
	GrantedAt time.Time
}

// OperatorRole is a delegated-operator grant keyed directly by user id,
// separate from the org-grant relation.
type OperatorRole struct {
	UserID   string
	RoleCode string
}

// Membership is one row of a principal's organizational closure: the user
// itself, its departments, groups and owning tenant.
type Membership struct {
	UserID  string
	OrgType OrgType
	OrgID   string
}
