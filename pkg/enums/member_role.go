package enums

import "fmt"

// MemberRole represents the caller's platform role as asserted by the auth
// layer. The ledger only distinguishes admins from everyone else.
type MemberRole string

const (
	MemberRoleAdmin    MemberRole = "admin"
	MemberRoleSeller   MemberRole = "seller"
	MemberRoleProvider MemberRole = "provider"
	MemberRoleClient   MemberRole = "client"
)

var validMemberRoles = []MemberRole{
	MemberRoleAdmin,
	MemberRoleSeller,
	MemberRoleProvider,
	MemberRoleClient,
}

// String implements fmt.Stringer.
func (m MemberRole) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MemberRole.
func (m MemberRole) IsValid() bool {
	for _, candidate := range validMemberRoles {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMemberRole converts raw input into a MemberRole.
func ParseMemberRole(value string) (MemberRole, error) {
	for _, candidate := range validMemberRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member role %q", value)
}
