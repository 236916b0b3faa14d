package session

import (
	"sort"
	"strings"
)

// Role is a server-assigned authority
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleRoot     Role = "ROOT"
	RoleSubadmin Role = "SUBADMIN"
	RoleUser     Role = "USER"
)

// RoleSet is the set of roles parsed from a comma separated roles string.
// Membership is exact, so SUBADMIN never counts as ADMIN.
type RoleSet map[Role]struct{}

// ParseRoles parses "ADMIN, USER" style role strings. Entries are trimmed
// and upper-cased; empty entries are ignored.
func ParseRoles(s string) RoleSet {
	set := make(RoleSet)
	for _, part := range strings.Split(s, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		set[Role(part)] = struct{}{}
	}
	return set
}

// Has reports whether the set contains role
func (rs RoleSet) Has(role Role) bool {
	_, ok := rs[role]
	return ok
}

// HasAny reports whether the set contains any of roles
func (rs RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if rs.Has(r) {
			return true
		}
	}
	return false
}

// IsRoot grants access to root-only pages
func (rs RoleSet) IsRoot() bool {
	return rs.HasAny(RoleAdmin, RoleManager, RoleRoot)
}

// IsAdmin reports the ADMIN role
func (rs RoleSet) IsAdmin() bool {
	return rs.Has(RoleAdmin)
}

// CanEditFeature gates the feature edit action
func (rs RoleSet) CanEditFeature() bool {
	return rs.HasAny(RoleAdmin, RoleRoot)
}

// String returns the roles sorted and comma separated
func (rs RoleSet) String() string {
	out := make([]string, 0, len(rs))
	for r := range rs {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}
