package transaction

import "sort"

// Role is the part a participant plays in a transaction.
type Role string

const (
	RoleOwner        Role = "owner"
	RoleCounterparty Role = "counterparty"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is known.
func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleCounterparty
}

// ConfirmerSet is a grow-only set of roles that attested to a milestone.
// The zero value is an empty set. Values are immutable; With returns a copy.
type ConfirmerSet struct {
	roles []Role
}

// NewConfirmerSet builds a set from persisted roles, dropping unknown and duplicate entries.
func NewConfirmerSet(roles ...Role) ConfirmerSet {
	var s ConfirmerSet
	for _, r := range roles {
		s, _ = s.With(r)
	}
	return s
}

// Has reports whether the role is recorded.
func (s ConfirmerSet) Has(role Role) bool {
	for _, r := range s.roles {
		if r == role {
			return true
		}
	}
	return false
}

// With returns the set extended by role and whether anything changed.
func (s ConfirmerSet) With(role Role) (ConfirmerSet, bool) {
	if !role.IsValid() || s.Has(role) {
		return s, false
	}
	roles := make([]Role, 0, len(s.roles)+1)
	roles = append(roles, s.roles...)
	roles = append(roles, role)
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return ConfirmerSet{roles: roles}, true
}

// Len returns the number of recorded roles.
func (s ConfirmerSet) Len() int {
	return len(s.roles)
}

// IsEmpty reports whether no role is recorded.
func (s ConfirmerSet) IsEmpty() bool {
	return len(s.roles) == 0
}

// Roles returns a copy of the recorded roles in a stable order.
func (s ConfirmerSet) Roles() []Role {
	out := make([]Role, len(s.roles))
	copy(out, s.roles)
	return out
}

// Strings returns the recorded roles as strings, for persistence.
func (s ConfirmerSet) Strings() []string {
	out := make([]string, len(s.roles))
	for i, r := range s.roles {
		out[i] = string(r)
	}
	return out
}

// ConfirmerSetFromStrings parses persisted role names.
func ConfirmerSetFromStrings(values []string) ConfirmerSet {
	roles := make([]Role, len(values))
	for i, v := range values {
		roles[i] = Role(v)
	}
	return NewConfirmerSet(roles...)
}
