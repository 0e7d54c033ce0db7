package authorization

import (
	"errors"
	"strings"
)

// Role is the closed set of actor roles. Route metadata, session records and
// the enforcer all share this vocabulary; free-form role strings are rejected
// at the boundary by ParseRole.
type Role string

const (
	RoleSuper    Role = "R_SUPER"
	RoleAdmin    Role = "R_ADMIN"
	RoleSupplier Role = "R_SUPPLIER"
)

var ErrUnknownRole = errors.New("unknown_role")

func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(raw)) {
	case RoleSuper:
		return RoleSuper, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleSupplier:
		return RoleSupplier, nil
	default:
		return "", ErrUnknownRole
	}
}

// Roles returns every defined role.
func Roles() []Role {
	return []Role{RoleSuper, RoleAdmin, RoleSupplier}
}

// CanReview reports whether the role may approve or reject payment records.
func (r Role) CanReview() bool {
	switch r {
	case RoleSuper, RoleAdmin:
		return true
	case RoleSupplier:
		return false
	default:
		return false
	}
}

func (r Role) subject() string {
	switch r {
	case RoleSuper:
		return "role:super"
	case RoleAdmin:
		return "role:admin"
	case RoleSupplier:
		return "role:supplier"
	default:
		return ""
	}
}
