// Copyright (c) 2026 Atithi. All rights reserved.
// Author: dev@atithi.app

package sec

// # User Roles

// UserRole represents the coarse authorization tier granted to an account.
type UserRole string

const (
	// Unrestricted system access
	RoleAdmin UserRole = "admin"

	// Staff role that can hold delegated country/location access grants
	RoleSecretariat UserRole = "secretariat"

	// Front-desk role for attendee check-ins; no delegated access
	RoleUsher UserRole = "usher"

	// Default role for standard registered users (appointment requesters)
	RoleGeneral UserRole = "general"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// LessThan checks if the current role ranks strictly below the target role.
func (r UserRole) LessThan(target UserRole) bool {
	return r.level() < target.level()
}

// IsAdminRole reports whether the role belongs to the staff tier eligible to
// hold delegated access grants (ADMIN and SECRETARIAT).
func (r UserRole) IsAdminRole() bool {
	return r == RoleAdmin || r == RoleSecretariat
}

// IsGeneralRole reports whether the role is the unprivileged end-user tier
// with no admin-surface access at all.
func (r UserRole) IsGeneralRole() bool {
	return r == RoleGeneral
}

// IsValid reports whether the string maps to a known role.
func (r UserRole) IsValid() bool {
	return r.level() > 0
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale (10-40) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 40
	case RoleSecretariat:
		return 30
	case RoleUsher:
		return 20
	case RoleGeneral:
		return 10
	default:
		return 0
	}
}
