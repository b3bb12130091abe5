// Copyright (c) 2026 Atithi. All rights reserved.
// Author: dev@atithi.app

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atithi/atithi/internal/platform/sec"
)

/*
TestUserRole_AtLeast verifies the total order GENERAL < USHER < SECRETARIAT < ADMIN.
*/
func TestUserRole_AtLeast(t *testing.T) {
	tests := []struct {
		name    string
		role    sec.UserRole
		target  sec.UserRole
		atLeast bool
	}{
		{"admin_over_secretariat", sec.RoleAdmin, sec.RoleSecretariat, true},
		{"admin_over_general", sec.RoleAdmin, sec.RoleGeneral, true},
		{"secretariat_under_admin", sec.RoleSecretariat, sec.RoleAdmin, false},
		{"secretariat_over_usher", sec.RoleSecretariat, sec.RoleUsher, true},
		{"usher_under_secretariat", sec.RoleUsher, sec.RoleSecretariat, false},
		{"general_under_usher", sec.RoleGeneral, sec.RoleUsher, false},
		{"same_rank", sec.RoleUsher, sec.RoleUsher, true},
		{"unknown_role_always_below", sec.UserRole("visitor"), sec.RoleGeneral, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.atLeast, tt.role.AtLeast(tt.target))
			assert.Equal(t, !tt.atLeast, tt.role.LessThan(tt.target))
		})
	}
}

/*
TestUserRole_Tiers verifies the staff/end-user tier classification used by the
access evaluator's role gates.
*/
func TestUserRole_Tiers(t *testing.T) {
	assert.True(t, sec.RoleAdmin.IsAdminRole())
	assert.True(t, sec.RoleSecretariat.IsAdminRole())
	assert.False(t, sec.RoleUsher.IsAdminRole())
	assert.False(t, sec.RoleGeneral.IsAdminRole())

	assert.True(t, sec.RoleGeneral.IsGeneralRole())
	assert.False(t, sec.RoleUsher.IsGeneralRole())
	assert.False(t, sec.RoleAdmin.IsGeneralRole())
}

/*
TestUserRole_IsValid verifies unknown role strings are rejected.
*/
func TestUserRole_IsValid(t *testing.T) {
	assert.True(t, sec.RoleSecretariat.IsValid())
	assert.False(t, sec.UserRole("moderator").IsValid())
	assert.False(t, sec.UserRole("").IsValid())
}
