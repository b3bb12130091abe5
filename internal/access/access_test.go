// Copyright (c) 2026 Atithi. All rights reserved.
// Author: dev@atithi.app

package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atithi/atithi/internal/access"
)

/*
TestLevel_HigherOrEqual verifies the required-level expansion used to build
IN-clause filters.
*/
func TestLevel_HigherOrEqual(t *testing.T) {
	tests := []struct {
		level    access.Level
		expected []access.Level
	}{
		{access.LevelRead, []access.Level{access.LevelRead, access.LevelReadWrite, access.LevelAdmin}},
		{access.LevelReadWrite, []access.Level{access.LevelReadWrite, access.LevelAdmin}},
		{access.LevelAdmin, []access.Level{access.LevelAdmin}},
		{access.Level("bogus"), nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.HigherOrEqual())
		})
	}
}

/*
TestEntityType_Coverage verifies the resource-class coverage rules.
*/
func TestEntityType_Coverage(t *testing.T) {
	assert.True(t, access.EntityAppointment.CoversAppointments())
	assert.False(t, access.EntityAppointment.CoversDignitaries())

	assert.True(t, access.EntityAppointmentAndDignitary.CoversAppointments())
	assert.True(t, access.EntityAppointmentAndDignitary.CoversDignitaries())

	assert.False(t, access.EntityType("user").IsValid())
}

/*
TestScope_IsEmpty verifies deny-all-by-construction for empty scopes.
*/
func TestScope_IsEmpty(t *testing.T) {
	assert.True(t, access.Scope{}.IsEmpty())
	assert.False(t, access.Scope{All: true}.IsEmpty())
	assert.False(t, access.Scope{Countries: []string{"US"}}.IsEmpty())
	assert.False(t, access.Scope{LocationIDs: []int{1}}.IsEmpty())

	assert.True(t, access.DignitaryScope{}.IsEmpty())
	assert.False(t, access.DignitaryScope{Countries: []string{"US"}}.IsEmpty())
	assert.False(t, access.DignitaryScope{Recent: access.Scope{LocationIDs: []int{1}}}.IsEmpty())
}
