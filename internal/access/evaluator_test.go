// Copyright (c) 2026 Atithi. All rights reserved.
// Author: dev@atithi.app

package access_test

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atithi/atithi/internal/access"
	"github.com/atithi/atithi/internal/platform/apperr"
	"github.com/atithi/atithi/internal/platform/sec"
)

// # Test Doubles

// fakeGrantStore mimics the Postgres grant query: set-membership filters on
// entity type and level, plus the active/expiry visibility rule.
type fakeGrantStore struct {
	grants []*access.Grant
	err    error
}

func (store *fakeGrantStore) ListEffective(_ context.Context, userID string, entityTypes []access.EntityType, levels []access.Level) ([]*access.Grant, error) {
	if store.err != nil {
		return nil, store.err
	}

	now := time.Now()
	var matched []*access.Grant
	for _, grant := range store.grants {
		if grant.UserID != userID || !grant.IsEffective(now) {
			continue
		}
		if !slices.Contains(entityTypes, grant.EntityType) || !slices.Contains(levels, grant.Level) {
			continue
		}
		matched = append(matched, grant)
	}
	return matched, nil
}

// visit is an appointment-dignitary association visible to fakeRecency.
type visit struct {
	DignitaryID int
	Date        time.Time
	LocationID  int
	CountryCode string
}

type fakeRecency struct {
	visits []visit
	err    error
}

func (recency *fakeRecency) HasRecentAppointment(_ context.Context, dignitaryID int, since time.Time, scope access.Scope) (bool, error) {
	if recency.err != nil {
		return false, recency.err
	}
	if scope.IsEmpty() {
		return false, nil
	}

	for _, v := range recency.visits {
		if v.DignitaryID != dignitaryID || v.Date.Before(since) {
			continue
		}
		if scope.All || slices.Contains(scope.Countries, v.CountryCode) || slices.Contains(scope.LocationIDs, v.LocationID) {
			return true, nil
		}
	}
	return false, nil
}

// # Fixtures

var (
	adminSubject       = access.Subject{ID: "u-admin", Role: sec.RoleAdmin, Email: "admin@atithi.app"}
	secretariatSubject = access.Subject{ID: "u-sec", Role: sec.RoleSecretariat, Email: "sec@atithi.app"}
	usherSubject       = access.Subject{ID: "u-usher", Role: sec.RoleUsher, Email: "usher@atithi.app"}
	generalSubject     = access.Subject{ID: "u-gen", Role: sec.RoleGeneral, Email: "gen@atithi.app"}
)

func newEvaluator(store *fakeGrantStore, recency *fakeRecency) *access.Evaluator {
	if recency == nil {
		recency = &fakeRecency{}
	}
	return access.NewEvaluator(store, recency, slog.Default())
}

func grantFor(userID, country string, locationID *int, level access.Level, entityType access.EntityType) *access.Grant {
	return &access.Grant{
		UserID:      userID,
		CountryCode: country,
		LocationID:  locationID,
		Level:       level,
		EntityType:  entityType,
		IsActive:    true,
		Reason:      "territory assignment",
	}
}

func intPtr(v int) *int { return &v }

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "FORBIDDEN", appError.Code)
}

// daysAgo returns midnight UTC n days before today, matching the DATE
// semantics the evaluator uses for its recency window.
func daysAgo(n int) time.Time {
	year, month, day := time.Now().UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -n)
}

// # Country & Location Checks

func TestCheckCountryAccess_AdminBypass(t *testing.T) {
	evaluator := newEvaluator(&fakeGrantStore{}, nil)

	for _, level := range []access.Level{access.LevelRead, access.LevelReadWrite, access.LevelAdmin} {
		assert.NoError(t, evaluator.CheckCountryAccess(context.Background(), adminSubject, "US", level))
	}
}

func TestCheckCountryAccess_GeneralLockout(t *testing.T) {
	// A matching grant row exists, but the role gate runs before grant lookup.
	store := &fakeGrantStore{grants: []*access.Grant{
		grantFor(generalSubject.ID, "US", nil, access.LevelAdmin, access.EntityAppointmentAndDignitary),
	}}
	evaluator := newEvaluator(store, nil)

	err := evaluator.CheckCountryAccess(context.Background(), generalSubject, "US", access.LevelRead)
	assertForbidden(t, err)
}

func TestCheckCountryAccess_LevelMonotonicity(t *testing.T) {
	tests := []struct {
		name          string
		grantedLevel  access.Level
		requiredLevel access.Level
		allowed       bool
	}{
		{"admin_grant_satisfies_read", access.LevelAdmin, access.LevelRead, true},
		{"admin_grant_satisfies_read_write", access.LevelAdmin, access.LevelReadWrite, true},
		{"admin_grant_satisfies_admin", access.LevelAdmin, access.LevelAdmin, true},
		{"read_grant_satisfies_read", access.LevelRead, access.LevelRead, true},
		{"read_grant_rejects_read_write", access.LevelRead, access.LevelReadWrite, false},
		{"read_grant_rejects_admin", access.LevelRead, access.LevelAdmin, false},
		{"read_write_grant_rejects_admin", access.LevelReadWrite, access.LevelAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeGrantStore{grants: []*access.Grant{
				grantFor(secretariatSubject.ID, "US", nil, tt.grantedLevel, access.EntityAppointment),
			}}
			evaluator := newEvaluator(store, nil)

			err := evaluator.CheckCountryAccess(context.Background(), secretariatSubject, "US", tt.requiredLevel)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assertForbidden(t, err)
			}
		})
	}
}

func TestCheckCountryAccess_LocationScopedGrantNeverSatisfiesCountryCheck(t *testing.T) {
	// Managing a whole country requires a countrywide grant.
	store := &fakeGrantStore{grants: []*access.Grant{
		grantFor(secretariatSubject.ID, "US", intPtr(7), access.LevelAdmin, access.EntityAppointment),
	}}
	evaluator := newEvaluator(store, nil)

	err := evaluator.CheckCountryAccess(context.Background(), secretariatSubject, "US", access.LevelRead)
	assertForbidden(t, err)
}

func TestCheckLocationAccess_Specificity(t *testing.T) {
	tests := []struct {
		name           string
		grantLocation  *int
		grantCountry   string
		targetLocation int
		targetCountry  string
		allowed        bool
	}{
		{"exact_location_match", intPtr(7), "US", 7, "US", true},
		{"different_location_same_country", intPtr(7), "US", 8, "US", false},
		{"countrywide_covers_any_location", nil, "US", 8, "US", true},
		{"countrywide_other_country", nil, "US", 9, "CA", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeGrantStore{grants: []*access.Grant{
				grantFor(secretariatSubject.ID, tt.grantCountry, tt.grantLocation, access.LevelReadWrite, access.EntityAppointment),
			}}
			evaluator := newEvaluator(store, nil)

			err := evaluator.CheckLocationAccess(context.Background(), secretariatSubject, tt.targetCountry, tt.targetLocation, access.LevelRead)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assertForbidden(t, err)
			}
		})
	}
}

func TestCheckCountryAccess_ExpiryBoundary(t *testing.T) {
	today := daysAgo(0)
	yesterday := daysAgo(1)

	tests := []struct {
		name    string
		expiry  *time.Time
		active  bool
		allowed bool
	}{
		{"no_expiry", nil, true, true},
		{"expires_today_still_valid", &today, true, true},
		{"expired_yesterday", &yesterday, true, false},
		{"soft_disabled", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grant := grantFor(secretariatSubject.ID, "US", nil, access.LevelRead, access.EntityAppointment)
			grant.ExpiryDate = tt.expiry
			grant.IsActive = tt.active

			evaluator := newEvaluator(&fakeGrantStore{grants: []*access.Grant{grant}}, nil)
			err := evaluator.CheckCountryAccess(context.Background(), secretariatSubject, "US", access.LevelRead)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assertForbidden(t, err)
			}
		})
	}
}

func TestListAccessibleCountries(t *testing.T) {
	store := &fakeGrantStore{grants: []*access.Grant{
		grantFor(secretariatSubject.ID, "US", nil, access.LevelReadWrite, access.EntityAppointment),
		grantFor(secretariatSubject.ID, "US", intPtr(3), access.LevelReadWrite, access.EntityAppointment),
		grantFor(secretariatSubject.ID, "IN", nil, access.LevelRead, access.EntityAppointmentAndDignitary),
	}}
	evaluator := newEvaluator(store, nil)

	countries, all, err := evaluator.ListAccessibleCountries(context.Background(), secretariatSubject, access.LevelRead)
	require.NoError(t, err)
	assert.False(t, all)
	assert.ElementsMatch(t, []string{"US", "IN"}, countries)

	// READ_WRITE requirement drops the read-only IN grant.
	countries, _, err = evaluator.ListAccessibleCountries(context.Background(), secretariatSubject, access.LevelReadWrite)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"US"}, countries)

	// ADMIN subjects get the "all countries" flag, not an enumerable set.
	_, all, err = evaluator.ListAccessibleCountries(context.Background(), adminSubject, access.LevelRead)
	require.NoError(t, err)
	assert.True(t, all)
}

// # Appointment Authorization

func TestAuthorizeAppointment(t *testing.T) {
	usAppointment := access.AppointmentRef{ID: 100, LocationID: 7, CountryCode: "US"}

	t.Run("admin_bypass", func(t *testing.T) {
		evaluator := newEvaluator(&fakeGrantStore{}, nil)
		assert.NoError(t, evaluator.AuthorizeAppointment(context.Background(), adminSubject, usAppointment, access.LevelAdmin))
	})

	t.Run("general_lockout", func(t *testing.T) {
		evaluator := newEvaluator(&fakeGrantStore{}, nil)
		assertForbidden(t, evaluator.AuthorizeAppointment(context.Background(), generalSubject, usAppointment, access.LevelRead))
	})

	t.Run("usher_may_attempt_but_needs_grants", func(t *testing.T) {
		// Appointment checks allow any non-GENERAL staff role to attempt.
		store := &fakeGrantStore{grants: []*access.Grant{
			grantFor(usherSubject.ID, "US", nil, access.LevelRead, access.EntityAppointment),
		}}
		evaluator := newEvaluator(store, nil)
		assert.NoError(t, evaluator.AuthorizeAppointment(context.Background(), usherSubject, usAppointment, access.LevelRead))
	})

	t.Run("countrywide_grant_covers_location", func(t *testing.T) {
		store := &fakeGrantStore{grants: []*access.Grant{
			grantFor(secretariatSubject.ID, "US", nil, access.LevelReadWrite, access.EntityAppointmentAndDignitary),
		}}
		evaluator := newEvaluator(store, nil)
		assert.NoError(t, evaluator.AuthorizeAppointment(context.Background(), secretariatSubject, usAppointment, access.LevelRead))
	})

	t.Run("location_scoped_grant_wrong_location", func(t *testing.T) {
		store := &fakeGrantStore{grants: []*access.Grant{
			grantFor(secretariatSubject.ID, "US", intPtr(8), access.LevelAdmin, access.EntityAppointment),
		}}
		evaluator := newEvaluator(store, nil)
		assertForbidden(t, evaluator.AuthorizeAppointment(context.Background(), secretariatSubject, usAppointment, access.LevelRead))
	})

	t.Run("insufficient_level", func(t *testing.T) {
		store := &fakeGrantStore{grants: []*access.Grant{
			grantFor(secretariatSubject.ID, "US", nil, access.LevelReadWrite, access.EntityAppointmentAndDignitary),
		}}
		evaluator := newEvaluator(store, nil)
		assertForbidden(t, evaluator.AuthorizeAppointment(context.Background(), secretariatSubject, usAppointment, access.LevelAdmin))
	})
}

// # Dignitary Authorization

func TestAuthorizeDignitary_RoleGate(t *testing.T) {
	dignitary := access.DignitaryRef{ID: 55, CountryCode: "US"}

	// Dignitary access is strictly stricter: only ADMIN and SECRETARIAT may
	// attempt, even when a matching grant row exists.
	store := &fakeGrantStore{grants: []*access.Grant{
		grantFor(usherSubject.ID, "US", nil, access.LevelAdmin, access.EntityAppointmentAndDignitary),
	}}
	evaluator := newEvaluator(store, nil)

	assertForbidden(t, evaluator.AuthorizeDignitary(context.Background(), usherSubject, dignitary, access.LevelRead))
	assertForbidden(t, evaluator.AuthorizeDignitary(context.Background(), generalSubject, dignitary, access.LevelRead))
	assert.NoError(t, evaluator.AuthorizeDignitary(context.Background(), adminSubject, dignitary, access.LevelAdmin))
}

func TestAuthorizeDignitary_EntityTypeSeparation(t *testing.T) {
	// A plain APPOINTMENT grant never satisfies a dignitary check, regardless
	// of access level.
	store := &fakeGrantStore{grants: []*access.Grant{
		grantFor(secretariatSubject.ID, "US", nil, access.LevelAdmin, access.EntityAppointment),
	}}
	evaluator := newEvaluator(store, nil)

	err := evaluator.AuthorizeDignitary(context.Background(), secretariatSubject,
		access.DignitaryRef{ID: 55, CountryCode: "US"}, access.LevelRead)
	assertForbidden(t, err)
}

func TestAuthorizeDignitary_DirectCountryPath(t *testing.T) {
	store := &fakeGrantStore{grants: []*access.Grant{
		grantFor(secretariatSubject.ID, "US", nil, access.LevelReadWrite, access.EntityAppointmentAndDignitary),
	}}
	evaluator := newEvaluator(store, &fakeRecency{})

	assert.NoError(t, evaluator.AuthorizeDignitary(context.Background(), secretariatSubject,
		access.DignitaryRef{ID: 55, CountryCode: "US"}, access.LevelRead))

	// Home country outside the grant set, no recent visits: denied.
	assertForbidden(t, evaluator.AuthorizeDignitary(context.Background(), secretariatSubject,
		access.DignitaryRef{ID: 56, CountryCode: "CA"}, access.LevelRead))
}

func TestAuthorizeDignitary_DerivedRecencyPath(t *testing.T) {
	// Canadian dignitary, subject only covers US.
	dignitary := access.DignitaryRef{ID: 56, CountryCode: "CA"}
	grants := []*access.Grant{
		grantFor(secretariatSubject.ID, "US", nil, access.LevelReadWrite, access.EntityAppointmentAndDignitary),
	}

	tests := []struct {
		name     string
		visitAge int
		allowed  bool
	}{
		{"visit_45_days_ago", 45, true},
		{"visit_89_days_ago", 89, true},
		{"visit_90_days_ago_inclusive_boundary", 90, true},
		{"visit_91_days_ago", 91, false},
		{"visit_120_days_ago", 120, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recency := &fakeRecency{visits: []visit{
				{DignitaryID: 56, Date: daysAgo(tt.visitAge), LocationID: 7, CountryCode: "US"},
			}}
			evaluator := newEvaluator(&fakeGrantStore{grants: grants}, recency)

			err := evaluator.AuthorizeDignitary(context.Background(), secretariatSubject, dignitary, access.LevelRead)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assertForbidden(t, err)
			}
		})
	}
}

func TestAuthorizeDignitary_DerivedPathRespectsGrantScope(t *testing.T) {
	// Recent visit exists, but at a location outside the subject's scope.
	dignitary := access.DignitaryRef{ID: 56, CountryCode: "CA"}
	store := &fakeGrantStore{grants: []*access.Grant{
		grantFor(secretariatSubject.ID, "US", intPtr(7), access.LevelReadWrite, access.EntityAppointmentAndDignitary),
	}}
	recency := &fakeRecency{visits: []visit{
		{DignitaryID: 56, Date: daysAgo(10), LocationID: 8, CountryCode: "US"},
	}}
	evaluator := newEvaluator(store, recency)

	assertForbidden(t, evaluator.AuthorizeDignitary(context.Background(), secretariatSubject, dignitary, access.LevelRead))

	// Same visit at the granted location is reachable.
	recency.visits[0].LocationID = 7
	assert.NoError(t, evaluator.AuthorizeDignitary(context.Background(), secretariatSubject, dignitary, access.LevelRead))
}

// # Collection Scopes

func TestAppointmentScope(t *testing.T) {
	t.Run("admin_gets_all", func(t *testing.T) {
		evaluator := newEvaluator(&fakeGrantStore{}, nil)
		scope, err := evaluator.AppointmentScope(context.Background(), adminSubject, access.LevelRead)
		require.NoError(t, err)
		assert.True(t, scope.All)
	})

	t.Run("zero_grants_deny_all_by_construction", func(t *testing.T) {
		evaluator := newEvaluator(&fakeGrantStore{}, nil)
		scope, err := evaluator.AppointmentScope(context.Background(), secretariatSubject, access.LevelRead)
		require.NoError(t, err)
		assert.True(t, scope.IsEmpty())
	})

	t.Run("grants_fold_into_disjunctive_filter", func(t *testing.T) {
		store := &fakeGrantStore{grants: []*access.Grant{
			grantFor(secretariatSubject.ID, "US", nil, access.LevelRead, access.EntityAppointment),
			grantFor(secretariatSubject.ID, "IN", intPtr(12), access.LevelRead, access.EntityAppointment),
		}}
		evaluator := newEvaluator(store, nil)

		scope, err := evaluator.AppointmentScope(context.Background(), secretariatSubject, access.LevelRead)
		require.NoError(t, err)
		assert.False(t, scope.All)
		assert.Equal(t, []string{"US"}, scope.Countries)
		assert.Equal(t, []int{12}, scope.LocationIDs)
	})

	t.Run("general_gets_empty_scope", func(t *testing.T) {
		evaluator := newEvaluator(&fakeGrantStore{}, nil)
		scope, err := evaluator.AppointmentScope(context.Background(), generalSubject, access.LevelRead)
		require.NoError(t, err)
		assert.True(t, scope.IsEmpty())
	})
}

func TestDignitaryScope(t *testing.T) {
	t.Run("usher_denied_entirely", func(t *testing.T) {
		store := &fakeGrantStore{grants: []*access.Grant{
			grantFor(usherSubject.ID, "US", nil, access.LevelAdmin, access.EntityAppointmentAndDignitary),
		}}
		evaluator := newEvaluator(store, nil)

		scope, err := evaluator.DignitaryScope(context.Background(), usherSubject, access.LevelRead)
		require.NoError(t, err)
		assert.True(t, scope.IsEmpty())
	})

	t.Run("countrywide_and_location_grants", func(t *testing.T) {
		store := &fakeGrantStore{grants: []*access.Grant{
			grantFor(secretariatSubject.ID, "US", nil, access.LevelRead, access.EntityAppointmentAndDignitary),
			grantFor(secretariatSubject.ID, "IN", intPtr(12), access.LevelRead, access.EntityAppointmentAndDignitary),
		}}
		evaluator := newEvaluator(store, nil)

		scope, err := evaluator.DignitaryScope(context.Background(), secretariatSubject, access.LevelRead)
		require.NoError(t, err)
		assert.False(t, scope.All)
		assert.Equal(t, []string{"US"}, scope.Countries)
		assert.Equal(t, []string{"US"}, scope.Recent.Countries)
		assert.Equal(t, []int{12}, scope.Recent.LocationIDs)
		assert.False(t, scope.Since.IsZero())
	})
}

// # Soft Checks

func TestCheckAppointmentForLevel(t *testing.T) {
	ref := access.AppointmentRef{ID: 100, LocationID: 7, CountryCode: "US"}

	t.Run("allowed", func(t *testing.T) {
		store := &fakeGrantStore{grants: []*access.Grant{
			grantFor(secretariatSubject.ID, "US", nil, access.LevelRead, access.EntityAppointment),
		}}
		evaluator := newEvaluator(store, nil)
		assert.True(t, evaluator.CheckAppointmentForLevel(context.Background(), secretariatSubject, ref, access.LevelRead))
	})

	t.Run("forbidden_becomes_false", func(t *testing.T) {
		evaluator := newEvaluator(&fakeGrantStore{}, nil)
		assert.False(t, evaluator.CheckAppointmentForLevel(context.Background(), secretariatSubject, ref, access.LevelRead))
	})

	t.Run("storage_failure_is_conservative_deny", func(t *testing.T) {
		evaluator := newEvaluator(&fakeGrantStore{err: errors.New("connection refused")}, nil)
		assert.False(t, evaluator.CheckAppointmentForLevel(context.Background(), secretariatSubject, ref, access.LevelRead))
	})
}

// # Example Scenario (end-to-end over the fixture from the product docs)

func TestScenario_SecretariatWithUSReadWriteGrant(t *testing.T) {
	// Subject S: one active grant US / countrywide / READ_WRITE / appointment_and_dignitary.
	store := &fakeGrantStore{grants: []*access.Grant{
		grantFor(secretariatSubject.ID, "US", nil, access.LevelReadWrite, access.EntityAppointmentAndDignitary),
	}}
	evaluator := newEvaluator(store, &fakeRecency{})
	usAppointment := access.AppointmentRef{ID: 1, LocationID: 4, CountryCode: "US"}
	canadianDignitary := access.DignitaryRef{ID: 2, CountryCode: "CA"}

	// READ requirement on a US appointment: allowed.
	assert.NoError(t, evaluator.AuthorizeAppointment(context.Background(), secretariatSubject, usAppointment, access.LevelRead))

	// ADMIN requirement: READ_WRITE does not cover it.
	assertForbidden(t, evaluator.AuthorizeAppointment(context.Background(), secretariatSubject, usAppointment, access.LevelAdmin))

	// Canadian dignitary without recent US appointments: denied.
	assertForbidden(t, evaluator.AuthorizeDignitary(context.Background(), secretariatSubject, canadianDignitary, access.LevelRead))
}
