package appointment_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atithi/atithi/internal/access"
	"github.com/atithi/atithi/internal/core/appointment"
	"github.com/atithi/atithi/internal/platform/apperr"
	"github.com/atithi/atithi/internal/platform/dberr"
	"github.com/atithi/atithi/internal/platform/sec"
)

// # Test Doubles

type fakeGrants struct {
	grants []*access.Grant
}

func (store *fakeGrants) ListEffective(_ context.Context, userID string, entityTypes []access.EntityType, levels []access.Level) ([]*access.Grant, error) {
	var result []*access.Grant
	for _, grant := range store.grants {
		if grant.UserID != userID || !grant.IsEffective(time.Now()) {
			continue
		}
		if !containsEntityType(entityTypes, grant.EntityType) || !containsLevel(levels, grant.Level) {
			continue
		}
		result = append(result, grant)
	}
	return result, nil
}

func containsEntityType(haystack []access.EntityType, needle access.EntityType) bool {
	for _, candidate := range haystack {
		if candidate == needle {
			return true
		}
	}
	return false
}

func containsLevel(haystack []access.Level, needle access.Level) bool {
	for _, candidate := range haystack {
		if candidate == needle {
			return true
		}
	}
	return false
}

type fakeRecency struct{}

func (fakeRecency) HasRecentAppointment(context.Context, int, time.Time, access.Scope) (bool, error) {
	return false, nil
}

// fakeLocations maps location IDs to country codes.
type fakeLocations struct {
	countries map[int]string
}

func (resolver *fakeLocations) CountryOf(_ context.Context, locationID int) (string, error) {
	countryCode, ok := resolver.countries[locationID]
	if !ok {
		return "", dberr.ErrNotFound
	}
	return countryCode, nil
}

type fakeRepo struct {
	appointments []*appointment.Appointment
	attachments  map[int][]int
	nextID       int
	lastScope    *access.Scope
}

func (repo *fakeRepo) ListAppointments(_ context.Context, f appointment.Filter, scope access.Scope, _, _ int) ([]*appointment.Appointment, int, error) {
	repo.lastScope = &scope
	if scope.IsEmpty() {
		return nil, 0, nil
	}

	var visible []*appointment.Appointment
	for _, a := range repo.appointments {
		if !scope.All && !scopeCovers(scope, a) {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		visible = append(visible, a)
	}
	return visible, len(visible), nil
}

func scopeCovers(scope access.Scope, a *appointment.Appointment) bool {
	for _, countryCode := range scope.Countries {
		if countryCode == a.CountryCode {
			return true
		}
	}
	for _, locationID := range scope.LocationIDs {
		if locationID == a.LocationID {
			return true
		}
	}
	return false
}

func (repo *fakeRepo) ListByRequester(_ context.Context, requesterID string, _, _ int) ([]*appointment.Appointment, int, error) {
	var result []*appointment.Appointment
	for _, a := range repo.appointments {
		if a.RequesterID == requesterID {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

func (repo *fakeRepo) GetAppointment(_ context.Context, id int) (*appointment.Appointment, error) {
	for _, a := range repo.appointments {
		if a.ID == id {
			copied := *a
			copied.DignitaryIDs = repo.attachments[id]
			return &copied, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (repo *fakeRepo) CreateAppointment(_ context.Context, a *appointment.Appointment) error {
	repo.nextID++
	a.ID = repo.nextID
	repo.appointments = append(repo.appointments, a)
	return nil
}

func (repo *fakeRepo) UpdateAppointment(_ context.Context, a *appointment.Appointment) error {
	for i, existing := range repo.appointments {
		if existing.ID == a.ID {
			repo.appointments[i] = a
			return nil
		}
	}
	return dberr.ErrNotFound
}

func (repo *fakeRepo) DeleteAppointment(_ context.Context, id int) error {
	for i, existing := range repo.appointments {
		if existing.ID == id {
			repo.appointments = append(repo.appointments[:i], repo.appointments[i+1:]...)
			return nil
		}
	}
	return dberr.ErrNotFound
}

func (repo *fakeRepo) SetDignitaries(_ context.Context, appointmentID int, dignitaryIDs []int) error {
	if repo.attachments == nil {
		repo.attachments = make(map[int][]int)
	}
	repo.attachments[appointmentID] = dignitaryIDs
	return nil
}

// # Fixtures

var (
	adminActor  = access.Subject{ID: "user-admin", Role: sec.RoleAdmin}
	usherActor  = access.Subject{ID: "user-usher", Role: sec.RoleUsher}
	visitorA    = access.Subject{ID: "user-visitor-a", Role: sec.RoleGeneral}
	visitorB    = access.Subject{ID: "user-visitor-b", Role: sec.RoleGeneral}
	demoCountry = map[int]string{10: "US", 20: "CA"}
)

func appointmentGrant(userID, country string, locationID *int, level access.Level) *access.Grant {
	return &access.Grant{
		UserID:      userID,
		CountryCode: country,
		LocationID:  locationID,
		Level:       level,
		EntityType:  access.EntityAppointment,
		IsActive:    true,
		Reason:      "usher duty roster",
	}
}

func newAppointmentService(grants []*access.Grant, records []*appointment.Appointment) (*appointment.Service, *fakeRepo) {
	repo := &fakeRepo{appointments: records, nextID: len(records)}
	evaluator := access.NewEvaluator(&fakeGrants{grants: grants}, fakeRecency{}, slog.Default())
	locations := &fakeLocations{countries: demoCountry}
	return appointment.NewService(repo, locations, evaluator, slog.Default()), repo
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

// # Self-Service Surface

func TestCreateAppointment(t *testing.T) {
	t.Run("any signed-in user files their own request", func(t *testing.T) {
		service, repo := newAppointmentService(nil, nil)

		input := &appointment.Appointment{LocationID: 10, Purpose: "Courtesy visit"}
		require.NoError(t, service.CreateAppointment(context.Background(), visitorA, input))

		assert.Equal(t, visitorA.ID, input.RequesterID)
		assert.Equal(t, appointment.StatusPending, input.Status)
		assert.Equal(t, "US", input.CountryCode)
		require.NotNil(t, input.CreatedBy)
		assert.Equal(t, visitorA.ID, *input.CreatedBy)
		assert.Len(t, repo.appointments, 1)
	})

	t.Run("requester field in the payload is ignored", func(t *testing.T) {
		service, _ := newAppointmentService(nil, nil)

		input := &appointment.Appointment{RequesterID: "someone-else", LocationID: 10, Purpose: "Courtesy visit"}
		require.NoError(t, service.CreateAppointment(context.Background(), visitorA, input))
		assert.Equal(t, visitorA.ID, input.RequesterID)
	})

	t.Run("unknown location is rejected", func(t *testing.T) {
		service, _ := newAppointmentService(nil, nil)

		input := &appointment.Appointment{LocationID: 999, Purpose: "Courtesy visit"}
		err := service.CreateAppointment(context.Background(), visitorA, input)
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})

	t.Run("missing purpose is a validation error", func(t *testing.T) {
		service, _ := newAppointmentService(nil, nil)

		input := &appointment.Appointment{LocationID: 10}
		err := service.CreateAppointment(context.Background(), visitorA, input)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})
}

func TestSelfServiceVisibility(t *testing.T) {
	records := []*appointment.Appointment{
		{ID: 1, RequesterID: visitorA.ID, LocationID: 10, CountryCode: "US", Purpose: "Courtesy visit", Status: appointment.StatusPending},
		{ID: 2, RequesterID: visitorB.ID, LocationID: 10, CountryCode: "US", Purpose: "Trade delegation", Status: "approved"},
	}

	t.Run("requester sees their own appointment", func(t *testing.T) {
		service, _ := newAppointmentService(nil, records)

		a, err := service.GetAppointment(context.Background(), visitorA, 1)
		require.NoError(t, err)
		assert.Equal(t, visitorA.ID, a.RequesterID)
	})

	t.Run("general user cannot see someone else's appointment", func(t *testing.T) {
		service, _ := newAppointmentService(nil, records)

		_, err := service.GetAppointment(context.Background(), visitorA, 2)
		assertForbidden(t, err)
	})

	t.Run("own list is never scope-filtered", func(t *testing.T) {
		service, _ := newAppointmentService(nil, records)

		own, total, err := service.ListOwnAppointments(context.Background(), visitorB, 20, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, "Trade delegation", own[0].Purpose)
	})
}

func TestSelfServiceEditing(t *testing.T) {
	t.Run("requester edits own pending request", func(t *testing.T) {
		records := []*appointment.Appointment{
			{ID: 1, RequesterID: visitorA.ID, LocationID: 10, CountryCode: "US", Purpose: "Courtesy visit", Status: appointment.StatusPending},
		}
		service, repo := newAppointmentService(nil, records)

		input := &appointment.Appointment{LocationID: 10, Purpose: "Courtesy visit, rescheduled"}
		require.NoError(t, service.UpdateAppointment(context.Background(), visitorA, 1, input))
		assert.Equal(t, "Courtesy visit, rescheduled", repo.appointments[0].Purpose)
	})

	t.Run("requester cannot change status", func(t *testing.T) {
		records := []*appointment.Appointment{
			{ID: 1, RequesterID: visitorA.ID, LocationID: 10, CountryCode: "US", Purpose: "Courtesy visit", Status: appointment.StatusPending},
		}
		service, repo := newAppointmentService(nil, records)

		input := &appointment.Appointment{LocationID: 10, Purpose: "Courtesy visit", Status: "approved"}
		require.NoError(t, service.UpdateAppointment(context.Background(), visitorA, 1, input))
		assert.Equal(t, appointment.StatusPending, repo.appointments[0].Status)
	})

	t.Run("non-pending request is locked for the requester", func(t *testing.T) {
		records := []*appointment.Appointment{
			{ID: 1, RequesterID: visitorA.ID, LocationID: 10, CountryCode: "US", Purpose: "Courtesy visit", Status: "approved"},
		}
		service, _ := newAppointmentService(nil, records)

		input := &appointment.Appointment{LocationID: 10, Purpose: "Changed my mind"}
		assertForbidden(t, service.UpdateAppointment(context.Background(), visitorA, 1, input))
	})
}

// # Staff Surface

func TestStaffAccess(t *testing.T) {
	records := []*appointment.Appointment{
		{ID: 1, RequesterID: visitorA.ID, LocationID: 10, CountryCode: "US", Purpose: "Courtesy visit", Status: appointment.StatusPending},
		{ID: 2, RequesterID: visitorB.ID, LocationID: 20, CountryCode: "CA", Purpose: "Trade delegation", Status: appointment.StatusPending},
	}

	t.Run("usher with countrywide grant reads in-country appointments", func(t *testing.T) {
		grants := []*access.Grant{appointmentGrant(usherActor.ID, "US", nil, access.LevelRead)}
		service, _ := newAppointmentService(grants, records)

		a, err := service.GetAppointment(context.Background(), usherActor, 1)
		require.NoError(t, err)
		assert.Equal(t, "US", a.CountryCode)

		_, err = service.GetAppointment(context.Background(), usherActor, 2)
		assertForbidden(t, err)
	})

	t.Run("location-scoped grant reaches only that location", func(t *testing.T) {
		locationID := 20
		grants := []*access.Grant{appointmentGrant(usherActor.ID, "CA", &locationID, access.LevelRead)}
		service, _ := newAppointmentService(grants, records)

		_, err := service.GetAppointment(context.Background(), usherActor, 2)
		require.NoError(t, err)

		_, err = service.GetAppointment(context.Background(), usherActor, 1)
		assertForbidden(t, err)
	})

	t.Run("staff list is scope-filtered", func(t *testing.T) {
		grants := []*access.Grant{appointmentGrant(usherActor.ID, "US", nil, access.LevelRead)}
		service, repo := newAppointmentService(grants, records)

		visible, total, err := service.ListAppointments(context.Background(), usherActor, appointment.Filter{}, 20, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, "US", visible[0].CountryCode)
		assert.Equal(t, []string{"US"}, repo.lastScope.Countries)
	})

	t.Run("usher with no grants gets an empty list, not an error", func(t *testing.T) {
		service, _ := newAppointmentService(nil, records)

		visible, total, err := service.ListAppointments(context.Background(), usherActor, appointment.Filter{}, 20, 0)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, visible)
	})

	t.Run("read grant cannot update", func(t *testing.T) {
		grants := []*access.Grant{appointmentGrant(usherActor.ID, "US", nil, access.LevelRead)}
		service, _ := newAppointmentService(grants, records)

		input := &appointment.Appointment{LocationID: 10, Purpose: "Courtesy visit", Status: "approved"}
		assertForbidden(t, service.UpdateAppointment(context.Background(), usherActor, 1, input))
	})

	t.Run("read_write grant drives the workflow", func(t *testing.T) {
		grants := []*access.Grant{appointmentGrant(usherActor.ID, "US", nil, access.LevelReadWrite)}
		records := []*appointment.Appointment{
			{ID: 1, RequesterID: visitorA.ID, LocationID: 10, CountryCode: "US", Purpose: "Courtesy visit", Status: appointment.StatusPending},
		}
		service, repo := newAppointmentService(grants, records)

		input := &appointment.Appointment{LocationID: 10, Purpose: "Courtesy visit", Status: "approved"}
		require.NoError(t, service.UpdateAppointment(context.Background(), usherActor, 1, input))
		assert.Equal(t, "approved", repo.appointments[0].Status)
		require.NotNil(t, repo.appointments[0].UpdatedBy)
		assert.Equal(t, usherActor.ID, *repo.appointments[0].UpdatedBy)
	})

	t.Run("moving to a location outside coverage is rejected", func(t *testing.T) {
		grants := []*access.Grant{appointmentGrant(usherActor.ID, "US", nil, access.LevelReadWrite)}
		records := []*appointment.Appointment{
			{ID: 1, RequesterID: visitorA.ID, LocationID: 10, CountryCode: "US", Purpose: "Courtesy visit", Status: appointment.StatusPending},
		}
		service, _ := newAppointmentService(grants, records)

		input := &appointment.Appointment{LocationID: 20, Purpose: "Courtesy visit", Status: appointment.StatusPending}
		assertForbidden(t, service.UpdateAppointment(context.Background(), usherActor, 1, input))
	})

	t.Run("delete needs admin-level coverage", func(t *testing.T) {
		records := []*appointment.Appointment{
			{ID: 1, RequesterID: visitorA.ID, LocationID: 10, CountryCode: "US", Purpose: "Courtesy visit", Status: appointment.StatusPending},
		}
		grants := []*access.Grant{appointmentGrant(usherActor.ID, "US", nil, access.LevelReadWrite)}
		service, _ := newAppointmentService(grants, records)

		assertForbidden(t, service.DeleteAppointment(context.Background(), usherActor, 1))

		adminGrants := []*access.Grant{appointmentGrant(usherActor.ID, "US", nil, access.LevelAdmin)}
		service, repo := newAppointmentService(adminGrants, records)
		require.NoError(t, service.DeleteAppointment(context.Background(), usherActor, 1))
		assert.Empty(t, repo.appointments)
	})
}

func TestPermissions(t *testing.T) {
	pending := &appointment.Appointment{ID: 1, RequesterID: visitorA.ID, LocationID: 10, CountryCode: "US", Status: appointment.StatusPending}
	approved := &appointment.Appointment{ID: 2, RequesterID: visitorA.ID, LocationID: 10, CountryCode: "US", Status: "approved"}

	t.Run("requester can edit only while pending", func(t *testing.T) {
		service, _ := newAppointmentService(nil, nil)

		assert.Equal(t, appointment.Permissions{CanEdit: true}, service.PermissionsFor(context.Background(), visitorA, pending))
		assert.Equal(t, appointment.Permissions{}, service.PermissionsFor(context.Background(), visitorA, approved))
	})

	t.Run("admin gets full flags", func(t *testing.T) {
		service, _ := newAppointmentService(nil, nil)

		flags := service.PermissionsFor(context.Background(), adminActor, pending)
		assert.True(t, flags.CanEdit)
		assert.True(t, flags.CanDelete)
	})

	t.Run("read_write staff can edit but not delete", func(t *testing.T) {
		grants := []*access.Grant{appointmentGrant(usherActor.ID, "US", nil, access.LevelReadWrite)}
		service, _ := newAppointmentService(grants, nil)

		flags := service.PermissionsFor(context.Background(), usherActor, pending)
		assert.True(t, flags.CanEdit)
		assert.False(t, flags.CanDelete)
	})
}

func TestSetDignitaries(t *testing.T) {
	t.Run("requester attaches dignitaries to own pending request", func(t *testing.T) {
		records := []*appointment.Appointment{
			{ID: 1, RequesterID: visitorA.ID, LocationID: 10, CountryCode: "US", Purpose: "Courtesy visit", Status: appointment.StatusPending},
		}
		service, repo := newAppointmentService(nil, records)

		require.NoError(t, service.SetDignitaries(context.Background(), visitorA, 1, []int{5, 7}))
		assert.Equal(t, []int{5, 7}, repo.attachments[1])
	})

	t.Run("other general users cannot touch the attachments", func(t *testing.T) {
		records := []*appointment.Appointment{
			{ID: 1, RequesterID: visitorA.ID, LocationID: 10, CountryCode: "US", Purpose: "Courtesy visit", Status: appointment.StatusPending},
		}
		service, _ := newAppointmentService(nil, records)

		assertForbidden(t, service.SetDignitaries(context.Background(), visitorB, 1, []int{5}))
	})

	t.Run("staff with read_write coverage manages attachments", func(t *testing.T) {
		records := []*appointment.Appointment{
			{ID: 1, RequesterID: visitorA.ID, LocationID: 10, CountryCode: "US", Purpose: "Courtesy visit", Status: "approved"},
		}
		grants := []*access.Grant{appointmentGrant(usherActor.ID, "US", nil, access.LevelReadWrite)}
		service, repo := newAppointmentService(grants, records)

		require.NoError(t, service.SetDignitaries(context.Background(), usherActor, 1, []int{5}))
		assert.Equal(t, []int{5}, repo.attachments[1])
	})
}
