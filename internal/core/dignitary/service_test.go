package dignitary_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atithi/atithi/internal/access"
	"github.com/atithi/atithi/internal/core/dignitary"
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

// fakeRecency answers the derived-access question from a fixed set of
// dignitary IDs with recent appointments.
type fakeRecency struct {
	recentDignitaries map[int]bool
}

func (store *fakeRecency) HasRecentAppointment(_ context.Context, dignitaryID int, _ time.Time, scope access.Scope) (bool, error) {
	if scope.IsEmpty() {
		return false, nil
	}
	return store.recentDignitaries[dignitaryID], nil
}

type fakeRepo struct {
	dignitaries []*dignitary.Dignitary
	nextID      int
	lastScope   *access.DignitaryScope
}

func (repo *fakeRepo) ListDignitaries(_ context.Context, _ dignitary.Filter, scope access.DignitaryScope, _, _ int) ([]*dignitary.Dignitary, int, error) {
	repo.lastScope = &scope
	if scope.IsEmpty() {
		return nil, 0, nil
	}

	var visible []*dignitary.Dignitary
	for _, d := range repo.dignitaries {
		if scope.All || containsCountry(scope.Countries, d.CountryCode) {
			visible = append(visible, d)
		}
	}
	return visible, len(visible), nil
}

func containsCountry(haystack []string, needle string) bool {
	for _, candidate := range haystack {
		if candidate == needle {
			return true
		}
	}
	return false
}

func (repo *fakeRepo) GetDignitary(_ context.Context, id int) (*dignitary.Dignitary, error) {
	for _, d := range repo.dignitaries {
		if d.ID == id {
			copied := *d
			return &copied, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (repo *fakeRepo) CreateDignitary(_ context.Context, d *dignitary.Dignitary) error {
	repo.nextID++
	d.ID = repo.nextID
	repo.dignitaries = append(repo.dignitaries, d)
	return nil
}

func (repo *fakeRepo) UpdateDignitary(_ context.Context, d *dignitary.Dignitary) error {
	for i, existing := range repo.dignitaries {
		if existing.ID == d.ID {
			repo.dignitaries[i] = d
			return nil
		}
	}
	return dberr.ErrNotFound
}

func (repo *fakeRepo) DeleteDignitary(_ context.Context, id int) error {
	for i, existing := range repo.dignitaries {
		if existing.ID == id {
			repo.dignitaries = append(repo.dignitaries[:i], repo.dignitaries[i+1:]...)
			return nil
		}
	}
	return dberr.ErrNotFound
}

// # Fixtures

var (
	adminActor       = access.Subject{ID: "user-admin", Role: sec.RoleAdmin}
	secretariatActor = access.Subject{ID: "user-sec", Role: sec.RoleSecretariat}
	usherActor       = access.Subject{ID: "user-usher", Role: sec.RoleUsher}
)

func dignitaryGrant(userID, country string, level access.Level) *access.Grant {
	return &access.Grant{
		UserID:      userID,
		CountryCode: country,
		Level:       level,
		EntityType:  access.EntityAppointmentAndDignitary,
		IsActive:    true,
		Reason:      "regional secretariat coverage",
	}
}

func newDignitaryService(grants []*access.Grant, recent map[int]bool, records []*dignitary.Dignitary) (*dignitary.Service, *fakeRepo) {
	repo := &fakeRepo{dignitaries: records, nextID: len(records)}
	evaluator := access.NewEvaluator(
		&fakeGrants{grants: grants},
		&fakeRecency{recentDignitaries: recent},
		slog.Default(),
	)
	return dignitary.NewService(repo, evaluator, slog.Default()), repo
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

// # Read Path

func TestGetDignitary(t *testing.T) {
	records := []*dignitary.Dignitary{
		{ID: 1, FirstName: "Amara", LastName: "Okafor", CountryCode: "NG"},
		{ID: 2, FirstName: "Lars", LastName: "Nielsen", CountryCode: "DK"},
	}

	t.Run("admin sees any dignitary", func(t *testing.T) {
		service, _ := newDignitaryService(nil, nil, records)

		d, err := service.GetDignitary(context.Background(), adminActor, 1)
		require.NoError(t, err)
		assert.Equal(t, "NG", d.CountryCode)
	})

	t.Run("secretariat with direct country coverage", func(t *testing.T) {
		grants := []*access.Grant{dignitaryGrant(secretariatActor.ID, "NG", access.LevelRead)}
		service, _ := newDignitaryService(grants, nil, records)

		d, err := service.GetDignitary(context.Background(), secretariatActor, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, d.ID)
	})

	t.Run("secretariat without coverage is denied", func(t *testing.T) {
		grants := []*access.Grant{dignitaryGrant(secretariatActor.ID, "NG", access.LevelRead)}
		service, _ := newDignitaryService(grants, nil, records)

		_, err := service.GetDignitary(context.Background(), secretariatActor, 2)
		assertForbidden(t, err)
	})

	t.Run("recent appointment grants derived visibility", func(t *testing.T) {
		grants := []*access.Grant{dignitaryGrant(secretariatActor.ID, "NG", access.LevelRead)}
		service, _ := newDignitaryService(grants, map[int]bool{2: true}, records)

		// Lars is Danish, outside the actor's direct coverage, but visited
		// a Nigerian location recently.
		d, err := service.GetDignitary(context.Background(), secretariatActor, 2)
		require.NoError(t, err)
		assert.Equal(t, "DK", d.CountryCode)
	})

	t.Run("usher role is barred from dignitary records", func(t *testing.T) {
		grants := []*access.Grant{dignitaryGrant(usherActor.ID, "NG", access.LevelRead)}
		service, _ := newDignitaryService(grants, nil, records)

		_, err := service.GetDignitary(context.Background(), usherActor, 1)
		assertForbidden(t, err)
	})

	t.Run("missing record reads as not found, not forbidden", func(t *testing.T) {
		service, _ := newDignitaryService(nil, nil, records)

		_, err := service.GetDignitary(context.Background(), secretariatActor, 99)
		require.Error(t, err)
		appErr := apperr.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, "NOT_FOUND", appErr.Code)
	})
}

func TestListDignitariesScoping(t *testing.T) {
	records := []*dignitary.Dignitary{
		{ID: 1, FirstName: "Amara", LastName: "Okafor", CountryCode: "NG"},
		{ID: 2, FirstName: "Lars", LastName: "Nielsen", CountryCode: "DK"},
	}

	t.Run("admin receives the all-scope", func(t *testing.T) {
		service, repo := newDignitaryService(nil, nil, records)

		visible, total, err := service.ListDignitaries(context.Background(), adminActor, dignitary.Filter{}, 20, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, visible, 2)
		assert.True(t, repo.lastScope.All)
	})

	t.Run("no grants yields empty page without error", func(t *testing.T) {
		service, _ := newDignitaryService(nil, nil, records)

		visible, total, err := service.ListDignitaries(context.Background(), secretariatActor, dignitary.Filter{}, 20, 0)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, visible)
	})

	t.Run("countrywide grant scopes the page", func(t *testing.T) {
		grants := []*access.Grant{dignitaryGrant(secretariatActor.ID, "DK", access.LevelRead)}
		service, repo := newDignitaryService(grants, nil, records)

		visible, _, err := service.ListDignitaries(context.Background(), secretariatActor, dignitary.Filter{}, 20, 0)
		require.NoError(t, err)
		require.Len(t, visible, 1)
		assert.Equal(t, "DK", visible[0].CountryCode)
		assert.Equal(t, []string{"DK"}, repo.lastScope.Countries)
		assert.False(t, repo.lastScope.Since.IsZero())
	})
}

// # Write Path

func TestCreateDignitary(t *testing.T) {
	t.Run("secretariat with read_write coverage creates and stamps creator", func(t *testing.T) {
		grants := []*access.Grant{dignitaryGrant(secretariatActor.ID, "NG", access.LevelReadWrite)}
		service, repo := newDignitaryService(grants, nil, nil)

		input := &dignitary.Dignitary{FirstName: "Amara", LastName: "Okafor", CountryCode: "ng"}
		require.NoError(t, service.CreateDignitary(context.Background(), secretariatActor, input))

		assert.Equal(t, 1, input.ID)
		assert.Equal(t, "NG", input.CountryCode)
		require.NotNil(t, input.CreatedBy)
		assert.Equal(t, secretariatActor.ID, *input.CreatedBy)
		assert.Len(t, repo.dignitaries, 1)
	})

	t.Run("read-level grant cannot create", func(t *testing.T) {
		grants := []*access.Grant{dignitaryGrant(secretariatActor.ID, "NG", access.LevelRead)}
		service, _ := newDignitaryService(grants, nil, nil)

		input := &dignitary.Dignitary{FirstName: "Amara", LastName: "Okafor", CountryCode: "NG"}
		assertForbidden(t, service.CreateDignitary(context.Background(), secretariatActor, input))
	})

	t.Run("validation failures surface before authorization", func(t *testing.T) {
		service, _ := newDignitaryService(nil, nil, nil)

		input := &dignitary.Dignitary{FirstName: "", LastName: "Okafor", CountryCode: "NG"}
		err := service.CreateDignitary(context.Background(), secretariatActor, input)
		require.Error(t, err)
		appErr := apperr.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	})
}

func TestUpdateDignitary(t *testing.T) {
	records := []*dignitary.Dignitary{
		{ID: 1, FirstName: "Amara", LastName: "Okafor", CountryCode: "NG"},
	}

	t.Run("moving a record needs coverage in the target country", func(t *testing.T) {
		grants := []*access.Grant{dignitaryGrant(secretariatActor.ID, "NG", access.LevelReadWrite)}
		service, _ := newDignitaryService(grants, nil, records)

		input := &dignitary.Dignitary{FirstName: "Amara", LastName: "Okafor", CountryCode: "DK"}
		assertForbidden(t, service.UpdateDignitary(context.Background(), secretariatActor, 1, input))
	})

	t.Run("coverage in both countries allows the move", func(t *testing.T) {
		grants := []*access.Grant{
			dignitaryGrant(secretariatActor.ID, "NG", access.LevelReadWrite),
			dignitaryGrant(secretariatActor.ID, "DK", access.LevelReadWrite),
		}
		service, repo := newDignitaryService(grants, nil, records)

		input := &dignitary.Dignitary{FirstName: "Amara", LastName: "Okafor", CountryCode: "DK"}
		require.NoError(t, service.UpdateDignitary(context.Background(), secretariatActor, 1, input))
		assert.Equal(t, "DK", repo.dignitaries[0].CountryCode)
	})

	t.Run("empty country keeps the current one", func(t *testing.T) {
		grants := []*access.Grant{dignitaryGrant(secretariatActor.ID, "NG", access.LevelReadWrite)}
		service, repo := newDignitaryService(grants, nil, []*dignitary.Dignitary{
			{ID: 1, FirstName: "Amara", LastName: "Okafor", CountryCode: "NG"},
		})

		input := &dignitary.Dignitary{FirstName: "Amara", LastName: "Adeyemi"}
		require.NoError(t, service.UpdateDignitary(context.Background(), secretariatActor, 1, input))
		assert.Equal(t, "NG", repo.dignitaries[0].CountryCode)
		assert.Equal(t, "Adeyemi", repo.dignitaries[0].LastName)
	})
}

func TestDeleteDignitary(t *testing.T) {
	t.Run("requires admin-level coverage, not just read_write", func(t *testing.T) {
		records := []*dignitary.Dignitary{
			{ID: 1, FirstName: "Amara", LastName: "Okafor", CountryCode: "NG"},
		}
		grants := []*access.Grant{dignitaryGrant(secretariatActor.ID, "NG", access.LevelReadWrite)}
		service, _ := newDignitaryService(grants, nil, records)

		assertForbidden(t, service.DeleteDignitary(context.Background(), secretariatActor, 1))
	})

	t.Run("admin-level coverage deletes", func(t *testing.T) {
		records := []*dignitary.Dignitary{
			{ID: 1, FirstName: "Amara", LastName: "Okafor", CountryCode: "NG"},
		}
		grants := []*access.Grant{dignitaryGrant(secretariatActor.ID, "NG", access.LevelAdmin)}
		service, repo := newDignitaryService(grants, nil, records)

		require.NoError(t, service.DeleteDignitary(context.Background(), secretariatActor, 1))
		assert.Empty(t, repo.dignitaries)
	})
}
