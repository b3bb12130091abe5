// Copyright (c) 2026 Atithi. All rights reserved.
// Author: dev@atithi.app

package access_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atithi/atithi/internal/access"
	"github.com/atithi/atithi/internal/platform/apperr"
	"github.com/atithi/atithi/internal/platform/dberr"
)

// # Test Doubles

// fakeRepository is an in-memory [access.Repository].
type fakeRepository struct {
	fakeGrantStore
	nextID int
}

func (repo *fakeRepository) ListByUser(_ context.Context, userID string) ([]*access.Grant, error) {
	var result []*access.Grant
	for _, grant := range repo.grants {
		if grant.UserID == userID {
			result = append(result, grant)
		}
	}
	return result, nil
}

func (repo *fakeRepository) FindByID(_ context.Context, id int) (*access.Grant, error) {
	for _, grant := range repo.grants {
		if grant.ID == id {
			copied := *grant
			return &copied, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (repo *fakeRepository) Create(_ context.Context, grant *access.Grant) error {
	repo.nextID++
	grant.ID = repo.nextID
	repo.grants = append(repo.grants, grant)
	return nil
}

func (repo *fakeRepository) Update(_ context.Context, grant *access.Grant) error {
	for i, existing := range repo.grants {
		if existing.ID == grant.ID {
			repo.grants[i] = grant
			return nil
		}
	}
	return dberr.ErrNotFound
}

func (repo *fakeRepository) Delete(_ context.Context, id int) error {
	for i, existing := range repo.grants {
		if existing.ID == id {
			repo.grants = append(repo.grants[:i], repo.grants[i+1:]...)
			return nil
		}
	}
	return dberr.ErrNotFound
}

// auditEntry captures one recorded audit event for assertions.
type auditEntry struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Before     any
}

type fakeAudit struct {
	entries []auditEntry
}

func (audit *fakeAudit) Record(_ context.Context, actorID, action, entityType, entityID string, before, _ any) error {
	audit.entries = append(audit.entries, auditEntry{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     before,
	})
	return nil
}

func newGrantService(repo *fakeRepository, audit *fakeAudit) *access.Service {
	evaluator := access.NewEvaluator(repo, &fakeRecency{}, slog.Default())
	return access.NewService(repo, evaluator, audit, slog.Default())
}

func validCreateInput(level access.Level) access.CreateGrantInput {
	return access.CreateGrantInput{
		UserID:      "u-target",
		CountryCode: "US",
		Level:       level,
		EntityType:  access.EntityAppointmentAndDignitary,
		Reason:      "new regional coordinator",
	}
}

// # Creation Enforcement

func TestCreateGrant_AdminActor(t *testing.T) {
	repo := &fakeRepository{}
	service := newGrantService(repo, &fakeAudit{})

	grant, err := service.CreateGrant(context.Background(), adminSubject, validCreateInput(access.LevelAdmin))
	require.NoError(t, err)
	assert.NotZero(t, grant.ID)
	assert.Equal(t, adminSubject.ID, grant.CreatedBy)
	assert.True(t, grant.IsActive)
}

func TestCreateGrant_SecretariatCannotMintAdminLevel(t *testing.T) {
	repo := &fakeRepository{}
	// The actor has full admin coverage for US, yet admin-level grants stay
	// reserved to ADMIN-role actors.
	repo.grants = append(repo.grants,
		grantFor(secretariatSubject.ID, "US", nil, access.LevelAdmin, access.EntityAppointmentAndDignitary))
	service := newGrantService(repo, &fakeAudit{})

	_, err := service.CreateGrant(context.Background(), secretariatSubject, validCreateInput(access.LevelAdmin))
	assertForbidden(t, err)
}

func TestCreateGrant_SecretariatNeedsAdminCoverageForCountry(t *testing.T) {
	t.Run("with_coverage", func(t *testing.T) {
		repo := &fakeRepository{}
		repo.grants = append(repo.grants,
			grantFor(secretariatSubject.ID, "US", nil, access.LevelAdmin, access.EntityAppointmentAndDignitary))
		service := newGrantService(repo, &fakeAudit{})

		grant, err := service.CreateGrant(context.Background(), secretariatSubject, validCreateInput(access.LevelReadWrite))
		require.NoError(t, err)
		assert.Equal(t, access.LevelReadWrite, grant.Level)
	})

	t.Run("without_coverage", func(t *testing.T) {
		repo := &fakeRepository{}
		// Only READ_WRITE coverage for US — not enough to delegate.
		repo.grants = append(repo.grants,
			grantFor(secretariatSubject.ID, "US", nil, access.LevelReadWrite, access.EntityAppointmentAndDignitary))
		service := newGrantService(repo, &fakeAudit{})

		_, err := service.CreateGrant(context.Background(), secretariatSubject, validCreateInput(access.LevelRead))
		assertForbidden(t, err)
	})

	t.Run("coverage_for_other_country", func(t *testing.T) {
		repo := &fakeRepository{}
		repo.grants = append(repo.grants,
			grantFor(secretariatSubject.ID, "IN", nil, access.LevelAdmin, access.EntityAppointmentAndDignitary))
		service := newGrantService(repo, &fakeAudit{})

		_, err := service.CreateGrant(context.Background(), secretariatSubject, validCreateInput(access.LevelRead))
		assertForbidden(t, err)
	})
}

func TestCreateGrant_LowerRolesRejected(t *testing.T) {
	service := newGrantService(&fakeRepository{}, &fakeAudit{})

	_, err := service.CreateGrant(context.Background(), usherSubject, validCreateInput(access.LevelRead))
	assertForbidden(t, err)

	_, err = service.CreateGrant(context.Background(), generalSubject, validCreateInput(access.LevelRead))
	assertForbidden(t, err)
}

func TestCreateGrant_Validation(t *testing.T) {
	service := newGrantService(&fakeRepository{}, &fakeAudit{})

	tests := []struct {
		name   string
		mutate func(*access.CreateGrantInput)
	}{
		{"missing_reason", func(in *access.CreateGrantInput) { in.Reason = "" }},
		{"missing_country", func(in *access.CreateGrantInput) { in.CountryCode = "" }},
		{"bad_country_length", func(in *access.CreateGrantInput) { in.CountryCode = "USA" }},
		{"unknown_level", func(in *access.CreateGrantInput) { in.Level = "owner" }},
		{"unknown_entity_type", func(in *access.CreateGrantInput) { in.EntityType = "user" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validCreateInput(access.LevelRead)
			tt.mutate(&input)

			_, err := service.CreateGrant(context.Background(), adminSubject, input)
			require.Error(t, err)
			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, "VALIDATION_ERROR", appError.Code)
		})
	}
}

// # Update Enforcement

func TestUpdateGrant_RecheckAppliesToResultingState(t *testing.T) {
	repo := &fakeRepository{}
	service := newGrantService(repo, &fakeAudit{})

	created, err := service.CreateGrant(context.Background(), adminSubject, validCreateInput(access.LevelReadWrite))
	require.NoError(t, err)

	// Give the secretariat actor admin coverage for US only.
	repo.grants = append(repo.grants,
		grantFor(secretariatSubject.ID, "US", nil, access.LevelAdmin, access.EntityAppointmentAndDignitary))

	t.Run("allowed_small_change", func(t *testing.T) {
		newReason := "territory rebalanced"
		updated, err := service.UpdateGrant(context.Background(), secretariatSubject, created.ID,
			access.UpdateGrantInput{Reason: &newReason})
		require.NoError(t, err)
		assert.Equal(t, newReason, updated.Reason)
		require.NotNil(t, updated.UpdatedBy)
		assert.Equal(t, secretariatSubject.ID, *updated.UpdatedBy)
	})

	t.Run("escalating_level_rejected", func(t *testing.T) {
		// Individually small change composing into an admin-level grant.
		adminLevel := access.LevelAdmin
		_, err := service.UpdateGrant(context.Background(), secretariatSubject, created.ID,
			access.UpdateGrantInput{Level: &adminLevel})
		assertForbidden(t, err)
	})

	t.Run("moving_to_uncovered_country_rejected", func(t *testing.T) {
		otherCountry := "CA"
		_, err := service.UpdateGrant(context.Background(), secretariatSubject, created.ID,
			access.UpdateGrantInput{CountryCode: &otherCountry})
		assertForbidden(t, err)
	})

	t.Run("admin_can_escalate", func(t *testing.T) {
		adminLevel := access.LevelAdmin
		updated, err := service.UpdateGrant(context.Background(), adminSubject, created.ID,
			access.UpdateGrantInput{Level: &adminLevel})
		require.NoError(t, err)
		assert.Equal(t, access.LevelAdmin, updated.Level)
	})
}

func TestUpdateGrant_NotFound(t *testing.T) {
	service := newGrantService(&fakeRepository{}, &fakeAudit{})

	_, err := service.UpdateGrant(context.Background(), adminSubject, 9999, access.UpdateGrantInput{})
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "NOT_FOUND", appError.Code)
}

// # Deletion & Audit

func TestDeleteGrant_AuditedBeforeRemoval(t *testing.T) {
	repo := &fakeRepository{}
	audit := &fakeAudit{}
	service := newGrantService(repo, audit)

	created, err := service.CreateGrant(context.Background(), adminSubject, validCreateInput(access.LevelRead))
	require.NoError(t, err)

	require.NoError(t, service.DeleteGrant(context.Background(), adminSubject, created.ID))

	// The row is gone and the before-image is in the audit trail.
	remaining, err := service.ListGrants(context.Background(), adminSubject, "u-target")
	require.NoError(t, err)
	assert.Empty(t, remaining)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "access_grant_deleted", audit.entries[0].Action)
	assert.Equal(t, adminSubject.ID, audit.entries[0].ActorID)
	assert.NotNil(t, audit.entries[0].Before)
}

func TestListGrants_RequiresStaffTier(t *testing.T) {
	service := newGrantService(&fakeRepository{}, &fakeAudit{})

	_, err := service.ListGrants(context.Background(), usherSubject, "u-target")
	assertForbidden(t, err)
}
