// Copyright (c) 2026 Atithi. All rights reserved.
// Author: dev@atithi.app

package access

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/atithi/atithi/internal/platform/apperr"
	"github.com/atithi/atithi/internal/platform/sec"
	"github.com/atithi/atithi/internal/platform/validate"
)

// # Contracts & Types

// AuditRecorder persists an append-only trail of sensitive mutations.
type AuditRecorder interface {
	// Record writes one audit entry. before/after are JSON-serializable
	// snapshots of the affected entity.
	Record(ctx context.Context, actorID, action, entityType, entityID string, before, after any) error
}

// Service orchestrates the access-grant lifecycle.
//
// # Review Process
//
// Every mutation enforces the role-escalation rules before touching storage.
// Changes to the enforcement logic must be reviewed by the security team.
type Service struct {
	repository Repository
	evaluator  *Evaluator
	audit      AuditRecorder
	logger     *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(repository Repository, evaluator *Evaluator, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		evaluator:  evaluator,
		audit:      audit,
		logger:     logger,
	}
}

// Evaluator exposes the evaluation engine to callers wired with the service.
func (service *Service) Evaluator() *Evaluator {
	return service.evaluator
}

// # Grant Lifecycle

// CreateGrantInput holds the data required to delegate scoped access.
type CreateGrantInput struct {
	UserID      string
	CountryCode string
	LocationID  *int
	Level       Level
	EntityType  EntityType
	ExpiryDate  *string // ISO date, optional
	Reason      string
}

/*
ListGrants returns the full grant history for a target user.

The actor must be able to administer grants at all (ADMIN, or SECRETARIAT
with any admin-level coverage is not required for reading — the admin surface
is already role-gated at the route level).
*/
func (service *Service) ListGrants(ctx context.Context, actor Subject, userID string) ([]*Grant, error) {
	if !actor.Role.IsAdminRole() {
		return nil, apperr.Forbidden("You don't have access to manage access grants")
	}
	return service.repository.ListByUser(ctx, userID)
}

/*
CreateGrant validates input, enforces the role-escalation rules, and persists
a new grant attributed to the actor.

Enforcement:
  - ADMIN actors may create any grant.
  - SECRETARIAT actors must hold ADMIN-level countrywide coverage for the
    grant's country, and may never mint ADMIN-level grants: an admin-level
    grant lets its holder create equally powerful grants in turn, so issuing
    one is reserved to ADMIN-role actors.
  - All other roles are rejected.
*/
func (service *Service) CreateGrant(ctx context.Context, actor Subject, input CreateGrantInput) (*Grant, error) {
	grant := &Grant{
		UserID:      input.UserID,
		CountryCode: input.CountryCode,
		LocationID:  input.LocationID,
		Level:       input.Level,
		EntityType:  input.EntityType,
		IsActive:    true,
		Reason:      input.Reason,
		CreatedBy:   actor.ID,
	}

	if err := validateGrant(grant); err != nil {
		return nil, err
	}

	expiry, err := parseExpiry(input.ExpiryDate)
	if err != nil {
		return nil, err
	}
	grant.ExpiryDate = expiry

	if err := service.enforceEscalationRules(ctx, actor, grant); err != nil {
		return nil, err
	}

	if err := service.repository.Create(ctx, grant); err != nil {
		return nil, fmt.Errorf("access_service_create_grant_failed: %w", err)
	}

	service.logger.Info("access_grant_created",
		slog.Int("grant_id", grant.ID),
		slog.String("user_id", grant.UserID),
		slog.String("country", grant.CountryCode),
		slog.String("level", string(grant.Level)),
		slog.String("created_by", actor.ID),
	)

	return grant, nil
}

// UpdateGrantInput defines the mutable subset of grant fields. Nil pointers
// leave the current value untouched.
type UpdateGrantInput struct {
	CountryCode   *string
	LocationID    *int
	ClearLocation bool
	Level         *Level
	EntityType    *EntityType
	ExpiryDate    *string
	IsActive      *bool
	Reason        *string
}

/*
UpdateGrant applies a partial set of changes to an existing grant.

The escalation re-check runs against the resulting state, not the delta: a
sequence of individually small changes must not compose into a grant the
actor could not have created outright.
*/
func (service *Service) UpdateGrant(ctx context.Context, actor Subject, grantID int, input UpdateGrantInput) (*Grant, error) {
	grant, err := service.repository.FindByID(ctx, grantID)
	if err != nil {
		return nil, err
	}

	// The actor must be allowed to touch the grant as it stands today.
	if err := service.enforceEscalationRules(ctx, actor, grant); err != nil {
		return nil, err
	}

	// Apply delta updates
	if input.CountryCode != nil {
		grant.CountryCode = *input.CountryCode
	}
	if input.ClearLocation {
		grant.LocationID = nil
	} else if input.LocationID != nil {
		grant.LocationID = input.LocationID
	}
	if input.Level != nil {
		grant.Level = *input.Level
	}
	if input.EntityType != nil {
		grant.EntityType = *input.EntityType
	}
	if input.ExpiryDate != nil {
		expiry, err := parseExpiry(input.ExpiryDate)
		if err != nil {
			return nil, err
		}
		grant.ExpiryDate = expiry
	}
	if input.IsActive != nil {
		grant.IsActive = *input.IsActive
	}
	if input.Reason != nil {
		grant.Reason = *input.Reason
	}

	if err := validateGrant(grant); err != nil {
		return nil, err
	}

	// Re-check against the resulting state.
	if err := service.enforceEscalationRules(ctx, actor, grant); err != nil {
		return nil, err
	}

	grant.UpdatedBy = &actor.ID

	if err := service.repository.Update(ctx, grant); err != nil {
		return nil, fmt.Errorf("access_service_update_grant_failed: %w", err)
	}

	service.logger.Info("access_grant_updated",
		slog.Int("grant_id", grant.ID),
		slog.String("updated_by", actor.ID),
	)

	return grant, nil
}

/*
DeleteGrant permanently removes a grant.

The before-image is audit-logged first so a hard delete never loses the
delegation trail.
*/
func (service *Service) DeleteGrant(ctx context.Context, actor Subject, grantID int) error {
	grant, err := service.repository.FindByID(ctx, grantID)
	if err != nil {
		return err
	}

	if err := service.enforceEscalationRules(ctx, actor, grant); err != nil {
		return err
	}

	if err := service.audit.Record(ctx, actor.ID, "access_grant_deleted", "access_grant", strconv.Itoa(grant.ID), grant, nil); err != nil {
		return fmt.Errorf("access_service_audit_failed: %w", err)
	}

	if err := service.repository.Delete(ctx, grantID); err != nil {
		return fmt.Errorf("access_service_delete_grant_failed: %w", err)
	}

	service.logger.Warn("access_grant_deleted",
		slog.Int("grant_id", grantID),
		slog.String("deleted_by", actor.ID),
	)

	return nil
}

// # Enforcement

// enforceEscalationRules rejects grant states the actor is not entitled to
// produce.
func (service *Service) enforceEscalationRules(ctx context.Context, actor Subject, grant *Grant) error {
	switch {
	case actor.Role == sec.RoleAdmin:
		return nil

	case actor.Role == sec.RoleSecretariat:
		// An admin-level grant would let its holder manage grants in turn.
		if grant.Level == LevelAdmin {
			return apperr.Forbidden("Only administrators can issue admin-level grants")
		}
		// The actor needs admin-level countrywide coverage for the target country.
		if err := service.evaluator.CheckCountryAccess(ctx, actor, grant.CountryCode, LevelAdmin); err != nil {
			return apperr.Forbidden(fmt.Sprintf("You don't have administrator access for country: %s", grant.CountryCode))
		}
		return nil

	default:
		return apperr.Forbidden("You don't have access to manage access grants")
	}
}

// validateGrant checks the scope input before any enforcement runs.
func validateGrant(grant *Grant) error {
	validator := &validate.Validator{}
	validator.Required(FieldUserID, grant.UserID).
		Required(FieldCountryCode, grant.CountryCode).
		MaxLen(FieldCountryCode, grant.CountryCode, 2).
		MinLen(FieldCountryCode, grant.CountryCode, 2).
		Required(FieldReason, grant.Reason).
		Custom(FieldAccessLevel, !grant.Level.IsValid(), "Must be one of: read, read_write, admin").
		Custom(FieldEntityType, !grant.EntityType.IsValid(), "Must be one of: appointment, appointment_and_dignitary")

	return validator.Err()
}

// parseExpiry parses an optional ISO date string into a UTC midnight instant.
func parseExpiry(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, validate.RequiredError(FieldExpiryDate, "Must be an ISO date (YYYY-MM-DD)")
	}
	return &parsed, nil
}
