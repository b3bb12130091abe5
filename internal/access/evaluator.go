// Copyright (c) 2026 Atithi. All rights reserved.
// Author: dev@atithi.app

package access

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atithi/atithi/internal/platform/apperr"
	"github.com/atithi/atithi/internal/platform/sec"
)

// # Evaluator Contracts

// GrantReader loads the effective grants the evaluator decides against.
//
// # Why an interface?
//
// Defining GrantReader here decouples the evaluator from the Postgres
// repository, allowing in-memory fakes during unit testing.
type GrantReader interface {
	// ListEffective returns the subject's active, non-expired grants whose
	// entity type and access level are in the given sets.
	ListEffective(ctx context.Context, userID string, entityTypes []EntityType, levels []Level) ([]*Grant, error)
}

// RecencyReader answers the derived dignitary-access question: does the
// dignitary appear on a recent appointment inside the given scope?
type RecencyReader interface {
	HasRecentAppointment(ctx context.Context, dignitaryID int, since time.Time, scope Scope) (bool, error)
}

// Evaluator decides whether a subject may act on a resource, and builds
// scope filters for collection endpoints.
//
// # Concurrency
//
// Evaluator is stateless and safe for concurrent use. Every decision
// re-queries current grant state; there is no stale-allow risk beyond
// ordinary read-committed isolation.
type Evaluator struct {
	grants  GrantReader
	recency RecencyReader
	logger  *slog.Logger
	// now is injectable for deterministic window/expiry tests.
	now func() time.Time
}

// NewEvaluator constructs an [Evaluator] with its reader dependencies.
func NewEvaluator(grants GrantReader, recency RecencyReader, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		grants:  grants,
		recency: recency,
		logger:  logger,
		now:     time.Now,
	}
}

// # Country & Location Checks

/*
CheckCountryAccess verifies that the subject holds a countrywide grant for the
country at (or above) the required level.

A location-scoped grant never satisfies a country-level check: managing a
whole country requires a grant with no location restriction.

Returns:
  - nil when access is allowed
  - apperr.Forbidden when the role is barred or no grant covers the country
*/
func (evaluator *Evaluator) CheckCountryAccess(ctx context.Context, subject Subject, countryCode string, level Level) error {
	// Role gate runs before any grant lookup.
	if subject.Role.IsGeneralRole() {
		return apperr.Forbidden("You don't have access to administrative resources")
	}
	if subject.Role == sec.RoleAdmin {
		return nil
	}

	grants, err := evaluator.effectiveGrants(ctx, subject, appointmentEntityTypes(), level)
	if err != nil {
		return err
	}

	for _, grant := range grants {
		if grant.IsCountrywide() && grant.CountryCode == countryCode {
			return nil
		}
	}

	return apperr.Forbidden(fmt.Sprintf("You don't have %s access for country: %s", level, countryCode))
}

/*
CheckLocationAccess verifies that the subject can reach a specific location.

A grant matches if it names exactly this location, or is a countrywide grant
for the location's country. A grant scoped to a different location never
matches.
*/
func (evaluator *Evaluator) CheckLocationAccess(ctx context.Context, subject Subject, countryCode string, locationID int, level Level) error {
	if subject.Role.IsGeneralRole() {
		return apperr.Forbidden("You don't have access to administrative resources")
	}
	if subject.Role == sec.RoleAdmin {
		return nil
	}

	grants, err := evaluator.effectiveGrants(ctx, subject, appointmentEntityTypes(), level)
	if err != nil {
		return err
	}

	for _, grant := range grants {
		if grant.coversLocation(countryCode, locationID) {
			return nil
		}
	}

	return apperr.Forbidden(fmt.Sprintf("You don't have %s access for this location", level))
}

/*
ListAccessibleCountries returns the distinct countries the subject can reach
at the required level.

Returns:
  - countries: distinct country codes across qualifying grants
  - all: true for ADMIN subjects; callers must special-case this instead of
    expecting an enumerable set
*/
func (evaluator *Evaluator) ListAccessibleCountries(ctx context.Context, subject Subject, level Level) (countries []string, all bool, err error) {
	if subject.Role == sec.RoleAdmin {
		return nil, true, nil
	}
	// GENERAL users never hold delegated access; skip the lookup.
	if subject.Role.IsGeneralRole() {
		return nil, false, nil
	}

	grants, err := evaluator.effectiveGrants(ctx, subject, appointmentEntityTypes(), level)
	if err != nil {
		return nil, false, err
	}

	seen := make(map[string]struct{}, len(grants))
	for _, grant := range grants {
		if _, duplicate := seen[grant.CountryCode]; duplicate {
			continue
		}
		seen[grant.CountryCode] = struct{}{}
		countries = append(countries, grant.CountryCode)
	}

	return countries, false, nil
}

// # Resource Authorization

/*
AuthorizeAppointment decides whether the subject may act on the appointment
at the required level.

Flow:
 1. GENERAL role is barred outright.
 2. ADMIN role is allowed unconditionally.
 3. Otherwise any effective grant (APPOINTMENT or APPOINTMENT_AND_DIGNITARY,
    qualifying level) must cover the appointment's location.
*/
func (evaluator *Evaluator) AuthorizeAppointment(ctx context.Context, subject Subject, ref AppointmentRef, level Level) error {
	if subject.Role.IsGeneralRole() {
		return apperr.Forbidden("You don't have access to administrative resources")
	}
	if subject.Role == sec.RoleAdmin {
		return nil
	}

	grants, err := evaluator.effectiveGrants(ctx, subject, appointmentEntityTypes(), level)
	if err != nil {
		return err
	}

	for _, grant := range grants {
		if grant.coversLocation(ref.CountryCode, ref.LocationID) {
			return nil
		}
	}

	return apperr.Forbidden("You don't have access to this appointment")
}

/*
AuthorizeDignitary decides whether the subject may act on the dignitary at
the required level.

Dignitary access is strictly stricter than appointment access: only ADMIN and
SECRETARIAT subjects may attempt it, and only APPOINTMENT_AND_DIGNITARY
grants qualify.

Two paths can allow:
 1. Direct: a countrywide grant matching the dignitary's home country.
 2. Derived: the dignitary appears on an appointment within the last
    [RecentWindowDays] days at a location the subject's grants already reach.
    A staff member who handled a dignitary's recent visit in their territory
    keeps visibility even when the dignitary's home country falls outside
    their direct grants.
*/
func (evaluator *Evaluator) AuthorizeDignitary(ctx context.Context, subject Subject, ref DignitaryRef, level Level) error {
	if !subject.Role.IsAdminRole() {
		return apperr.Forbidden("You don't have access to dignitary records")
	}
	if subject.Role == sec.RoleAdmin {
		return nil
	}

	grants, err := evaluator.effectiveGrants(ctx, subject, dignitaryEntityTypes(), level)
	if err != nil {
		return err
	}
	if len(grants) == 0 {
		return apperr.Forbidden("You don't have access to dignitary records")
	}

	// ── 1. Direct-country path ────────────────────────────────────────────
	for _, grant := range grants {
		if grant.IsCountrywide() && grant.CountryCode == ref.CountryCode {
			return nil
		}
	}

	// ── 2. Derived appointment-recency path ───────────────────────────────
	scope := scopeFromGrants(grants)
	since := startOfDay(evaluator.now()).AddDate(0, 0, -RecentWindowDays)

	recent, err := evaluator.recency.HasRecentAppointment(ctx, ref.ID, since, scope)
	if err != nil {
		return err
	}
	if recent {
		return nil
	}

	return apperr.Forbidden(fmt.Sprintf("You don't have access to dignitary records for country: %s", ref.CountryCode))
}

// # Collection Scope Filters

/*
AppointmentScope builds the disjunctive location filter for appointment list
endpoints. A subject with zero usable grants receives an empty scope, which
stores translate into an empty result set — never an error.
*/
func (evaluator *Evaluator) AppointmentScope(ctx context.Context, subject Subject, level Level) (Scope, error) {
	if subject.Role == sec.RoleAdmin {
		return Scope{All: true}, nil
	}
	if subject.Role.IsGeneralRole() {
		return Scope{}, nil
	}

	grants, err := evaluator.effectiveGrants(ctx, subject, appointmentEntityTypes(), level)
	if err != nil {
		return Scope{}, err
	}

	return scopeFromGrants(grants), nil
}

/*
DignitaryScope builds the filter for dignitary list endpoints: direct home
country coverage plus the derived recent-appointment window.
*/
func (evaluator *Evaluator) DignitaryScope(ctx context.Context, subject Subject, level Level) (DignitaryScope, error) {
	if subject.Role == sec.RoleAdmin {
		return DignitaryScope{All: true}, nil
	}
	if !subject.Role.IsAdminRole() {
		return DignitaryScope{}, nil
	}

	grants, err := evaluator.effectiveGrants(ctx, subject, dignitaryEntityTypes(), level)
	if err != nil {
		return DignitaryScope{}, err
	}
	if len(grants) == 0 {
		return DignitaryScope{}, nil
	}

	scope := DignitaryScope{
		Recent: scopeFromGrants(grants),
		Since:  startOfDay(evaluator.now()).AddDate(0, 0, -RecentWindowDays),
	}
	for _, grant := range grants {
		if grant.IsCountrywide() {
			scope.Countries = append(scope.Countries, grant.CountryCode)
		}
	}

	return scope, nil
}

// # Soft Checks

/*
CheckAppointmentForLevel is the boolean variant of [AuthorizeAppointment],
used for soft gating (e.g. conditionally rendering dashboard actions).

Denials are logged and returned as false, never raised. Unexpected errors
(e.g. database failures) are logged at error severity and conservatively
treated as deny.
*/
func (evaluator *Evaluator) CheckAppointmentForLevel(ctx context.Context, subject Subject, ref AppointmentRef, level Level) bool {
	err := evaluator.AuthorizeAppointment(ctx, subject, ref, level)
	if err == nil {
		return true
	}

	if appError := apperr.As(err); appError != nil && appError.Code == "FORBIDDEN" {
		evaluator.logger.Info("appointment_access_denied",
			slog.String("actor_email", subject.Email),
			slog.Int("appointment_id", ref.ID),
			slog.String("required_level", string(level)),
		)
		return false
	}

	evaluator.logger.Error("appointment_access_check_failed",
		slog.String("actor_email", subject.Email),
		slog.Int("appointment_id", ref.ID),
		slog.Any("error", err),
	)
	return false
}

// CheckDignitaryForLevel is the boolean variant of [AuthorizeDignitary].
func (evaluator *Evaluator) CheckDignitaryForLevel(ctx context.Context, subject Subject, ref DignitaryRef, level Level) bool {
	err := evaluator.AuthorizeDignitary(ctx, subject, ref, level)
	if err == nil {
		return true
	}

	if appError := apperr.As(err); appError != nil && appError.Code == "FORBIDDEN" {
		evaluator.logger.Info("dignitary_access_denied",
			slog.String("actor_email", subject.Email),
			slog.Int("dignitary_id", ref.ID),
			slog.String("required_level", string(level)),
		)
		return false
	}

	evaluator.logger.Error("dignitary_access_check_failed",
		slog.String("actor_email", subject.Email),
		slog.Int("dignitary_id", ref.ID),
		slog.Any("error", err),
	)
	return false
}

// # Internal Helpers

// effectiveGrants loads the subject's grants filtered by entity types and the
// required level's higher-or-equal set, then re-applies the effectiveness
// rule in memory so expiry handling never depends on the store alone.
func (evaluator *Evaluator) effectiveGrants(ctx context.Context, subject Subject, entityTypes []EntityType, level Level) ([]*Grant, error) {
	loaded, err := evaluator.grants.ListEffective(ctx, subject.ID, entityTypes, level.HigherOrEqual())
	if err != nil {
		return nil, err
	}

	now := evaluator.now()
	effective := loaded[:0]
	for _, grant := range loaded {
		if grant.IsEffective(now) {
			effective = append(effective, grant)
		}
	}

	return effective, nil
}

// scopeFromGrants folds a grant set into a [Scope]: countrywide grants
// contribute their country, location-scoped grants their location.
func scopeFromGrants(grants []*Grant) Scope {
	var scope Scope
	seenCountries := make(map[string]struct{})

	for _, grant := range grants {
		if grant.IsCountrywide() {
			if _, duplicate := seenCountries[grant.CountryCode]; !duplicate {
				seenCountries[grant.CountryCode] = struct{}{}
				scope.Countries = append(scope.Countries, grant.CountryCode)
			}
			continue
		}
		scope.LocationIDs = append(scope.LocationIDs, *grant.LocationID)
	}

	return scope
}
