/*
Package access implements the hierarchical access-control model for Atithi.

Non-admin staff users are granted scoped permissions — by country, by
location, by entity type, and by access level — and this package decides
whether a given subject may read or write a given appointment, dignitary,
or user record.

# Architecture

  - Grant: the persisted unit of delegation (country [+location], level, entity type).
  - Evaluator: stateless allow/deny decisions and collection scope filters.
  - Service: grant lifecycle with role-escalation enforcement and audit logging.

The evaluator is a pure function of the subject, the persisted grants, and the
target resource state. No authorization decision is cached in-process.
*/
package access

import (
	"time"

	"github.com/atithi/atithi/internal/platform/sec"
)

// # Access Levels

// Level is the fine-grained permission tier carried by a grant.
type Level string

const (
	LevelRead      Level = "read"
	LevelReadWrite Level = "read_write"
	LevelAdmin     Level = "admin"
)

// HigherOrEqual returns the set of levels that satisfy a requirement at this
// level: the level itself plus every level ranked above it.
//
// Requiring "at least READ" must match grants stored at READ_WRITE or ADMIN,
// so requirement checks are expressed as set membership, never equality.
func (l Level) HigherOrEqual() []Level {
	switch l {
	case LevelRead:
		return []Level{LevelRead, LevelReadWrite, LevelAdmin}
	case LevelReadWrite:
		return []Level{LevelReadWrite, LevelAdmin}
	case LevelAdmin:
		return []Level{LevelAdmin}
	default:
		return nil
	}
}

// IsValid reports whether the string maps to a known level.
func (l Level) IsValid() bool {
	return l == LevelRead || l == LevelReadWrite || l == LevelAdmin
}

// # Entity Types

// EntityType classifies which resource class a grant covers.
type EntityType string

const (
	// EntityAppointment covers appointment records only.
	EntityAppointment EntityType = "appointment"

	// EntityAppointmentAndDignitary covers appointments plus dignitary records.
	EntityAppointmentAndDignitary EntityType = "appointment_and_dignitary"
)

// CoversAppointments reports whether the grant type authorizes appointment access.
func (t EntityType) CoversAppointments() bool {
	return t == EntityAppointment || t == EntityAppointmentAndDignitary
}

// CoversDignitaries reports whether the grant type authorizes dignitary access.
//
// A plain APPOINTMENT grant never covers dignitaries, regardless of level.
func (t EntityType) CoversDignitaries() bool {
	return t == EntityAppointmentAndDignitary
}

// IsValid reports whether the string maps to a known entity type.
func (t EntityType) IsValid() bool {
	return t == EntityAppointment || t == EntityAppointmentAndDignitary
}

// appointmentEntityTypes is the entity-type filter for appointment checks.
func appointmentEntityTypes() []EntityType {
	return []EntityType{EntityAppointment, EntityAppointmentAndDignitary}
}

// dignitaryEntityTypes is the entity-type filter for dignitary checks.
func dignitaryEntityTypes() []EntityType {
	return []EntityType{EntityAppointmentAndDignitary}
}

// # Grant Entity

// Grant is a persisted delegation of scoped access to a specific user.
type Grant struct {
	ID          int        `json:"id"`
	UserID      string     `json:"user_id"`
	CountryCode string     `json:"country_code"`
	LocationID  *int       `json:"location_id"` // nil covers every location in the country
	Level       Level      `json:"access_level"`
	EntityType  EntityType `json:"entity_type"`
	ExpiryDate  *time.Time `json:"expiry_date"`
	IsActive    bool       `json:"is_active"`
	Reason      string     `json:"reason"`
	CreatedBy   string     `json:"created_by"`
	UpdatedBy   *string    `json:"updated_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsCountrywide reports whether the grant covers every location in its country.
func (g *Grant) IsCountrywide() bool {
	return g.LocationID == nil
}

// IsEffective reports whether the grant is usable at the given instant.
//
// A grant past its expiry date is treated as inactive even when is_active is
// still set. The boundary is inclusive: a grant expiring today is valid today.
func (g *Grant) IsEffective(now time.Time) bool {
	if !g.IsActive {
		return false
	}
	if g.ExpiryDate != nil && g.ExpiryDate.Before(startOfDay(now)) {
		return false
	}
	return true
}

// coversLocation reports whether the grant's scope reaches the given
// location within the given country.
func (g *Grant) coversLocation(countryCode string, locationID int) bool {
	if g.CountryCode != countryCode {
		return false
	}
	return g.LocationID == nil || *g.LocationID == locationID
}

// # Subject & Target Descriptors

// Subject is the authenticated actor whose access is being evaluated.
type Subject struct {
	ID    string
	Role  sec.UserRole
	Email string
}

// SubjectFromClaims builds an evaluation subject from verified JWT claims.
func SubjectFromClaims(claims *sec.AuthClaims) Subject {
	return Subject{
		ID:    claims.UserID,
		Role:  sec.UserRole(claims.Role),
		Email: claims.Email,
	}
}

// AppointmentRef carries the attributes of an appointment the evaluator needs:
// its identity plus the derived location-to-country mapping.
type AppointmentRef struct {
	ID          int
	LocationID  int
	CountryCode string
}

// DignitaryRef carries the attributes of a dignitary the evaluator needs.
type DignitaryRef struct {
	ID          int
	CountryCode string
}

// # Collection Scopes

// RecentWindowDays is the look-back window for the derived dignitary access
// path. The boundary is inclusive: an appointment exactly 90 days old still
// qualifies.
const RecentWindowDays = 90

// Scope is the disjunctive location filter derived from a subject's grants.
//
// The zero value denies everything by construction: an empty scope means "no
// grant applies", and stores must return empty result sets for it rather than
// relying on an always-false SQL sentinel.
type Scope struct {
	// All short-circuits filtering entirely (ADMIN subjects).
	All bool
	// Countries are country codes covered by countrywide grants.
	Countries []string
	// LocationIDs are individual locations covered by location-scoped grants.
	LocationIDs []int
}

// IsEmpty reports whether the scope denies all access.
func (s Scope) IsEmpty() bool {
	return !s.All && len(s.Countries) == 0 && len(s.LocationIDs) == 0
}

// DignitaryScope is the filter for dignitary collections. A dignitary is
// visible either directly (home country covered by a countrywide grant) or
// through association with a recent appointment inside the subject's
// appointment scope.
type DignitaryScope struct {
	All bool
	// Countries are dignitary home countries covered by countrywide grants.
	Countries []string
	// Recent is the appointment scope for the derived-access path.
	Recent Scope
	// Since is the inclusive lower bound for the derived-access window.
	Since time.Time
}

// IsEmpty reports whether the scope denies all access.
func (s DignitaryScope) IsEmpty() bool {
	return !s.All && len(s.Countries) == 0 && s.Recent.IsEmpty()
}

// # Field Identifiers

const (
	FieldUserID      = "user_id"
	FieldCountryCode = "country_code"
	FieldLocationID  = "location_id"
	FieldAccessLevel = "access_level"
	FieldEntityType  = "entity_type"
	FieldExpiryDate  = "expiry_date"
	FieldReason      = "reason"
)

// startOfDay truncates an instant to midnight UTC, matching the DATE
// semantics of expiry_date and the recency window.
func startOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
