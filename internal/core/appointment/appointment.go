// Package appointment manages appointment requests and their dignitary
// attachments.
//
// The package serves two distinct surfaces with different authorization
// models. The self-service surface lets any signed-in user create and follow
// their own requests. The staff surface works across users and is gated
// through country/location access grants via the evaluator.
package appointment

import "time"

// StatusPending is the state a new request starts in. Statuses are stored
// as plain strings; workflow transitions are enforced by the secretariat,
// not the database.
const StatusPending = "pending"

type Appointment struct {
	ID          int     `json:"id"`
	RequesterID string  `json:"requester_id"`
	LocationID  int     `json:"location_id"`
	// CountryCode is denormalized from the location on read paths; it is
	// what the access checks scope by.
	CountryCode     string     `json:"country_code,omitempty"`
	Purpose         string     `json:"purpose"`
	PreferredDate   *time.Time `json:"preferred_date,omitempty"`
	AppointmentDate *time.Time `json:"appointment_date,omitempty"`
	Status          string     `json:"status"`
	SubStatus       *string    `json:"sub_status,omitempty"`
	DignitaryIDs    []int      `json:"dignitary_ids,omitempty"`
	CreatedBy       *string    `json:"created_by,omitempty"`
	UpdatedBy       *string    `json:"updated_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"-"`
}

// Filter narrows list queries. Scope-based visibility is applied on top of
// this by the repository.
type Filter struct {
	RequesterID string
	LocationID  int
	Status      string
}

const (
	FieldLocationID = "location_id"
	FieldPurpose    = "purpose"
	FieldStatus     = "status"
)
