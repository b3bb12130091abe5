// Package dignitary manages the dignitary records that appointments are
// booked around. Unlike appointments, dignitary reads go through country
// grants of the appointment_and_dignitary entity type; a dignitary with no
// direct country coverage is still visible to a user who handled one of the
// dignitary's appointments in the recent window.
package dignitary

import "time"

type Dignitary struct {
	ID           int        `json:"id"`
	Honorific    *string    `json:"honorific,omitempty"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        *string    `json:"email,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	Organization *string    `json:"organization,omitempty"`
	Title        *string    `json:"title,omitempty"`
	CountryCode  string     `json:"country_code"`
	Bio          *string    `json:"bio,omitempty"`
	CreatedBy    *string    `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"-"`
}

// Filter narrows list queries. Scope-based filtering is applied on top of
// this by the repository.
type Filter struct {
	CountryCode string
	Query       string
}

const (
	FieldFirstName   = "first_name"
	FieldLastName    = "last_name"
	FieldEmail       = "email"
	FieldCountryCode = "country_code"
)
