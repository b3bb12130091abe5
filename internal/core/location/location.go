// Package location manages the meeting venues appointments take place at.
// Every location belongs to exactly one country, which is the unit the
// access-grant model scopes by.
package location

import "time"

type Location struct {
	ID          int        `json:"id"`
	CountryCode string     `json:"country_code"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Address     *string    `json:"address,omitempty"`
	City        *string    `json:"city,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"`
}

// Filter narrows list queries.
type Filter struct {
	CountryCode string
	Query       string
	ActiveOnly  bool
}

const (
	FieldCountryCode = "country_code"
	FieldName        = "name"
	FieldCity        = "city"
)
