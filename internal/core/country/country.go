package country

import "time"

// Country represents an operating country of the organization.
type Country struct {
	Code      string    `json:"code"` // ISO 3166-1 alpha-2
	Name      string    `json:"name"`
	Timezone  *string   `json:"timezone,omitempty"` // IANA name, e.g. "Asia/Kolkata"
	IsEnabled bool      `json:"is_enabled"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

const (
	FieldCode = "code"
	FieldName = "name"
)
