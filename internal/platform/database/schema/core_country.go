package schema

// CountryTable represents the 'core.country' table
type CountryTable struct {
	Table     string
	Code      string
	Name      string
	Timezone  string
	IsEnabled string
	CreatedAt string
	UpdatedAt string
}

// Country is the schema definition for core.country
var Country = CountryTable{
	Table:     "core.country",
	Code:      "code",
	Name:      "name",
	Timezone:  "timezone",
	IsEnabled: "isenabled",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}
