package schema

// LocationTable represents the 'core.location' table
type LocationTable struct {
	Table       string
	ID          string
	CountryCode string
	Name        string
	Slug        string
	Address     string
	City        string
	IsActive    string
	CreatedAt   string
	UpdatedAt   string
	DeletedAt   string
}

// Location is the schema definition for core.location
var Location = LocationTable{
	Table:       "core.location",
	ID:          "id",
	CountryCode: "countrycode",
	Name:        "name",
	Slug:        "slug",
	Address:     "address",
	City:        "city",
	IsActive:    "isactive",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
	DeletedAt:   "deletedat",
}

// Columns returns all standard column names
func (t LocationTable) Columns() []string {
	return []string{
		t.ID, t.CountryCode, t.Name, t.Slug, t.Address, t.City,
		t.IsActive, t.CreatedAt, t.UpdatedAt, t.DeletedAt,
	}
}
