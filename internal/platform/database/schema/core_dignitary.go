package schema

// DignitaryTable represents the 'core.dignitary' table
type DignitaryTable struct {
	Table        string
	ID           string
	Honorific    string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Organization string
	Title        string
	CountryCode  string
	Bio          string
	CreatedBy    string
	CreatedAt    string
	UpdatedAt    string
	DeletedAt    string
}

// Dignitary is the schema definition for core.dignitary
var Dignitary = DignitaryTable{
	Table:        "core.dignitary",
	ID:           "id",
	Honorific:    "honorific",
	FirstName:    "firstname",
	LastName:     "lastname",
	Email:        "email",
	Phone:        "phone",
	Organization: "organization",
	Title:        "title",
	CountryCode:  "countrycode",
	Bio:          "bio",
	CreatedBy:    "createdby",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
	DeletedAt:    "deletedat",
}

// Columns returns all standard column names
func (t DignitaryTable) Columns() []string {
	return []string{
		t.ID, t.Honorific, t.FirstName, t.LastName, t.Email, t.Phone, t.Organization,
		t.Title, t.CountryCode, t.Bio, t.CreatedBy, t.CreatedAt, t.UpdatedAt, t.DeletedAt,
	}
}
