package schema

// AccessGrantTable represents the 'access.accessgrant' table
type AccessGrantTable struct {
	Table       string
	ID          string
	UserID      string
	CountryCode string
	LocationID  string
	AccessLevel string
	EntityType  string
	ExpiryDate  string
	IsActive    string
	Reason      string
	CreatedBy   string
	UpdatedBy   string
	CreatedAt   string
	UpdatedAt   string
}

// AccessGrant is the schema definition for access.accessgrant
var AccessGrant = AccessGrantTable{
	Table:       "access.accessgrant",
	ID:          "id",
	UserID:      "userid",
	CountryCode: "countrycode",
	LocationID:  "locationid",
	AccessLevel: "accesslevel",
	EntityType:  "entitytype",
	ExpiryDate:  "expirydate",
	IsActive:    "isactive",
	Reason:      "reason",
	CreatedBy:   "createdby",
	UpdatedBy:   "updatedby",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
}

// Columns returns all standard column names
func (t AccessGrantTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.CountryCode, t.LocationID, t.AccessLevel, t.EntityType,
		t.ExpiryDate, t.IsActive, t.Reason, t.CreatedBy, t.UpdatedBy, t.CreatedAt, t.UpdatedAt,
	}
}
