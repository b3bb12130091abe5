package schema

// AppointmentTable represents the 'core.appointment' table
type AppointmentTable struct {
	Table           string
	ID              string
	RequesterID     string
	LocationID      string
	Purpose         string
	PreferredDate   string
	AppointmentDate string
	Status          string
	SubStatus       string
	CreatedBy       string
	UpdatedBy       string
	CreatedAt       string
	UpdatedAt       string
	DeletedAt       string
}

// Appointment is the schema definition for core.appointment
var Appointment = AppointmentTable{
	Table:           "core.appointment",
	ID:              "id",
	RequesterID:     "requesterid",
	LocationID:      "locationid",
	Purpose:         "purpose",
	PreferredDate:   "preferreddate",
	AppointmentDate: "appointmentdate",
	Status:          "status",
	SubStatus:       "substatus",
	CreatedBy:       "createdby",
	UpdatedBy:       "updatedby",
	CreatedAt:       "createdat",
	UpdatedAt:       "updatedat",
	DeletedAt:       "deletedat",
}

// Columns returns all standard column names
func (t AppointmentTable) Columns() []string {
	return []string{
		t.ID, t.RequesterID, t.LocationID, t.Purpose, t.PreferredDate, t.AppointmentDate,
		t.Status, t.SubStatus, t.CreatedBy, t.UpdatedBy, t.CreatedAt, t.UpdatedAt, t.DeletedAt,
	}
}
