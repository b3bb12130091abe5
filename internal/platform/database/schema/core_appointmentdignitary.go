package schema

// AppointmentDignitaryTable represents the 'core.appointmentdignitary' join table
type AppointmentDignitaryTable struct {
	Table         string
	AppointmentID string
	DignitaryID   string
	CreatedAt     string
}

// AppointmentDignitary is the schema definition for core.appointmentdignitary
var AppointmentDignitary = AppointmentDignitaryTable{
	Table:         "core.appointmentdignitary",
	AppointmentID: "appointmentid",
	DignitaryID:   "dignitaryid",
	CreatedAt:     "createdat",
}
