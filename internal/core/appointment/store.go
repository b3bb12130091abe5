package appointment

import (
	"context"

	"github.com/atithi/atithi/internal/access"
)

type Repository interface {
	/*
		ListAppointments returns the page of appointments visible under the
		given scope, newest first. An empty scope yields no rows without
		touching the database.

		Parameters:
		  - ctx: context.Context
		  - f: Filter (requester/location/status narrowing within the scope)
		  - scope: access.Scope from the evaluator
		  - limit, offset: pagination

		Returns:
		  - []*Appointment: Visible page, with location country denormalized
		  - int: Total visible count
		  - error: Database retrieval failures
	*/
	ListAppointments(ctx context.Context, f Filter, scope access.Scope, limit, offset int) ([]*Appointment, int, error)

	/*
		ListByRequester returns the requester's own appointments, newest
		first. This is the self-service path; no scope applies.
	*/
	ListByRequester(ctx context.Context, requesterID string, limit, offset int) ([]*Appointment, int, error)

	/*
		GetAppointment returns the appointment with its location country and
		attached dignitary IDs hydrated.
	*/
	GetAppointment(ctx context.Context, id int) (*Appointment, error)

	CreateAppointment(ctx context.Context, a *Appointment) error
	UpdateAppointment(ctx context.Context, a *Appointment) error
	DeleteAppointment(ctx context.Context, id int) error

	/*
		SetDignitaries replaces the appointment's dignitary attachments with
		the given set.
	*/
	SetDignitaries(ctx context.Context, appointmentID int, dignitaryIDs []int) error
}
