package appointment

import (
	"context"
	"log/slog"

	"github.com/atithi/atithi/internal/access"
	"github.com/atithi/atithi/internal/platform/apperr"
	"github.com/atithi/atithi/internal/platform/validate"
)

// LocationResolver supplies the country a location belongs to. The service
// needs it when a request names a location the appointment row doesn't carry
// a country for yet.
type LocationResolver interface {
	CountryOf(ctx context.Context, locationID int) (string, error)
}

type Service struct {
	repo      Repository
	locations LocationResolver
	evaluator *access.Evaluator
	logger    *slog.Logger
}

func NewService(repo Repository, locations LocationResolver, evaluator *access.Evaluator, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		locations: locations,
		evaluator: evaluator,
		logger:    logger,
	}
}

// Permissions are the soft-check flags the detail endpoint returns so
// clients can render actions without a second round trip.
type Permissions struct {
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

// # Listing

/*
ListAppointments is the staff surface: the page is filtered to the actor's
appointment scope. An actor with zero usable grants receives an empty page,
never an error.
*/
func (service *Service) ListAppointments(context context.Context, actor access.Subject, filter Filter, limit, offset int) ([]*Appointment, int, error) {
	scope, err := service.evaluator.AppointmentScope(context, actor, access.LevelRead)
	if err != nil {
		return nil, 0, err
	}

	return service.repo.ListAppointments(context, filter, scope, limit, offset)
}

// ListOwnAppointments is the self-service surface: a requester always sees
// their own requests regardless of role or grants.
func (service *Service) ListOwnAppointments(context context.Context, actor access.Subject, limit, offset int) ([]*Appointment, int, error) {
	return service.repo.ListByRequester(context, actor.ID, limit, offset)
}

// # Detail

/*
GetAppointment loads the appointment and decides visibility.

The requester always sees their own appointment. Anyone else must pass the
evaluator's appointment decision at read level. Loading before deciding keeps
missing rows as NotFound instead of Forbidden.
*/
func (service *Service) GetAppointment(context context.Context, actor access.Subject, id int) (*Appointment, error) {
	a, err := service.repo.GetAppointment(context, id)
	if err != nil {
		return nil, err
	}

	if a.RequesterID == actor.ID {
		return a, nil
	}

	ref := access.AppointmentRef{ID: a.ID, LocationID: a.LocationID, CountryCode: a.CountryCode}
	if err := service.evaluator.AuthorizeAppointment(context, actor, ref, access.LevelRead); err != nil {
		return nil, err
	}

	return a, nil
}

// PermissionsFor computes the action flags for an already-authorized detail
// view using the evaluator's soft checks.
func (service *Service) PermissionsFor(context context.Context, actor access.Subject, a *Appointment) Permissions {
	if a.RequesterID == actor.ID {
		// Requesters may edit their own request only while it is pending;
		// cancellation is an edit, not a delete.
		editable := a.Status == StatusPending
		return Permissions{CanEdit: editable, CanDelete: false}
	}

	ref := access.AppointmentRef{ID: a.ID, LocationID: a.LocationID, CountryCode: a.CountryCode}
	return Permissions{
		CanEdit:   service.evaluator.CheckAppointmentForLevel(context, actor, ref, access.LevelReadWrite),
		CanDelete: service.evaluator.CheckAppointmentForLevel(context, actor, ref, access.LevelAdmin),
	}
}

// # Lifecycle

/*
CreateAppointment files a new request on behalf of the actor.

This is the one write any signed-in user can perform: the requester is always
the actor, the status always starts pending. Staff acting across users go
through UpdateAppointment instead.
*/
func (service *Service) CreateAppointment(context context.Context, actor access.Subject, a *Appointment) error {
	a.RequesterID = actor.ID
	a.Status = StatusPending
	a.SubStatus = nil
	a.CreatedBy = &actor.ID

	if err := service.validate(a); err != nil {
		return err
	}

	// Resolve the location early so a bad location reads as a validation
	// problem at filing time, not at first staff review.
	countryCode, err := service.locations.CountryOf(context, a.LocationID)
	if err != nil {
		return err
	}
	a.CountryCode = countryCode

	if err := service.repo.CreateAppointment(context, a); err != nil {
		return err
	}

	service.logger.Info("appointment_requested",
		slog.Int("appointment_id", a.ID),
		slog.String("requester_id", actor.ID),
		slog.Int("location_id", a.LocationID))
	return nil
}

/*
UpdateAppointment applies changes to an existing appointment.

Two authorization paths:
  - The requester may edit their own request while it is still pending, and
    may not touch status fields.
  - Staff must pass the evaluator at read_write level for the appointment's
    location; moving it to another location additionally requires coverage
    at the target.
*/
func (service *Service) UpdateAppointment(context context.Context, actor access.Subject, id int, input *Appointment) error {
	current, err := service.repo.GetAppointment(context, id)
	if err != nil {
		return err
	}

	selfService := current.RequesterID == actor.ID
	if selfService {
		if current.Status != StatusPending {
			return apperr.Forbidden("Appointments can only be edited while pending")
		}
		// Requesters never drive the workflow fields.
		input.Status = current.Status
		input.SubStatus = current.SubStatus
		input.AppointmentDate = current.AppointmentDate
	} else {
		ref := access.AppointmentRef{ID: current.ID, LocationID: current.LocationID, CountryCode: current.CountryCode}
		if err := service.evaluator.AuthorizeAppointment(context, actor, ref, access.LevelReadWrite); err != nil {
			return err
		}
	}

	input.ID = id
	input.RequesterID = current.RequesterID
	if input.LocationID == 0 {
		input.LocationID = current.LocationID
		input.CountryCode = current.CountryCode
	}
	if input.Status == "" {
		input.Status = current.Status
	}

	if err := service.validate(input); err != nil {
		return err
	}

	if input.LocationID != current.LocationID {
		countryCode, err := service.locations.CountryOf(context, input.LocationID)
		if err != nil {
			return err
		}
		input.CountryCode = countryCode

		if !selfService {
			target := access.AppointmentRef{ID: id, LocationID: input.LocationID, CountryCode: countryCode}
			if err := service.evaluator.AuthorizeAppointment(context, actor, target, access.LevelReadWrite); err != nil {
				return err
			}
		}
	}

	input.UpdatedBy = &actor.ID

	if err := service.repo.UpdateAppointment(context, input); err != nil {
		return err
	}

	service.logger.Info("appointment_updated",
		slog.Int("appointment_id", id),
		slog.String("actor_id", actor.ID),
		slog.String("status", input.Status))
	return nil
}

// DeleteAppointment soft-deletes. Only staff with admin-level coverage may
// remove an appointment; requesters cancel through an update instead.
func (service *Service) DeleteAppointment(context context.Context, actor access.Subject, id int) error {
	current, err := service.repo.GetAppointment(context, id)
	if err != nil {
		return err
	}

	ref := access.AppointmentRef{ID: current.ID, LocationID: current.LocationID, CountryCode: current.CountryCode}
	if err := service.evaluator.AuthorizeAppointment(context, actor, ref, access.LevelAdmin); err != nil {
		return err
	}

	if err := service.repo.DeleteAppointment(context, id); err != nil {
		return err
	}

	service.logger.Warn("appointment_deleted",
		slog.Int("appointment_id", id),
		slog.String("actor_id", actor.ID))
	return nil
}

// # Dignitary Attachments

/*
SetDignitaries replaces the appointment's dignitary attachments.

Requesters may name dignitaries on their own pending request; they are
attaching by ID without reading the records, so the dignitary access rules
do not apply to them. Staff need read_write coverage for the appointment.
*/
func (service *Service) SetDignitaries(context context.Context, actor access.Subject, appointmentID int, dignitaryIDs []int) error {
	current, err := service.repo.GetAppointment(context, appointmentID)
	if err != nil {
		return err
	}

	if current.RequesterID == actor.ID {
		if current.Status != StatusPending {
			return apperr.Forbidden("Appointments can only be edited while pending")
		}
	} else {
		ref := access.AppointmentRef{ID: current.ID, LocationID: current.LocationID, CountryCode: current.CountryCode}
		if err := service.evaluator.AuthorizeAppointment(context, actor, ref, access.LevelReadWrite); err != nil {
			return err
		}
	}

	if err := service.repo.SetDignitaries(context, appointmentID, dignitaryIDs); err != nil {
		return err
	}

	service.logger.Info("appointment_dignitaries_set",
		slog.Int("appointment_id", appointmentID),
		slog.Int("count", len(dignitaryIDs)))
	return nil
}

func (service *Service) validate(a *Appointment) error {
	validator := &validate.Validator{}
	validator.Required(FieldPurpose, a.Purpose).MaxLen(FieldPurpose, a.Purpose, 2000).
		Custom(FieldLocationID, a.LocationID <= 0, "a location is required").
		Required(FieldStatus, a.Status).MaxLen(FieldStatus, a.Status, 50)

	return validator.Err()
}
