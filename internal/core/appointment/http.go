package appointment

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atithi/atithi/internal/access"
	"github.com/atithi/atithi/internal/platform/middleware"
	requestutil "github.com/atithi/atithi/internal/platform/request"
	"github.com/atithi/atithi/internal/platform/respond"
	"github.com/atithi/atithi/internal/platform/sec"
	"github.com/atithi/atithi/pkg/convert"
	"github.com/atithi/atithi/pkg/pagination"
	"github.com/atithi/atithi/pkg/slice"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	// Self-service: any signed-in user
	router.Get("/my", handler.listOwnAppointments)
	router.Post("/", handler.createAppointment)

	// Mixed surfaces: the service decides requester-vs-staff per record
	router.Get("/{id}", handler.getAppointment)
	router.Patch("/{id}", handler.updateAppointment)
	router.Put("/{id}/dignitaries", handler.setDignitaries)

	// Staff only
	router.With(middleware.RequireRole(sec.RoleUsher)).Get("/", handler.listAppointments)
	router.With(middleware.RequireRole(sec.RoleUsher)).Delete("/{id}", handler.deleteAppointment)
}

// appointmentDetail bundles the record with its soft-check action flags.
type appointmentDetail struct {
	*Appointment
	Permissions Permissions `json:"permissions"`
}

func (handler *Handler) listAppointments(writer http.ResponseWriter, request *http.Request) {
	actor, err := subjectFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	paginationParams := pagination.FromRequest(request)

	filter := Filter{
		RequesterID: request.URL.Query().Get("requester_id"),
		LocationID:  convert.ToInt(request.URL.Query().Get("location_id")),
		Status:      request.URL.Query().Get("status"),
	}

	appointments, total, err := handler.service.ListAppointments(request.Context(), actor, filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, appointments, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

func (handler *Handler) listOwnAppointments(writer http.ResponseWriter, request *http.Request) {
	actor, err := subjectFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	paginationParams := pagination.FromRequest(request)

	appointments, total, err := handler.service.ListOwnAppointments(request.Context(), actor, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	details := slice.Map(appointments, func(a *Appointment) appointmentDetail {
		return appointmentDetail{
			Appointment: a,
			Permissions: handler.service.PermissionsFor(request.Context(), actor, a),
		}
	})

	respond.Paginated(writer, details, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

func (handler *Handler) getAppointment(writer http.ResponseWriter, request *http.Request) {
	actor, err := subjectFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	appointmentID, err := strconv.Atoi(requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	a, err := handler.service.GetAppointment(request.Context(), actor, appointmentID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, appointmentDetail{
		Appointment: a,
		Permissions: handler.service.PermissionsFor(request.Context(), actor, a),
	})
}

func (handler *Handler) createAppointment(writer http.ResponseWriter, request *http.Request) {
	actor, err := subjectFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Appointment
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.CreateAppointment(request.Context(), actor, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, input)
}

func (handler *Handler) updateAppointment(writer http.ResponseWriter, request *http.Request) {
	actor, err := subjectFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	appointmentID, err := strconv.Atoi(requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Appointment
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.UpdateAppointment(request.Context(), actor, appointmentID, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, input)
}

func (handler *Handler) deleteAppointment(writer http.ResponseWriter, request *http.Request) {
	actor, err := subjectFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	appointmentID, err := strconv.Atoi(requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteAppointment(request.Context(), actor, appointmentID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

func (handler *Handler) setDignitaries(writer http.ResponseWriter, request *http.Request) {
	actor, err := subjectFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	appointmentID, err := strconv.Atoi(requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input struct {
		DignitaryIDs []int `json:"dignitary_ids"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.SetDignitaries(request.Context(), actor, appointmentID, input.DignitaryIDs); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

func subjectFromRequest(request *http.Request) (access.Subject, error) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		return access.Subject{}, err
	}
	return access.SubjectFromClaims(claims), nil
}
