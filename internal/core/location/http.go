package location

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
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	// Any signed-in user
	router.Get("/", handler.listLocations)
	router.Get("/{id}", handler.getLocation)
	router.Get("/slug/{slug}", handler.getLocationBySlug)

	// Staff only; per-country coverage is checked in the service
	router.Group(func(staffRoute chi.Router) {
		staffRoute.Use(middleware.RequireRole(sec.RoleUsher))

		staffRoute.Post("/", handler.createLocation)
		staffRoute.Patch("/{id}", handler.updateLocation)
		staffRoute.Delete("/{id}", handler.deleteLocation)
	})
}

func (handler *Handler) listLocations(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	filter := Filter{
		CountryCode: request.URL.Query().Get("country"),
		Query:       request.URL.Query().Get("q"),
		ActiveOnly:  !convert.ToBool(request.URL.Query().Get("all")),
	}

	locations, total, err := handler.service.ListLocations(request.Context(), filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, locations, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

func (handler *Handler) getLocation(writer http.ResponseWriter, request *http.Request) {
	locationID, err := strconv.Atoi(requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	l, err := handler.service.GetLocation(request.Context(), locationID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, l)
}

func (handler *Handler) getLocationBySlug(writer http.ResponseWriter, request *http.Request) {
	l, err := handler.service.GetLocationBySlug(request.Context(), requestutil.ID(request, "slug"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, l)
}

func (handler *Handler) createLocation(writer http.ResponseWriter, request *http.Request) {
	actor, err := subjectFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Location
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.CreateLocation(request.Context(), actor, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, input)
}

func (handler *Handler) updateLocation(writer http.ResponseWriter, request *http.Request) {
	actor, err := subjectFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	locationID, err := strconv.Atoi(requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Location
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.UpdateLocation(request.Context(), actor, locationID, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, input)
}

func (handler *Handler) deleteLocation(writer http.ResponseWriter, request *http.Request) {
	actor, err := subjectFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	locationID, err := strconv.Atoi(requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteLocation(request.Context(), actor, locationID); err != nil {
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
