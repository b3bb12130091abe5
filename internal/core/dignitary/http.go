package dignitary

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atithi/atithi/internal/access"
	"github.com/atithi/atithi/internal/platform/middleware"
	requestutil "github.com/atithi/atithi/internal/platform/request"
	"github.com/atithi/atithi/internal/platform/respond"
	"github.com/atithi/atithi/internal/platform/sec"
	"github.com/atithi/atithi/pkg/pagination"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the dignitary endpoints. The whole surface sits
// behind the secretariat-tier role gate; per-record decisions run in the
// service through the evaluator.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Group(func(staffRoute chi.Router) {
		staffRoute.Use(middleware.RequireRole(sec.RoleSecretariat))

		staffRoute.Get("/", handler.listDignitaries)
		staffRoute.Get("/{id}", handler.getDignitary)
		staffRoute.Post("/", handler.createDignitary)
		staffRoute.Patch("/{id}", handler.updateDignitary)
		staffRoute.Delete("/{id}", handler.deleteDignitary)
	})
}

func (handler *Handler) listDignitaries(writer http.ResponseWriter, request *http.Request) {
	actor, err := subjectFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	paginationParams := pagination.FromRequest(request)
	filter := Filter{
		CountryCode: request.URL.Query().Get("country"),
		Query:       request.URL.Query().Get("q"),
	}

	dignitaries, total, err := handler.service.ListDignitaries(request.Context(), actor, filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, dignitaries, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

func (handler *Handler) getDignitary(writer http.ResponseWriter, request *http.Request) {
	actor, err := subjectFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	dignitaryID, err := strconv.Atoi(requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	d, err := handler.service.GetDignitary(request.Context(), actor, dignitaryID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, d)
}

func (handler *Handler) createDignitary(writer http.ResponseWriter, request *http.Request) {
	actor, err := subjectFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Dignitary
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.CreateDignitary(request.Context(), actor, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, input)
}

func (handler *Handler) updateDignitary(writer http.ResponseWriter, request *http.Request) {
	actor, err := subjectFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	dignitaryID, err := strconv.Atoi(requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Dignitary
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.UpdateDignitary(request.Context(), actor, dignitaryID, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, input)
}

func (handler *Handler) deleteDignitary(writer http.ResponseWriter, request *http.Request) {
	actor, err := subjectFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	dignitaryID, err := strconv.Atoi(requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteDignitary(request.Context(), actor, dignitaryID); err != nil {
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
