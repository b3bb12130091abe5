package country

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atithi/atithi/internal/platform/middleware"
	requestutil "github.com/atithi/atithi/internal/platform/request"
	"github.com/atithi/atithi/internal/platform/respond"
	"github.com/atithi/atithi/internal/platform/sec"
	"github.com/atithi/atithi/pkg/convert"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	// Any signed-in user
	router.Get("/", handler.listCountries)
	router.Get("/{code}", handler.getCountry)

	// Admin only
	router.Group(func(adminRoute chi.Router) {
		adminRoute.Use(middleware.RequireRole(sec.RoleAdmin))

		adminRoute.Put("/{code}", handler.upsertCountry)
		adminRoute.Patch("/{code}/enabled", handler.setEnabled)
	})
}

func (handler *Handler) listCountries(writer http.ResponseWriter, request *http.Request) {
	enabledOnly := !convert.ToBool(request.URL.Query().Get("all"))

	countries, err := handler.service.ListCountries(request.Context(), enabledOnly)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, countries)
}

func (handler *Handler) getCountry(writer http.ResponseWriter, request *http.Request) {
	code := requestutil.ID(request, "code")

	c, err := handler.service.GetCountry(request.Context(), code)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, c)
}

func (handler *Handler) upsertCountry(writer http.ResponseWriter, request *http.Request) {
	var input Country
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	input.Code = requestutil.ID(request, "code")

	if err := handler.service.UpsertCountry(request.Context(), &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, input)
}

func (handler *Handler) setEnabled(writer http.ResponseWriter, request *http.Request) {
	code := requestutil.ID(request, "code")

	var input struct {
		Enabled bool `json:"enabled"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.SetEnabled(request.Context(), code, input.Enabled); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
