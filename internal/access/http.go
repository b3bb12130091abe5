package access

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atithi/atithi/internal/platform/middleware"
	requestutil "github.com/atithi/atithi/internal/platform/request"
	"github.com/atithi/atithi/internal/platform/respond"
	"github.com/atithi/atithi/internal/platform/sec"
	"github.com/atithi/atithi/pkg/pointer"
)

// Handler implements the admin HTTP surface for access grants.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the grant-management endpoints.
//
// The whole group carries the coarse route-level role gate (staff tier); the
// fine-grained per-resource checks live in the service and evaluator.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Group(func(staffRoute chi.Router) {
		staffRoute.Use(middleware.RequireRole(sec.RoleSecretariat))

		staffRoute.Get("/countries", handler.listAccessibleCountries)
		staffRoute.Get("/users/{userID}/grants", handler.listGrants)
		staffRoute.Post("/grants", handler.createGrant)
		staffRoute.Patch("/grants/{id}", handler.updateGrant)
		staffRoute.Delete("/grants/{id}", handler.deleteGrant)
	})
}

// # Request Payloads

type createGrantRequest struct {
	UserID      string  `json:"user_id"`
	CountryCode string  `json:"country_code"`
	LocationID  *int    `json:"location_id"`
	AccessLevel string  `json:"access_level"`
	EntityType  string  `json:"entity_type"`
	ExpiryDate  *string `json:"expiry_date"`
	Reason      string  `json:"reason"`
}

type updateGrantRequest struct {
	CountryCode   *string `json:"country_code"`
	LocationID    *int    `json:"location_id"`
	ClearLocation bool    `json:"clear_location"`
	AccessLevel   *string `json:"access_level"`
	EntityType    *string `json:"entity_type"`
	ExpiryDate    *string `json:"expiry_date"`
	IsActive      *bool   `json:"is_active"`
	Reason        *string `json:"reason"`
}

// listAccessibleCountries handles GET /countries?level=read.
func (handler *Handler) listAccessibleCountries(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	level := Level(request.URL.Query().Get("level"))
	if !level.IsValid() {
		level = LevelRead
	}

	countries, all, err := handler.service.Evaluator().ListAccessibleCountries(
		request.Context(), SubjectFromClaims(claims), level)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"all":       all,
		"countries": countries,
	})
}

// listGrants handles GET /users/{userID}/grants.
func (handler *Handler) listGrants(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	grants, err := handler.service.ListGrants(request.Context(),
		SubjectFromClaims(claims), requestutil.Param(request, "userID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, grants)
}

// createGrant handles POST /grants.
func (handler *Handler) createGrant(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createGrantRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	grant, err := handler.service.CreateGrant(request.Context(), SubjectFromClaims(claims), CreateGrantInput{
		UserID:      input.UserID,
		CountryCode: input.CountryCode,
		LocationID:  input.LocationID,
		Level:       Level(input.AccessLevel),
		EntityType:  EntityType(input.EntityType),
		ExpiryDate:  input.ExpiryDate,
		Reason:      input.Reason,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, grant)
}

// updateGrant handles PATCH /grants/{id}.
func (handler *Handler) updateGrant(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	grantID, err := strconv.Atoi(requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateGrantRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	changes := UpdateGrantInput{
		CountryCode:   input.CountryCode,
		LocationID:    input.LocationID,
		ClearLocation: input.ClearLocation,
		ExpiryDate:    input.ExpiryDate,
		IsActive:      input.IsActive,
		Reason:        input.Reason,
	}
	if input.AccessLevel != nil {
		changes.Level = pointer.To(Level(*input.AccessLevel))
	}
	if input.EntityType != nil {
		changes.EntityType = pointer.To(EntityType(*input.EntityType))
	}

	grant, err := handler.service.UpdateGrant(request.Context(), SubjectFromClaims(claims), grantID, changes)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, grant)
}

// deleteGrant handles DELETE /grants/{id}.
func (handler *Handler) deleteGrant(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	grantID, err := strconv.Atoi(requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteGrant(request.Context(), SubjectFromClaims(claims), grantID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
