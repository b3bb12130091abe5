// Copyright (c) 2026 Atithi. All rights reserved.
// Author: dev@atithi.app

/*
Package account provides the HTTP delivery layer for profile, session, and
user-directory management.

It implements the RESTful interface for users to interact with their own
account data and active sessions, and for staff to browse the user directory
and administer roles.

# Security

All endpoints in this package require an active authentication session
provided by the RequireAuth middleware. Directory and role-management routes
carry additional role gates on top of that.
*/
package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atithi/atithi/internal/platform/middleware"
	requestutil "github.com/atithi/atithi/internal/platform/request"
	"github.com/atithi/atithi/internal/platform/respond"
	"github.com/atithi/atithi/internal/platform/sec"
	"github.com/atithi/atithi/internal/platform/validate"
	"github.com/atithi/atithi/pkg/pagination"
)

// Handler implements the HTTP layer for user account management.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the account domain's endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Account Management
	router.Get("/me", handler.getMe)
	router.Patch("/me", handler.updateMe)
	router.Delete("/me", handler.deleteMe)

	// Session Security
	router.Get("/me/sessions", handler.listSessions)
	router.Delete("/me/sessions", handler.revokeOtherSessions)
	router.Delete("/me/sessions/{id}", handler.revokeSession)

	// Administrative Directory
	router.Group(func(staffRoute chi.Router) {
		staffRoute.Use(middleware.RequireRole(sec.RoleSecretariat))
		staffRoute.Get("/users", handler.listUsers)
		staffRoute.Patch("/users/{id}/role", handler.changeRole)
	})
	router.Group(func(adminRoute chi.Router) {
		adminRoute.Use(middleware.RequireRole(sec.RoleAdmin))
		adminRoute.Patch("/users/{id}/active", handler.setActive)
	})

	return router
}

// # User Profile Endpoints

/*
GET /api/v1/me.

Description: Retrieves the full private profile of the authenticated user.

Response:
  - 200: User: Fully hydrated user profile
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// updateMeRequest defines the expected JSON payload for profile updates.
type updateMeRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}

/*
PATCH /api/v1/me.

Description: Applies partial updates to the authenticated user's profile.

Request:
  - body: updateMeRequest (Partial JSON)

Response:
  - 200: User: The updated profile
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	if input.FirstName != nil {
		v.Required("first_name", *input.FirstName).MaxLen("first_name", *input.FirstName, 100)
	}
	if input.LastName != nil {
		v.Required("last_name", *input.LastName).MaxLen("last_name", *input.LastName, 100)
	}
	if input.Phone != nil {
		v.MaxLen("phone", *input.Phone, 32)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DELETE /api/v1/me.

Description: Performs a soft-deletion of the authenticated user's account.

Response:
  - 204: No Content: Account deleted successfully
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) deleteMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.DeleteAccount(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Administrative Directory Endpoints

/*
GET /api/v1/users.

Description: Pages through the user directory. Supports free-text search on
name/email and an exact role filter.

Request:
  - q: string (optional search term)
  - role: string (optional role filter)
  - page, limit: pagination

Response:
  - 200: []User: Page of accounts with pagination metadata
  - 403: ErrForbidden: Insufficient role
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	filter := UserFilter{
		Query: request.URL.Query().Get("q"),
		Role:  sec.UserRole(request.URL.Query().Get("role")),
	}

	users, total, err := handler.accountService.ListUsers(request.Context(), actor, filter, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(params.Page, params.Limit, total))
}

// changeRoleRequest defines the expected JSON payload for role assignment.
type changeRoleRequest struct {
	Role string `json:"role"`
}

/*
PATCH /api/v1/users/{id}/role.

Description: Assigns a new role to the target user, subject to the rank
rules enforced by the service layer.

Request:
  - id: string (User UUID)
  - body: changeRoleRequest

Response:
  - 200: User: The updated account
  - 400: Validation: Unknown role
  - 403: ErrForbidden: Rank rules prevent the assignment
  - 404: ErrNotFound: Target account not found
*/
func (handler *Handler) changeRole(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changeRoleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required("role", input.Role)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.ChangeRole(request.Context(), actor, chi.URLParam(request, "id"), sec.UserRole(input.Role))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// setActiveRequest defines the expected JSON payload for account activation.
type setActiveRequest struct {
	Active bool `json:"active"`
}

/*
PATCH /api/v1/users/{id}/active.

Description: Enables or disables a user account. Disabling revokes every
active session for the target.

Request:
  - id: string (User UUID)
  - body: setActiveRequest

Response:
  - 204: No Content: Status updated
  - 403: ErrForbidden: Admin only, or self-deactivation attempt
  - 404: ErrNotFound: Target account not found
*/
func (handler *Handler) setActive(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input setActiveRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.SetActive(request.Context(), actor, chi.URLParam(request, "id"), input.Active); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Session Security Endpoints

/*
GET /api/v1/me/sessions.

Description: Enumerates all devices currently authenticated into the user's account.

Response:
  - 200: []SessionInfo: List of active device sessions
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) listSessions(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.accountService.ListSessions(request.Context(), userID, "")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessions)
}

/*
DELETE /api/v1/me/sessions/{id}.

Description: Forces a sign-out on a specific device identified by its session ID.

Request:
  - id: string (Session UUID)

Response:
  - 204: No Content: Session terminated successfully
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) revokeSession(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessionID := chi.URLParam(request, "id")

	if err := handler.accountService.RevokeSession(request.Context(), userID, sessionID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
DELETE /api/v1/me/sessions.

Description: Forces a sign-out on all devices except the one making the request.

Response:
  - 204: No Content: All other sessions terminated
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) revokeOtherSessions(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.RevokeOtherSessions(request.Context(), userID, ""); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
