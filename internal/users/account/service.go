// Copyright (c) 2026 Atithi. All rights reserved.
// Author: dev@atithi.app

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atithi/atithi/internal/platform/apperr"
	"github.com/atithi/atithi/internal/platform/sec"
	"github.com/atithi/atithi/internal/users/auth"
)

// # Service Layer

// Service orchestrates business logic for user accounts.
//
// It covers both the self-service profile surface and the administrative
// directory, and enforces the rank rules for role assignment.
type Service struct {
	accountRepository AccountRepository
	sessionRepository SessionRepository
	audit             AuditRecorder
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its repository dependencies.
func NewService(
	accountRepo AccountRepository,
	sessionRepo SessionRepository,
	audit AuditRecorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		accountRepository: accountRepo,
		sessionRepository: sessionRepo,
		audit:             audit,
		logger:            logger,
	}
}

// # Profile Management

/*
GetProfile retrieves the full private identity of a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: The hydrated user profile
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID string) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_profile_failed: %w", err)
	}
	return user, nil
}

// UpdateProfileInput defines the mutable subset of user profile fields.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

/*
UpdateProfile applies a partial set of changes to a user's account metadata.

Description: Fetches the existing user state, overrides provided fields, and
synchronizes the change to persistent storage.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *auth.User: The updated user profile
  - error: Update or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_update_lookup_failed: %w", err)
	}

	// Apply delta updates
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Phone != nil {
		user.Phone = input.Phone
	}

	// Persist changes
	if err := service.accountRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	service.logger.Info("user_profile_updated", slog.String("user_id", userID))

	return user, nil
}

/*
DeleteAccount performs an idempotent soft-deletion of a user account.

Description: Flags the account as deleted and immediately terminates all active
security sessions to force a global sign-out.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution failures
*/
func (service *Service) DeleteAccount(context context.Context, userID string) error {
	if err := service.accountRepository.SoftDelete(context, userID); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	// Force global revocation of sessions for the deleted account
	_ = service.sessionRepository.RevokeAll(context, userID)

	service.logger.Warn("user_account_deleted", slog.String("user_id", userID))

	return nil
}

// # Administrative Directory

/*
ListUsers returns a page of the user directory. The route-level gate admits
staff; the directory is how administrators and the secretariat find accounts
to issue grants to.
*/
func (service *Service) ListUsers(context context.Context, actor *sec.AuthClaims, filter UserFilter, limit, offset int) ([]*auth.User, int, error) {
	if !sec.UserRole(actor.Role).AtLeast(sec.RoleSecretariat) {
		return nil, 0, apperr.Forbidden("You don't have access to the user directory")
	}

	return service.accountRepository.List(context, filter, limit, offset)
}

/*
ChangeRole assigns a new role to a target user.

# Rank Rules

An ADMIN may assign any role. Any other actor may neither assign a role at or
above their own rank, nor modify a user who already holds a role at or above
their own rank. This keeps role changes strictly downward-facing and makes
self-promotion impossible.

The change is recorded in the audit log before sessions are revoked; the
target's active sessions are terminated so stale tokens cannot keep the old
role alive.
*/
func (service *Service) ChangeRole(context context.Context, actor *sec.AuthClaims, targetUserID string, newRole sec.UserRole) (*auth.User, error) {
	if !newRole.IsValid() {
		return nil, apperr.ValidationError("Unknown role: " + string(newRole))
	}

	actorRole := sec.UserRole(actor.Role)
	if !actorRole.AtLeast(sec.RoleSecretariat) {
		return nil, apperr.Forbidden("You don't have permission to manage roles")
	}
	if actor.UserID == targetUserID {
		return nil, apperr.Forbidden("You cannot change your own role")
	}

	target, err := service.accountRepository.FindByID(context, targetUserID)
	if err != nil {
		return nil, err
	}

	if actorRole != sec.RoleAdmin {
		if newRole.AtLeast(actorRole) {
			return nil, apperr.Forbidden("You cannot assign a role at or above your own")
		}
		if target.Role.AtLeast(actorRole) {
			return nil, apperr.Forbidden("You cannot modify a user at or above your own rank")
		}
	}

	previousRole := target.Role
	if err := service.accountRepository.SetRole(context, targetUserID, newRole); err != nil {
		return nil, fmt.Errorf("account_service_set_role_failed: %w", err)
	}
	target.Role = newRole

	_ = service.audit.Record(context, actor.UserID, "user_role_changed", "user", targetUserID,
		map[string]string{"role": string(previousRole)},
		map[string]string{"role": string(newRole)},
	)

	// Old tokens carry the old role claim until expiry; cutting sessions
	// bounds that window to the access-token TTL.
	_ = service.sessionRepository.RevokeAll(context, targetUserID)

	service.logger.Info("user_role_changed",
		slog.String("actor_id", actor.UserID),
		slog.String("user_id", targetUserID),
		slog.String("from", string(previousRole)),
		slog.String("to", string(newRole)),
	)

	return target, nil
}

/*
SetActive enables or disables an account. Disabled accounts keep their data
and grants but cannot sign in. Gated to ADMIN at the route level; the rank
guard here keeps the service safe if routing changes.
*/
func (service *Service) SetActive(context context.Context, actor *sec.AuthClaims, targetUserID string, active bool) error {
	if sec.UserRole(actor.Role) != sec.RoleAdmin {
		return apperr.Forbidden("Only administrators can change account status")
	}
	if actor.UserID == targetUserID {
		return apperr.Forbidden("You cannot deactivate your own account")
	}

	if err := service.accountRepository.SetActive(context, targetUserID, active); err != nil {
		return fmt.Errorf("account_service_set_active_failed: %w", err)
	}

	if !active {
		_ = service.sessionRepository.RevokeAll(context, targetUserID)
	}

	service.logger.Warn("user_active_changed",
		slog.String("actor_id", actor.UserID),
		slog.String("user_id", targetUserID),
		slog.Bool("active", active),
	)

	return nil
}

// # Session Security

/*
ListSessions provides a list of all active device sessions for the user.

Parameters:
  - context: context.Context
  - userID: string
  - currentTokenHash: string (Optional identifying hash of the current session)

Returns:
  - []SessionInfo: List of active devices
  - error: Retrieval failures
*/
func (service *Service) ListSessions(context context.Context, userID, currentTokenHash string) ([]SessionInfo, error) {
	sessions, err := service.sessionRepository.FindActiveByUserID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_list_sessions_failed: %w", err)
	}

	return sessions, nil
}

/*
RevokeSession terminates a specific user session by its ID.

Parameters:
  - context: context.Context
  - userID: string
  - sessionID: string

Returns:
  - error: Revocation failures
*/
func (service *Service) RevokeSession(context context.Context, userID, sessionID string) error {
	if err := service.sessionRepository.Revoke(context, userID, sessionID); err != nil {
		return fmt.Errorf("account_service_revoke_session_failed: %w", err)
	}

	service.logger.Info("user_session_revoked",
		slog.String("user_id", userID),
		slog.String("session_id", sessionID),
	)

	return nil
}

/*
RevokeOtherSessions terminates all sessions except for the current active one.

Parameters:
  - context: context.Context
  - userID: string
  - currentSessionID: string

Returns:
  - error: Revocation failures
*/
func (service *Service) RevokeOtherSessions(context context.Context, userID, currentSessionID string) error {
	if err := service.sessionRepository.RevokeOthers(context, userID, currentSessionID); err != nil {
		return fmt.Errorf("account_service_revoke_others_failed: %w", err)
	}

	service.logger.Info("user_other_sessions_revoked", slog.String("user_id", userID))

	return nil
}
