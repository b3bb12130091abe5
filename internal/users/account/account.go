// Copyright (c) 2026 Atithi. All rights reserved.
// Author: dev@atithi.app

/*
Package account handles user profile management, security settings, and the
administrative user directory.

It provides functionality for users to view and update their private identity
data and manage their active device sessions, and for administrators to list
accounts and assign staff roles under the rank-escalation rules.

# Architecture

  - Entities: SessionInfo (DTO); the User entity lives in the auth package.
  - Security: Role changes are rank-guarded and audit-logged.
*/
package account

import (
	"context"
	"time"

	"github.com/atithi/atithi/internal/platform/sec"
	"github.com/atithi/atithi/internal/users/auth"
)

// # Domain Entities

// SessionInfo provides a safety-mapped view of an active user session.
// It omits sensitive token hashes for transport.
type SessionInfo struct {
	ID         string    `json:"id"`
	DeviceName string    `json:"device_name"` // e.g. "Chrome on Windows"
	IPAddress  string    `json:"ip_address"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	IsCurrent  bool      `json:"is_current"` // True if this session belongs to the current request
}

// UserFilter narrows the administrative user directory.
type UserFilter struct {
	Query string       // Matches name or email
	Role  sec.UserRole // Empty matches all roles
}

// # Repository Contracts

// AccountRepository defines the persistence contract for user accounts.
type AccountRepository interface {
	/*
		FindByID retrieves a user record by their unique ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		List returns a page of the user directory matching the filter.

		Parameters:
		  - context: context.Context
		  - f: UserFilter
		  - limit, offset: pagination

		Returns:
		  - []*auth.User: Page of accounts
		  - int: Total match count
		  - error: Storage failures
	*/
	List(context context.Context, f UserFilter, limit, offset int) ([]*auth.User, int, error)

	/*
		Update modifies the mutable profile fields of an existing user.

		Parameters:
		  - context: context.Context
		  - user: *User (Hydrated entity with changes)

		Returns:
		  - error: Storage or constraint failures
	*/
	Update(context context.Context, user *auth.User) error

	/*
		SetRole assigns a new role to the user.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - role: sec.UserRole

		Returns:
		  - error: Execution failures
	*/
	SetRole(context context.Context, userID string, role sec.UserRole) error

	/*
		SetActive toggles the account's active flag. Deactivated accounts
		keep their data but cannot sign in.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - active: bool

		Returns:
		  - error: Execution failures
	*/
	SetActive(context context.Context, userID string, active bool) error

	/*
		SoftDelete flags an account as logically deleted.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Execution failures
	*/
	SoftDelete(context context.Context, id string) error
}

// SessionRepository defines the visibility and revocation contract for user sessions.
type SessionRepository interface {
	/*
		FindActiveByUserID lists all valid, non-expired sessions for a user.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - []SessionInfo: List of active devices
		  - error: Retrieval errors
	*/
	FindActiveByUserID(context context.Context, userID string) ([]SessionInfo, error)

	/*
		Revoke marks a specific session as revoked.

		Parameters:
		  - context: context.Context
		  - userID: string (Security constraint: owner validation)
		  - sessionID: string

		Returns:
		  - error: Revocation failures
	*/
	Revoke(context context.Context, userID, sessionID string) error

	/*
		RevokeOthers revokes all active sessions except for a target session.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - currentSessionID: string (The whitelist target)

		Returns:
		  - error: Revocation failures
	*/
	RevokeOthers(context context.Context, userID, currentSessionID string) error

	/*
		RevokeAll terminates every session for a user.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Revocation failures
	*/
	RevokeAll(context context.Context, userID string) error
}

// AuditRecorder captures administrative actions for the audit trail.
type AuditRecorder interface {
	Record(ctx context.Context, actorID, action, entityType, entityID string, before, after any) error
}
