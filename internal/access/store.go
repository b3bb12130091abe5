// Copyright (c) 2026 Atithi. All rights reserved.
// Author: dev@atithi.app

package access

import "context"

// # Grant Data Access

// Repository defines the data access contract for access grants.
//
// It supersets [GrantReader]: the evaluator only depends on the read slice,
// while the grant lifecycle [Service] needs the full contract.
type Repository interface {
	GrantReader

	/*
		ListByUser returns every grant for the given user, including inactive
		and expired rows (the admin surface shows full history).

		Parameters:
		  - ctx: context.Context
		  - userID: string

		Returns:
		  - []*Grant: All grant rows for the user
		  - error: Database retrieval failures
	*/
	ListByUser(ctx context.Context, userID string) ([]*Grant, error)

	/*
		FindByID returns the grant with the given ID.

		Returns:
		  - *Grant: Hydrated entity
		  - error: apperr.NotFound or database errors
	*/
	FindByID(ctx context.Context, id int) (*Grant, error)

	/*
		Create persists a new grant and populates its ID and timestamps.
	*/
	Create(ctx context.Context, grant *Grant) error

	/*
		Update persists the full state of an existing grant.
	*/
	Update(ctx context.Context, grant *Grant) error

	/*
		Delete removes a grant permanently. Deletion is audit-logged by the
		service layer before this is called.
	*/
	Delete(ctx context.Context, id int) error
}
