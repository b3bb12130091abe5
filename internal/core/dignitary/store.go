package dignitary

import (
	"context"

	"github.com/atithi/atithi/internal/access"
)

type Repository interface {
	/*
		ListDignitaries returns the page of dignitaries visible under the
		given scope. An empty scope yields no rows without touching the
		database.

		Parameters:
		  - ctx: context.Context
		  - f: Filter (country/search narrowing within the scope)
		  - scope: access.DignitaryScope from the evaluator
		  - limit, offset: pagination

		Returns:
		  - []*Dignitary: Visible page
		  - int: Total visible count
		  - error: Database retrieval failures
	*/
	ListDignitaries(ctx context.Context, f Filter, scope access.DignitaryScope, limit, offset int) ([]*Dignitary, int, error)
	GetDignitary(ctx context.Context, id int) (*Dignitary, error)
	CreateDignitary(ctx context.Context, d *Dignitary) error
	UpdateDignitary(ctx context.Context, d *Dignitary) error
	DeleteDignitary(ctx context.Context, id int) error
}
