package country

import "context"

type Repository interface {
	ListCountries(context context.Context, enabledOnly bool) ([]*Country, error)
	GetCountry(context context.Context, code string) (*Country, error)
	UpsertCountry(context context.Context, c *Country) error
	SetEnabled(context context.Context, code string, enabled bool) error
}
