package country

import (
	"context"
	"log/slog"
	"strings"

	"github.com/atithi/atithi/internal/platform/validate"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (service *Service) ListCountries(context context.Context, enabledOnly bool) ([]*Country, error) {
	return service.repo.ListCountries(context, enabledOnly)
}

func (service *Service) GetCountry(context context.Context, code string) (*Country, error) {
	return service.repo.GetCountry(context, strings.ToUpper(code))
}

func (service *Service) UpsertCountry(context context.Context, c *Country) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))

	validator := &validate.Validator{}
	validator.Required(FieldCode, c.Code).
		Custom(FieldCode, len(c.Code) != 2, "must be a two-letter ISO country code").
		Required(FieldName, c.Name).MaxLen(FieldName, c.Name, 100)
	if c.Timezone != nil {
		validator.MaxLen("timezone", *c.Timezone, 64)
	}

	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.repo.UpsertCountry(context, c); err != nil {
		return err
	}

	service.logger.Info("country_upserted", slog.String("code", c.Code))
	return nil
}

func (service *Service) SetEnabled(context context.Context, code string, enabled bool) error {
	if err := service.repo.SetEnabled(context, strings.ToUpper(code), enabled); err != nil {
		return err
	}

	service.logger.Info("country_enabled_changed",
		slog.String("code", strings.ToUpper(code)),
		slog.Bool("enabled", enabled))
	return nil
}
