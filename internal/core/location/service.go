package location

import (
	"context"
	"log/slog"
	"strings"

	"github.com/atithi/atithi/internal/access"
	"github.com/atithi/atithi/internal/platform/validate"
	"github.com/atithi/atithi/pkg/slug"
)

type Service struct {
	repo      Repository
	evaluator *access.Evaluator
	logger    *slog.Logger
}

func NewService(repo Repository, evaluator *access.Evaluator, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		evaluator: evaluator,
		logger:    logger,
	}
}

// Reads are open to any signed-in user. Venues are reference data that
// appointment requesters pick from; the grant model only guards writes.

func (service *Service) ListLocations(context context.Context, filter Filter, limit, offset int) ([]*Location, int, error) {
	return service.repo.ListLocations(context, filter, limit, offset)
}

func (service *Service) GetLocation(context context.Context, id int) (*Location, error) {
	return service.repo.GetLocation(context, id)
}

func (service *Service) GetLocationBySlug(context context.Context, locationSlug string) (*Location, error) {
	return service.repo.GetLocationBySlug(context, locationSlug)
}

// CountryOf resolves a location to its country code. The appointment service
// depends on this to scope access checks.
func (service *Service) CountryOf(context context.Context, id int) (string, error) {
	l, err := service.repo.GetLocation(context, id)
	if err != nil {
		return "", err
	}
	return l.CountryCode, nil
}

func (service *Service) CreateLocation(context context.Context, actor access.Subject, l *Location) error {
	l.CountryCode = strings.ToUpper(strings.TrimSpace(l.CountryCode))

	if err := service.validate(l); err != nil {
		return err
	}
	if err := service.evaluator.CheckCountryAccess(context, actor, l.CountryCode, access.LevelAdmin); err != nil {
		return err
	}

	l.Slug = slug.From(l.Name)

	if err := service.repo.CreateLocation(context, l); err != nil {
		return err
	}

	service.logger.Info("location_created",
		slog.Int("location_id", l.ID),
		slog.String("country", l.CountryCode),
		slog.String("actor_id", actor.ID))
	return nil
}

func (service *Service) UpdateLocation(context context.Context, actor access.Subject, id int, l *Location) error {
	current, err := service.repo.GetLocation(context, id)
	if err != nil {
		return err
	}

	// The actor needs admin coverage for both the current country and, when
	// the venue moves, the target country.
	if err := service.evaluator.CheckLocationAccess(context, actor, current.CountryCode, current.ID, access.LevelAdmin); err != nil {
		return err
	}

	l.ID = id
	l.CountryCode = strings.ToUpper(strings.TrimSpace(l.CountryCode))
	if l.CountryCode == "" {
		l.CountryCode = current.CountryCode
	}
	if l.CountryCode != current.CountryCode {
		if err := service.evaluator.CheckCountryAccess(context, actor, l.CountryCode, access.LevelAdmin); err != nil {
			return err
		}
	}

	if err := service.validate(l); err != nil {
		return err
	}

	if l.Name != current.Name {
		l.Slug = slug.From(l.Name)
	} else {
		l.Slug = current.Slug
	}

	if err := service.repo.UpdateLocation(context, l); err != nil {
		return err
	}

	service.logger.Info("location_updated", slog.Int("location_id", l.ID))
	return nil
}

func (service *Service) DeleteLocation(context context.Context, actor access.Subject, id int) error {
	current, err := service.repo.GetLocation(context, id)
	if err != nil {
		return err
	}

	if err := service.evaluator.CheckLocationAccess(context, actor, current.CountryCode, current.ID, access.LevelAdmin); err != nil {
		return err
	}

	if err := service.repo.DeleteLocation(context, id); err != nil {
		return err
	}

	service.logger.Warn("location_deleted",
		slog.Int("location_id", id),
		slog.String("actor_id", actor.ID))
	return nil
}

func (service *Service) validate(l *Location) error {
	validator := &validate.Validator{}
	validator.Required(FieldCountryCode, l.CountryCode).
		Custom(FieldCountryCode, len(l.CountryCode) != 2, "must be a two-letter ISO country code").
		Required(FieldName, l.Name).MaxLen(FieldName, l.Name, 200)

	if l.City != nil {
		validator.MaxLen(FieldCity, *l.City, 100)
	}

	return validator.Err()
}
