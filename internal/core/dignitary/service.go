package dignitary

import (
	"context"
	"log/slog"
	"strings"

	"github.com/atithi/atithi/internal/access"
	"github.com/atithi/atithi/internal/platform/validate"
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

/*
ListDignitaries returns the page of dignitaries the actor can see.

The visible set is scope-filtered, not role-filtered: the repository applies
the actor's [access.DignitaryScope] (direct home-country coverage plus the
derived recent-appointment window) inside the query. An actor with no usable
grants gets an empty page, not an error.
*/
func (service *Service) ListDignitaries(context context.Context, actor access.Subject, filter Filter, limit, offset int) ([]*Dignitary, int, error) {
	scope, err := service.evaluator.DignitaryScope(context, actor, access.LevelRead)
	if err != nil {
		return nil, 0, err
	}

	return service.repo.ListDignitaries(context, filter, scope, limit, offset)
}

// GetDignitary loads the record first, so a missing dignitary reads as
// NotFound rather than Forbidden, then runs the full authorization decision.
func (service *Service) GetDignitary(context context.Context, actor access.Subject, id int) (*Dignitary, error) {
	d, err := service.repo.GetDignitary(context, id)
	if err != nil {
		return nil, err
	}

	ref := access.DignitaryRef{ID: d.ID, CountryCode: d.CountryCode}
	if err := service.evaluator.AuthorizeDignitary(context, actor, ref, access.LevelRead); err != nil {
		return nil, err
	}

	return d, nil
}

func (service *Service) CreateDignitary(context context.Context, actor access.Subject, d *Dignitary) error {
	d.CountryCode = strings.ToUpper(strings.TrimSpace(d.CountryCode))

	if err := service.validate(d); err != nil {
		return err
	}

	// A new record has no appointment history, so only the direct-country
	// path of the dignitary decision can apply here.
	ref := access.DignitaryRef{CountryCode: d.CountryCode}
	if err := service.evaluator.AuthorizeDignitary(context, actor, ref, access.LevelReadWrite); err != nil {
		return err
	}

	d.CreatedBy = &actor.ID

	if err := service.repo.CreateDignitary(context, d); err != nil {
		return err
	}

	service.logger.Info("dignitary_created",
		slog.Int("dignitary_id", d.ID),
		slog.String("country", d.CountryCode),
		slog.String("actor_id", actor.ID))
	return nil
}

func (service *Service) UpdateDignitary(context context.Context, actor access.Subject, id int, d *Dignitary) error {
	current, err := service.repo.GetDignitary(context, id)
	if err != nil {
		return err
	}

	ref := access.DignitaryRef{ID: current.ID, CountryCode: current.CountryCode}
	if err := service.evaluator.AuthorizeDignitary(context, actor, ref, access.LevelReadWrite); err != nil {
		return err
	}

	d.ID = id
	d.CountryCode = strings.ToUpper(strings.TrimSpace(d.CountryCode))
	if d.CountryCode == "" {
		d.CountryCode = current.CountryCode
	}
	if d.CountryCode != current.CountryCode {
		// Moving the record to another country needs coverage there too.
		target := access.DignitaryRef{ID: current.ID, CountryCode: d.CountryCode}
		if err := service.evaluator.AuthorizeDignitary(context, actor, target, access.LevelReadWrite); err != nil {
			return err
		}
	}

	if err := service.validate(d); err != nil {
		return err
	}

	if err := service.repo.UpdateDignitary(context, d); err != nil {
		return err
	}

	service.logger.Info("dignitary_updated", slog.Int("dignitary_id", d.ID))
	return nil
}

func (service *Service) DeleteDignitary(context context.Context, actor access.Subject, id int) error {
	current, err := service.repo.GetDignitary(context, id)
	if err != nil {
		return err
	}

	ref := access.DignitaryRef{ID: current.ID, CountryCode: current.CountryCode}
	if err := service.evaluator.AuthorizeDignitary(context, actor, ref, access.LevelAdmin); err != nil {
		return err
	}

	if err := service.repo.DeleteDignitary(context, id); err != nil {
		return err
	}

	service.logger.Warn("dignitary_deleted",
		slog.Int("dignitary_id", id),
		slog.String("actor_id", actor.ID))
	return nil
}

func (service *Service) validate(d *Dignitary) error {
	validator := &validate.Validator{}
	validator.Required(FieldFirstName, d.FirstName).MaxLen(FieldFirstName, d.FirstName, 100).
		Required(FieldLastName, d.LastName).MaxLen(FieldLastName, d.LastName, 100).
		Required(FieldCountryCode, d.CountryCode).
		Custom(FieldCountryCode, len(d.CountryCode) != 2, "must be a two-letter ISO country code")

	if d.Email != nil && *d.Email != "" {
		validator.Email(FieldEmail, *d.Email)
	}

	return validator.Err()
}
