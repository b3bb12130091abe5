package location

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atithi/atithi/internal/platform/database/schema"
	"github.com/atithi/atithi/internal/platform/dberr"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (repository *PostgresRepository) ListLocations(context context.Context, f Filter, limit, offset int) ([]*Location, int, error) {
	baseFilter := fmt.Sprintf("WHERE %s IS NULL", schema.Location.DeletedAt)

	args := []any{}
	if f.CountryCode != "" {
		args = append(args, f.CountryCode)
		baseFilter += fmt.Sprintf(" AND %s = $%d", schema.Location.CountryCode, len(args))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		baseFilter += fmt.Sprintf(" AND (%s ILIKE $%d OR %s ILIKE $%d)",
			schema.Location.Name, len(args), schema.Location.City, len(args))
	}
	if f.ActiveOnly {
		baseFilter += fmt.Sprintf(" AND %s = true", schema.Location.IsActive)
	}

	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s %s`, schema.Location.Table, baseFilter)

	var total int
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_locations")
	}

	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		%s
		ORDER BY %s ASC LIMIT $%d OFFSET $%d
	`,
		schema.Location.ID, schema.Location.CountryCode, schema.Location.Name, schema.Location.Slug,
		schema.Location.Address, schema.Location.City, schema.Location.IsActive,
		schema.Location.CreatedAt, schema.Location.UpdatedAt,
		schema.Location.Table, baseFilter,
		schema.Location.Name, len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_locations")
	}
	defer rows.Close()

	var locations []*Location
	for rows.Next() {
		l := &Location{}
		if err := rows.Scan(&l.ID, &l.CountryCode, &l.Name, &l.Slug, &l.Address, &l.City,
			&l.IsActive, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_location")
		}
		locations = append(locations, l)
	}

	return locations, total, nil
}

func (repository *PostgresRepository) GetLocation(context context.Context, id int) (*Location, error) {
	return repository.getLocationBy(context, schema.Location.ID, id)
}

func (repository *PostgresRepository) GetLocationBySlug(context context.Context, slug string) (*Location, error) {
	return repository.getLocationBy(context, schema.Location.Slug, slug)
}

func (repository *PostgresRepository) getLocationBy(context context.Context, column string, value any) (*Location, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s IS NULL
	`,
		schema.Location.ID, schema.Location.CountryCode, schema.Location.Name, schema.Location.Slug,
		schema.Location.Address, schema.Location.City, schema.Location.IsActive,
		schema.Location.CreatedAt, schema.Location.UpdatedAt,
		schema.Location.Table, column, schema.Location.DeletedAt,
	)

	l := &Location{}
	err := repository.db.QueryRow(context, query, value).Scan(
		&l.ID, &l.CountryCode, &l.Name, &l.Slug, &l.Address, &l.City,
		&l.IsActive, &l.CreatedAt, &l.UpdatedAt,
	)

	return l, dberr.Wrap(err, "get_location")
}

func (repository *PostgresRepository) CreateLocation(context context.Context, l *Location) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING %s, %s, %s
	`,
		schema.Location.Table, schema.Location.CountryCode, schema.Location.Name, schema.Location.Slug,
		schema.Location.Address, schema.Location.City, schema.Location.IsActive,
		schema.Location.CreatedAt, schema.Location.UpdatedAt,
		schema.Location.ID, schema.Location.CreatedAt, schema.Location.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		l.CountryCode, l.Name, l.Slug, l.Address, l.City, l.IsActive,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	return dberr.Wrap(err, "create_location")
}

func (repository *PostgresRepository) UpdateLocation(context context.Context, l *Location) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = NOW()
		WHERE %s = $1 AND %s IS NULL
		RETURNING %s
	`,
		schema.Location.Table,
		schema.Location.CountryCode, schema.Location.Name, schema.Location.Slug,
		schema.Location.Address, schema.Location.City, schema.Location.IsActive,
		schema.Location.UpdatedAt,
		schema.Location.ID, schema.Location.DeletedAt,
		schema.Location.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		l.ID, l.CountryCode, l.Name, l.Slug, l.Address, l.City, l.IsActive,
	).Scan(&l.UpdatedAt)
	return dberr.Wrap(err, "update_location")
}

func (repository *PostgresRepository) DeleteLocation(context context.Context, id int) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = NOW() WHERE %s = $1 AND %s IS NULL`,
		schema.Location.Table, schema.Location.DeletedAt, schema.Location.ID, schema.Location.DeletedAt,
	)

	cmd, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_location")
	}

	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}
