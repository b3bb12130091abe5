package country

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

func (repository *PostgresRepository) ListCountries(context context.Context, enabledOnly bool) ([]*Country, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s
		FROM %s
	`,
		schema.Country.Code, schema.Country.Name, schema.Country.Timezone, schema.Country.IsEnabled,
		schema.Country.CreatedAt, schema.Country.UpdatedAt,
		schema.Country.Table,
	)
	if enabledOnly {
		query += fmt.Sprintf(" WHERE %s = true", schema.Country.IsEnabled)
	}
	query += fmt.Sprintf(" ORDER BY %s ASC", schema.Country.Name)

	rows, err := repository.db.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_countries")
	}
	defer rows.Close()

	var countries []*Country
	for rows.Next() {
		c := &Country{}
		if err := rows.Scan(&c.Code, &c.Name, &c.Timezone, &c.IsEnabled, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, dberr.Wrap(err, "scan_country")
		}
		countries = append(countries, c)
	}

	return countries, nil
}

func (repository *PostgresRepository) GetCountry(context context.Context, code string) (*Country, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
	`,
		schema.Country.Code, schema.Country.Name, schema.Country.Timezone, schema.Country.IsEnabled,
		schema.Country.CreatedAt, schema.Country.UpdatedAt,
		schema.Country.Table, schema.Country.Code,
	)

	c := &Country{}
	err := repository.db.QueryRow(context, query, code).Scan(
		&c.Code, &c.Name, &c.Timezone, &c.IsEnabled, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, dberr.Wrap(err, "get_country")
}

func (repository *PostgresRepository) UpsertCountry(context context.Context, c *Country) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (%s) DO UPDATE SET %s = $2, %s = $3, %s = $4, %s = NOW()
		RETURNING %s, %s
	`,
		schema.Country.Table, schema.Country.Code, schema.Country.Name, schema.Country.Timezone,
		schema.Country.IsEnabled, schema.Country.CreatedAt, schema.Country.UpdatedAt,
		schema.Country.Code, schema.Country.Name, schema.Country.Timezone, schema.Country.IsEnabled,
		schema.Country.UpdatedAt,
		schema.Country.CreatedAt, schema.Country.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query, c.Code, c.Name, c.Timezone, c.IsEnabled).Scan(&c.CreatedAt, &c.UpdatedAt)
	return dberr.Wrap(err, "upsert_country")
}

func (repository *PostgresRepository) SetEnabled(context context.Context, code string, enabled bool) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1`,
		schema.Country.Table, schema.Country.IsEnabled, schema.Country.UpdatedAt, schema.Country.Code,
	)

	cmd, err := repository.db.Exec(context, query, code, enabled)
	if err != nil {
		return dberr.Wrap(err, "set_country_enabled")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}
