package dignitary

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atithi/atithi/internal/access"
	"github.com/atithi/atithi/internal/platform/database/schema"
	"github.com/atithi/atithi/internal/platform/dberr"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (repository *PostgresRepository) ListDignitaries(context context.Context, f Filter, scope access.DignitaryScope, limit, offset int) ([]*Dignitary, int, error) {
	if scope.IsEmpty() {
		return nil, 0, nil
	}

	baseFilter := fmt.Sprintf("WHERE d.%s IS NULL", schema.Dignitary.DeletedAt)
	args := []any{}

	if !scope.All {
		scopeClause, scopeArgs := scopePredicate(scope, len(args))
		baseFilter += " AND " + scopeClause
		args = append(args, scopeArgs...)
	}

	if f.CountryCode != "" {
		args = append(args, f.CountryCode)
		baseFilter += fmt.Sprintf(" AND d.%s = $%d", schema.Dignitary.CountryCode, len(args))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		baseFilter += fmt.Sprintf(" AND (d.%s ILIKE $%d OR d.%s ILIKE $%d OR d.%s ILIKE $%d)",
			schema.Dignitary.FirstName, len(args), schema.Dignitary.LastName, len(args),
			schema.Dignitary.Organization, len(args))
	}

	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s d %s`, schema.Dignitary.Table, baseFilter)

	var total int
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_dignitaries")
	}

	query := fmt.Sprintf(`
		SELECT d.%s
		FROM %s d
		%s
		ORDER BY d.%s ASC, d.%s ASC LIMIT $%d OFFSET $%d
	`,
		strings.Join(dignitaryColumns(), ", d."),
		schema.Dignitary.Table, baseFilter,
		schema.Dignitary.LastName, schema.Dignitary.FirstName, len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_dignitaries")
	}
	defer rows.Close()

	var dignitaries []*Dignitary
	for rows.Next() {
		d := &Dignitary{}
		if err := scanDignitary(rows.Scan, d); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_dignitary")
		}
		dignitaries = append(dignitaries, d)
	}

	return dignitaries, total, nil
}

// scopePredicate renders a DignitaryScope as a SQL disjunction over the
// aliased dignitary row `d`: direct country coverage, or a recent appointment
// inside the appointment scope. argOffset is the number of placeholders
// already consumed by the caller.
func scopePredicate(scope access.DignitaryScope, argOffset int) (string, []any) {
	var clauses []string
	var args []any

	argN := func() int { return argOffset + len(args) }

	if len(scope.Countries) > 0 {
		args = append(args, scope.Countries)
		clauses = append(clauses, fmt.Sprintf("d.%s = ANY($%d)", schema.Dignitary.CountryCode, argN()))
	}

	if scope.Recent.All || len(scope.Recent.Countries) > 0 || len(scope.Recent.LocationIDs) > 0 {
		args = append(args, scope.Since)
		recent := fmt.Sprintf(`EXISTS (
			SELECT 1
			FROM %s ad
			JOIN %s a ON a.%s = ad.%s AND a.%s IS NULL
			JOIN %s l ON l.%s = a.%s
			WHERE ad.%s = d.%s
			  AND (a.%s >= $%d OR a.%s >= $%d)`,
			schema.AppointmentDignitary.Table,
			schema.Appointment.Table, schema.Appointment.ID, schema.AppointmentDignitary.AppointmentID, schema.Appointment.DeletedAt,
			schema.Location.Table, schema.Location.ID, schema.Appointment.LocationID,
			schema.AppointmentDignitary.DignitaryID, schema.Dignitary.ID,
			schema.Appointment.PreferredDate, argN(), schema.Appointment.AppointmentDate, argN(),
		)

		if !scope.Recent.All {
			var appointmentClauses []string
			if len(scope.Recent.Countries) > 0 {
				args = append(args, scope.Recent.Countries)
				appointmentClauses = append(appointmentClauses, fmt.Sprintf("l.%s = ANY($%d)", schema.Location.CountryCode, argN()))
			}
			if len(scope.Recent.LocationIDs) > 0 {
				args = append(args, scope.Recent.LocationIDs)
				appointmentClauses = append(appointmentClauses, fmt.Sprintf("a.%s = ANY($%d)", schema.Appointment.LocationID, argN()))
			}
			recent += "\n\t\t\t  AND (" + strings.Join(appointmentClauses, " OR ") + ")"
		}

		recent += "\n\t\t)"
		clauses = append(clauses, recent)
	}

	return "(" + strings.Join(clauses, " OR ") + ")", args
}

func (repository *PostgresRepository) GetDignitary(context context.Context, id int) (*Dignitary, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s IS NULL
	`,
		strings.Join(dignitaryColumns(), ", "),
		schema.Dignitary.Table, schema.Dignitary.ID, schema.Dignitary.DeletedAt,
	)

	d := &Dignitary{}
	err := repository.db.QueryRow(context, query, id).Scan(scanTargets(d)...)
	return d, dberr.Wrap(err, "get_dignitary")
}

func (repository *PostgresRepository) CreateDignitary(context context.Context, d *Dignitary) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING %s, %s, %s
	`,
		schema.Dignitary.Table,
		schema.Dignitary.Honorific, schema.Dignitary.FirstName, schema.Dignitary.LastName,
		schema.Dignitary.Email, schema.Dignitary.Phone, schema.Dignitary.Organization,
		schema.Dignitary.Title, schema.Dignitary.CountryCode, schema.Dignitary.Bio,
		schema.Dignitary.CreatedBy, schema.Dignitary.CreatedAt, schema.Dignitary.UpdatedAt,
		schema.Dignitary.ID, schema.Dignitary.CreatedAt, schema.Dignitary.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		d.Honorific, d.FirstName, d.LastName, d.Email, d.Phone,
		d.Organization, d.Title, d.CountryCode, d.Bio, d.CreatedBy,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	return dberr.Wrap(err, "create_dignitary")
}

func (repository *PostgresRepository) UpdateDignitary(context context.Context, d *Dignitary) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8, %s = $9, %s = $10, %s = NOW()
		WHERE %s = $1 AND %s IS NULL
		RETURNING %s
	`,
		schema.Dignitary.Table,
		schema.Dignitary.Honorific, schema.Dignitary.FirstName, schema.Dignitary.LastName,
		schema.Dignitary.Email, schema.Dignitary.Phone, schema.Dignitary.Organization,
		schema.Dignitary.Title, schema.Dignitary.CountryCode, schema.Dignitary.Bio,
		schema.Dignitary.UpdatedAt,
		schema.Dignitary.ID, schema.Dignitary.DeletedAt,
		schema.Dignitary.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		d.ID, d.Honorific, d.FirstName, d.LastName, d.Email, d.Phone,
		d.Organization, d.Title, d.CountryCode, d.Bio,
	).Scan(&d.UpdatedAt)
	return dberr.Wrap(err, "update_dignitary")
}

func (repository *PostgresRepository) DeleteDignitary(context context.Context, id int) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = NOW() WHERE %s = $1 AND %s IS NULL`,
		schema.Dignitary.Table, schema.Dignitary.DeletedAt, schema.Dignitary.ID, schema.Dignitary.DeletedAt,
	)

	cmd, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_dignitary")
	}

	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func dignitaryColumns() []string {
	return []string{
		schema.Dignitary.ID, schema.Dignitary.Honorific, schema.Dignitary.FirstName,
		schema.Dignitary.LastName, schema.Dignitary.Email, schema.Dignitary.Phone,
		schema.Dignitary.Organization, schema.Dignitary.Title, schema.Dignitary.CountryCode,
		schema.Dignitary.Bio, schema.Dignitary.CreatedBy, schema.Dignitary.CreatedAt,
		schema.Dignitary.UpdatedAt,
	}
}

func scanTargets(d *Dignitary) []any {
	return []any{
		&d.ID, &d.Honorific, &d.FirstName, &d.LastName, &d.Email, &d.Phone,
		&d.Organization, &d.Title, &d.CountryCode, &d.Bio, &d.CreatedBy,
		&d.CreatedAt, &d.UpdatedAt,
	}
}

func scanDignitary(scan func(...any) error, d *Dignitary) error {
	return scan(scanTargets(d)...)
}
