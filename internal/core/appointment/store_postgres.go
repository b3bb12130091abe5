package appointment

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

// appointmentSelect is the shared projection: appointment columns plus the
// location's country code, which the access checks scope by.
func appointmentSelect() string {
	return fmt.Sprintf(`
		SELECT a.%s, a.%s, a.%s, l.%s, a.%s, a.%s, a.%s, a.%s, a.%s,
		       a.%s, a.%s, a.%s, a.%s
		FROM %s a
		JOIN %s l ON l.%s = a.%s
	`,
		schema.Appointment.ID, schema.Appointment.RequesterID, schema.Appointment.LocationID,
		schema.Location.CountryCode,
		schema.Appointment.Purpose, schema.Appointment.PreferredDate, schema.Appointment.AppointmentDate,
		schema.Appointment.Status, schema.Appointment.SubStatus,
		schema.Appointment.CreatedBy, schema.Appointment.UpdatedBy,
		schema.Appointment.CreatedAt, schema.Appointment.UpdatedAt,
		schema.Appointment.Table,
		schema.Location.Table, schema.Location.ID, schema.Appointment.LocationID,
	)
}

func scanAppointment(scan func(...any) error, a *Appointment) error {
	return scan(
		&a.ID, &a.RequesterID, &a.LocationID, &a.CountryCode,
		&a.Purpose, &a.PreferredDate, &a.AppointmentDate,
		&a.Status, &a.SubStatus,
		&a.CreatedBy, &a.UpdatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
}

func (repository *PostgresRepository) ListAppointments(context context.Context, f Filter, scope access.Scope, limit, offset int) ([]*Appointment, int, error) {
	if scope.IsEmpty() {
		return nil, 0, nil
	}

	baseFilter := fmt.Sprintf("WHERE a.%s IS NULL", schema.Appointment.DeletedAt)
	args := []any{}

	if !scope.All {
		var scopeClauses []string
		if len(scope.Countries) > 0 {
			args = append(args, scope.Countries)
			scopeClauses = append(scopeClauses, fmt.Sprintf("l.%s = ANY($%d)", schema.Location.CountryCode, len(args)))
		}
		if len(scope.LocationIDs) > 0 {
			args = append(args, scope.LocationIDs)
			scopeClauses = append(scopeClauses, fmt.Sprintf("a.%s = ANY($%d)", schema.Appointment.LocationID, len(args)))
		}
		baseFilter += " AND (" + strings.Join(scopeClauses, " OR ") + ")"
	}

	if f.RequesterID != "" {
		args = append(args, f.RequesterID)
		baseFilter += fmt.Sprintf(" AND a.%s = $%d", schema.Appointment.RequesterID, len(args))
	}
	if f.LocationID != 0 {
		args = append(args, f.LocationID)
		baseFilter += fmt.Sprintf(" AND a.%s = $%d", schema.Appointment.LocationID, len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		baseFilter += fmt.Sprintf(" AND a.%s = $%d", schema.Appointment.Status, len(args))
	}

	return repository.listWith(context, baseFilter, args, limit, offset)
}

func (repository *PostgresRepository) ListByRequester(context context.Context, requesterID string, limit, offset int) ([]*Appointment, int, error) {
	baseFilter := fmt.Sprintf("WHERE a.%s IS NULL AND a.%s = $1",
		schema.Appointment.DeletedAt, schema.Appointment.RequesterID)

	return repository.listWith(context, baseFilter, []any{requesterID}, limit, offset)
}

func (repository *PostgresRepository) listWith(context context.Context, baseFilter string, args []any, limit, offset int) ([]*Appointment, int, error) {
	countQuery := fmt.Sprintf(`
		SELECT count(*)
		FROM %s a
		JOIN %s l ON l.%s = a.%s
		%s
	`,
		schema.Appointment.Table,
		schema.Location.Table, schema.Location.ID, schema.Appointment.LocationID,
		baseFilter,
	)

	var total int
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_appointments")
	}

	query := appointmentSelect() + baseFilter +
		fmt.Sprintf(" ORDER BY a.%s DESC LIMIT $%d OFFSET $%d",
			schema.Appointment.CreatedAt, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_appointments")
	}
	defer rows.Close()

	var appointments []*Appointment
	for rows.Next() {
		a := &Appointment{}
		if err := scanAppointment(rows.Scan, a); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_appointment")
		}
		appointments = append(appointments, a)
	}

	return appointments, total, nil
}

func (repository *PostgresRepository) GetAppointment(context context.Context, id int) (*Appointment, error) {
	query := appointmentSelect() +
		fmt.Sprintf("WHERE a.%s = $1 AND a.%s IS NULL", schema.Appointment.ID, schema.Appointment.DeletedAt)

	a := &Appointment{}
	if err := scanAppointment(func(targets ...any) error {
		return repository.db.QueryRow(context, query, id).Scan(targets...)
	}, a); err != nil {
		return nil, dberr.Wrap(err, "get_appointment")
	}

	dignitaryQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s ASC`,
		schema.AppointmentDignitary.DignitaryID, schema.AppointmentDignitary.Table,
		schema.AppointmentDignitary.AppointmentID, schema.AppointmentDignitary.DignitaryID,
	)

	rows, err := repository.db.Query(context, dignitaryQuery, id)
	if err != nil {
		return nil, dberr.Wrap(err, "list_appointment_dignitaries")
	}
	defer rows.Close()

	for rows.Next() {
		var dignitaryID int
		if err := rows.Scan(&dignitaryID); err != nil {
			return nil, dberr.Wrap(err, "scan_appointment_dignitary")
		}
		a.DignitaryIDs = append(a.DignitaryIDs, dignitaryID)
	}

	return a, nil
}

func (repository *PostgresRepository) CreateAppointment(context context.Context, a *Appointment) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING %s, %s, %s
	`,
		schema.Appointment.Table,
		schema.Appointment.RequesterID, schema.Appointment.LocationID, schema.Appointment.Purpose,
		schema.Appointment.PreferredDate, schema.Appointment.AppointmentDate,
		schema.Appointment.Status, schema.Appointment.SubStatus, schema.Appointment.CreatedBy,
		schema.Appointment.CreatedAt, schema.Appointment.UpdatedAt,
		schema.Appointment.ID, schema.Appointment.CreatedAt, schema.Appointment.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		a.RequesterID, a.LocationID, a.Purpose, a.PreferredDate, a.AppointmentDate,
		a.Status, a.SubStatus, a.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return dberr.Wrap(err, "create_appointment")
}

func (repository *PostgresRepository) UpdateAppointment(context context.Context, a *Appointment) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8, %s = NOW()
		WHERE %s = $1 AND %s IS NULL
		RETURNING %s
	`,
		schema.Appointment.Table,
		schema.Appointment.LocationID, schema.Appointment.Purpose,
		schema.Appointment.PreferredDate, schema.Appointment.AppointmentDate,
		schema.Appointment.Status, schema.Appointment.SubStatus, schema.Appointment.UpdatedBy,
		schema.Appointment.UpdatedAt,
		schema.Appointment.ID, schema.Appointment.DeletedAt,
		schema.Appointment.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		a.ID, a.LocationID, a.Purpose, a.PreferredDate, a.AppointmentDate,
		a.Status, a.SubStatus, a.UpdatedBy,
	).Scan(&a.UpdatedAt)
	return dberr.Wrap(err, "update_appointment")
}

func (repository *PostgresRepository) DeleteAppointment(context context.Context, id int) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = NOW() WHERE %s = $1 AND %s IS NULL`,
		schema.Appointment.Table, schema.Appointment.DeletedAt,
		schema.Appointment.ID, schema.Appointment.DeletedAt,
	)

	cmd, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_appointment")
	}

	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) SetDignitaries(context context.Context, appointmentID int, dignitaryIDs []int) error {
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_set_dignitaries_tx")
	}
	defer transaction.Rollback(context)

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.AppointmentDignitary.Table, schema.AppointmentDignitary.AppointmentID)
	if _, err := transaction.Exec(context, deleteQuery, appointmentID); err != nil {
		return dberr.Wrap(err, "clear_appointment_dignitaries")
	}

	insertQuery := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, NOW())`,
		schema.AppointmentDignitary.Table,
		schema.AppointmentDignitary.AppointmentID, schema.AppointmentDignitary.DignitaryID,
		schema.AppointmentDignitary.CreatedAt,
	)
	for _, dignitaryID := range dignitaryIDs {
		if _, err := transaction.Exec(context, insertQuery, appointmentID, dignitaryID); err != nil {
			return dberr.Wrap(err, "attach_appointment_dignitary")
		}
	}

	return transaction.Commit(context)
}
