// Copyright (c) 2026 Atithi. All rights reserved.
// Author: dev@atithi.app

package access

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atithi/atithi/internal/platform/database/schema"
	"github.com/atithi/atithi/internal/platform/dberr"
)

// PostgresRepository implements [Repository] and [RecencyReader] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL implementation of the grant store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// grantColumns is the canonical SELECT column list for grant rows.
func grantColumns() string {
	t := schema.AccessGrant
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
		t.ID, t.UserID, t.CountryCode, t.LocationID, t.AccessLevel, t.EntityType,
		t.ExpiryDate, t.IsActive, t.Reason, t.CreatedBy, t.UpdatedBy, t.CreatedAt, t.UpdatedAt,
	)
}

// scanGrant hydrates a single grant row.
func scanGrant(row interface{ Scan(dest ...any) error }) (*Grant, error) {
	grant := &Grant{}
	err := row.Scan(
		&grant.ID, &grant.UserID, &grant.CountryCode, &grant.LocationID,
		&grant.Level, &grant.EntityType, &grant.ExpiryDate, &grant.IsActive,
		&grant.Reason, &grant.CreatedBy, &grant.UpdatedBy, &grant.CreatedAt, &grant.UpdatedAt,
	)
	return grant, err
}

// ListEffective returns active, non-expired grants matching the entity-type
// and level sets. Expiry is enforced in SQL: a grant past its expiry date is
// invisible to the evaluator even while is_active is still set.
func (repository *PostgresRepository) ListEffective(ctx context.Context, userID string, entityTypes []EntityType, levels []Level) ([]*Grant, error) {
	t := schema.AccessGrant
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1
		  AND %s = true
		  AND (%s IS NULL OR %s >= CURRENT_DATE)
		  AND %s = ANY($2)
		  AND %s = ANY($3)
	`,
		grantColumns(), t.Table, t.UserID, t.IsActive,
		t.ExpiryDate, t.ExpiryDate, t.EntityType, t.AccessLevel,
	)

	entityTypeNames := make([]string, len(entityTypes))
	for i, entityType := range entityTypes {
		entityTypeNames[i] = string(entityType)
	}
	levelNames := make([]string, len(levels))
	for i, level := range levels {
		levelNames[i] = string(level)
	}

	rows, err := repository.db.Query(ctx, query, userID, entityTypeNames, levelNames)
	if err != nil {
		return nil, dberr.Wrap(err, "list_effective_grants")
	}
	defer rows.Close()

	var grants []*Grant
	for rows.Next() {
		grant, err := scanGrant(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_grant")
		}
		grants = append(grants, grant)
	}

	return grants, nil
}

// ListByUser returns every grant row for a user, including inactive and
// expired ones, newest first.
func (repository *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*Grant, error) {
	t := schema.AccessGrant
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s DESC
	`, grantColumns(), t.Table, t.UserID, t.CreatedAt)

	rows, err := repository.db.Query(ctx, query, userID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_grants_by_user")
	}
	defer rows.Close()

	var grants []*Grant
	for rows.Next() {
		grant, err := scanGrant(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_grant")
		}
		grants = append(grants, grant)
	}

	return grants, nil
}

// FindByID returns a single grant by primary key.
func (repository *PostgresRepository) FindByID(ctx context.Context, id int) (*Grant, error) {
	t := schema.AccessGrant
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, grantColumns(), t.Table, t.ID)

	grant, err := scanGrant(repository.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "find_grant")
	}
	return grant, nil
}

// Create inserts a new grant and backfills its ID and timestamps.
func (repository *PostgresRepository) Create(ctx context.Context, grant *Grant) error {
	t := schema.AccessGrant
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING %s, %s, %s
	`,
		t.Table, t.UserID, t.CountryCode, t.LocationID, t.AccessLevel, t.EntityType,
		t.ExpiryDate, t.IsActive, t.Reason, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
		t.ID, t.CreatedAt, t.UpdatedAt,
	)

	err := repository.db.QueryRow(ctx, query,
		grant.UserID, grant.CountryCode, grant.LocationID, grant.Level, grant.EntityType,
		grant.ExpiryDate, grant.IsActive, grant.Reason, grant.CreatedBy,
	).Scan(&grant.ID, &grant.CreatedAt, &grant.UpdatedAt)

	return dberr.Wrap(err, "create_grant")
}

// Update persists the full state of an existing grant.
func (repository *PostgresRepository) Update(ctx context.Context, grant *Grant) error {
	t := schema.AccessGrant
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8, %s = $9, %s = NOW()
		WHERE %s = $1
		RETURNING %s
	`,
		t.Table, t.CountryCode, t.LocationID, t.AccessLevel, t.EntityType,
		t.ExpiryDate, t.IsActive, t.Reason, t.UpdatedBy, t.UpdatedAt,
		t.ID, t.UpdatedAt,
	)

	err := repository.db.QueryRow(ctx, query,
		grant.ID, grant.CountryCode, grant.LocationID, grant.Level, grant.EntityType,
		grant.ExpiryDate, grant.IsActive, grant.Reason, grant.UpdatedBy,
	).Scan(&grant.UpdatedAt)

	return dberr.Wrap(err, "update_grant")
}

// Delete removes a grant permanently (hard delete).
func (repository *PostgresRepository) Delete(ctx context.Context, id int) error {
	t := schema.AccessGrant
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, t.Table, t.ID)

	cmd, err := repository.db.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_grant")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// # Derived Access Queries

// HasRecentAppointment reports whether a dignitary appears on an appointment
// within the recency window at a location covered by the scope.
//
// An empty scope answers false without touching the database.
func (repository *PostgresRepository) HasRecentAppointment(ctx context.Context, dignitaryID int, since time.Time, scope Scope) (bool, error) {
	if scope.IsEmpty() {
		return false, nil
	}

	join := schema.AppointmentDignitary
	appt := schema.Appointment
	loc := schema.Location

	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1
			FROM %s ad
			JOIN %s a ON a.%s = ad.%s
			JOIN %s l ON l.%s = a.%s
			WHERE ad.%s = $1
			  AND a.%s IS NULL
			  AND (a.%s >= $2 OR a.%s >= $2)
	`,
		join.Table,
		appt.Table, appt.ID, join.AppointmentID,
		loc.Table, loc.ID, appt.LocationID,
		join.DignitaryID,
		appt.DeletedAt,
		appt.PreferredDate, appt.AppointmentDate,
	)

	args := []any{dignitaryID, since}
	if !scope.All {
		query += fmt.Sprintf("  AND (l.%s = ANY($3) OR a.%s = ANY($4))\n", loc.CountryCode, appt.LocationID)
		args = append(args, scope.Countries, scope.LocationIDs)
	}
	query += ")"

	var exists bool
	if err := repository.db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, dberr.Wrap(err, "dignitary_recent_appointment")
	}

	return exists, nil
}
