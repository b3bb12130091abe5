// Copyright (c) 2026 Atithi. All rights reserved.
// Author: dev@atithi.app

package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atithi/atithi/internal/platform/database/schema"
	"github.com/atithi/atithi/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL implementation of the audit store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert appends one audit entry.
func (repository *PostgresRepository) Insert(ctx context.Context, entry *Entry) error {
	t := schema.SystemAuditLog
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING %s, %s
	`,
		t.Table, t.ActorID, t.Action, t.EntityType, t.EntityID, t.Before, t.After, t.IPAddress, t.CreatedAt,
		t.ID, t.CreatedAt,
	)

	err := repository.db.QueryRow(ctx, query,
		entry.ActorID, entry.Action, entry.EntityType, entry.EntityID,
		entry.Before, entry.After, entry.IPAddress,
	).Scan(&entry.ID, &entry.CreatedAt)

	return dberr.Wrap(err, "insert_audit_entry")
}

// ListByEntity returns the trail for one entity, newest first.
func (repository *PostgresRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]*Entry, int, error) {
	t := schema.SystemAuditLog

	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s = $1 AND %s = $2`,
		t.Table, t.EntityType, t.EntityID)

	var total int
	if err := repository.db.QueryRow(ctx, countQuery, entityType, entityID).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_audit_entries")
	}

	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = $2
		ORDER BY %s DESC
		LIMIT $3 OFFSET $4
	`,
		t.ID, t.ActorID, t.Action, t.EntityType, t.EntityID, t.Before, t.After, t.IPAddress, t.CreatedAt,
		t.Table, t.EntityType, t.EntityID, t.CreatedAt,
	)

	rows, err := repository.db.Query(ctx, query, entityType, entityID, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_audit_entries")
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry := &Entry{}
		if err := rows.Scan(
			&entry.ID, &entry.ActorID, &entry.Action, &entry.EntityType, &entry.EntityID,
			&entry.Before, &entry.After, &entry.IPAddress, &entry.CreatedAt,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_audit_entry")
		}
		entries = append(entries, entry)
	}

	return entries, total, nil
}
