// Copyright (c) 2026 Atithi. All rights reserved.
// Author: dev@atithi.app

/*
Package audit persists an append-only trail of sensitive mutations.

Hard-deleted records (access grants in particular) are snapshotted here
before removal so delegation history is never lost. Entries are write-once:
no update or delete surface exists.
*/
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Entry is one audit record.
type Entry struct {
	ID         int             `json:"id"`
	ActorID    string          `json:"actor_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	IPAddress  *string         `json:"ip_address,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Repository defines the data access contract for audit entries.
type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]*Entry, int, error)
}

// Service records audit entries on behalf of domain services.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService constructs a new [Service].
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{repository: repository, logger: logger}
}

/*
Record serializes the before/after snapshots and persists one entry.

Parameters:
  - ctx: context.Context
  - actorID: The user performing the mutation
  - action: Machine-readable action name (e.g. "access_grant_deleted")
  - entityType, entityID: The affected entity
  - before, after: JSON-serializable snapshots; nil omits the field

Returns:
  - error: Serialization or storage failures
*/
func (service *Service) Record(ctx context.Context, actorID, action, entityType, entityID string, before, after any) error {
	entry := &Entry{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}

	var err error
	if entry.Before, err = marshalSnapshot(before); err != nil {
		return fmt.Errorf("audit_service_marshal_before_failed: %w", err)
	}
	if entry.After, err = marshalSnapshot(after); err != nil {
		return fmt.Errorf("audit_service_marshal_after_failed: %w", err)
	}

	if err := service.repository.Insert(ctx, entry); err != nil {
		return fmt.Errorf("audit_service_record_failed: %w", err)
	}

	service.logger.Info("audit_entry_recorded",
		slog.String("action", action),
		slog.String("entity_type", entityType),
		slog.String("entity_id", entityID),
		slog.String("actor_id", actorID),
	)

	return nil
}

// History returns the audit trail for one entity, newest first.
func (service *Service) History(ctx context.Context, entityType, entityID string, limit, offset int) ([]*Entry, int, error) {
	return service.repository.ListByEntity(ctx, entityType, entityID, limit, offset)
}

// marshalSnapshot converts a snapshot value to JSON, passing nil through.
func marshalSnapshot(value any) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	return json.Marshal(value)
}
