package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "talaty/pkg/domain"
	audit "talaty/pkg/platform/audit"
	txcontext "talaty/pkg/platform/tx"
)

// Store persists audit events in the audit_logs table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append joins the caller's transaction when one is on the context.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_logs (
			id, created_at, user_id, actor_id, action, subject,
			decision, reason, request_id, ip_address, browser, os
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	var userID *uuid.UUID
	if !event.UserID.IsNil() {
		uid := uuid.UUID(event.UserID)
		userID = &uid
	}

	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.New(),
		event.Timestamp,
		userID,
		event.ActorID,
		string(event.Action),
		event.Subject,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.IP,
		event.Browser,
		event.OS,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByUser returns events for a user, oldest first.
func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	query := `
		SELECT created_at, user_id, actor_id, action, subject,
			   decision, reason, request_id, ip_address, browser, os
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event          audit.Event
			action         string
			userIDNullable *uuid.UUID
		)
		if err := rows.Scan(
			&event.Timestamp,
			&userIDNullable,
			&event.ActorID,
			&action,
			&event.Subject,
			&event.Decision,
			&event.Reason,
			&event.RequestID,
			&event.IP,
			&event.Browser,
			&event.OS,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = audit.Action(action)
		if userIDNullable != nil {
			event.UserID = id.UserID(*userIDNullable)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
