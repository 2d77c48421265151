package content

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clubdesk/clubdesk/internal/platform/db"
	"github.com/clubdesk/clubdesk/internal/shared"
)

// EventMutator persists club event records.
type EventMutator struct{}

// NewEventMutator constructs an EventMutator.
func NewEventMutator() *EventMutator {
	return &EventMutator{}
}

// Create inserts an event row from the submitted fields.
func (EventMutator) Create(ctx context.Context, q db.Querier, data map[string]any) (string, error) {
	title := stringField(data, "title")
	if title == "" {
		return "", fmt.Errorf("content: event title required: %w", shared.ErrValidation)
	}
	startsAt, err := timeField(data, "startsAt")
	if err != nil {
		return "", err
	}
	endsAt, err := timeField(data, "endsAt")
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = q.Exec(ctx, `INSERT INTO events (id, title, description, location, starts_at, ends_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`,
		id, title, stringField(data, "description"), stringField(data, "location"), startsAt, endsAt)
	if err != nil {
		return "", fmt.Errorf("content: create event: %w", err)
	}
	return id, nil
}

// Edit updates the fields present in data.
func (EventMutator) Edit(ctx context.Context, q db.Querier, id string, data map[string]any) error {
	startsAt, err := timeField(data, "startsAt")
	if err != nil {
		return err
	}
	endsAt, err := timeField(data, "endsAt")
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `UPDATE events SET
title = COALESCE($2, title),
description = COALESCE($3, description),
location = COALESCE($4, location),
starts_at = COALESCE($5, starts_at),
ends_at = COALESCE($6, ends_at),
updated_at = NOW()
WHERE id = $1`,
		id, optionalField(data, "title"), optionalField(data, "description"),
		optionalField(data, "location"), startsAt, endsAt)
	if err != nil {
		return fmt.Errorf("content: edit event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("content: event %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

// Delete removes an event row.
func (EventMutator) Delete(ctx context.Context, q db.Querier, id string) error {
	tag, err := q.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("content: delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("content: event %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func timeField(data map[string]any, key string) (*time.Time, error) {
	raw, ok := data[key]
	if !ok {
		return nil, nil
	}
	s, _ := raw.(string)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("content: %s must be RFC3339: %w", key, shared.ErrValidation)
	}
	return &t, nil
}
