package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/AlfeuAlves/autvya/internal/model"
)

// CreateInteraction inserts a single interaction event.
func (db *DB) CreateInteraction(ctx context.Context, ev model.InteractionEvent) (model.InteractionEvent, error) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	now := time.Now().UTC()
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = now
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO interactions (id, child_id, button, occurred_at, session_duration_secs, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.ID, ev.ChildID, ev.Button, ev.OccurredAt, ev.SessionDurationSecs, ev.CreatedAt,
	)
	if err != nil {
		return model.InteractionEvent{}, fmt.Errorf("storage: create interaction: %w", err)
	}
	return ev, nil
}

// InsertInteractions inserts events using the COPY protocol. Missing IDs
// and timestamps are filled in before the copy.
func (db *DB) InsertInteractions(ctx context.Context, events []model.InteractionEvent) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}

	columns := []string{"id", "child_id", "button", "occurred_at", "session_duration_secs", "created_at"}

	now := time.Now().UTC()
	rows := make([][]any, len(events))
	for i, ev := range events {
		if ev.ID == uuid.Nil {
			ev.ID = uuid.New()
		}
		if ev.OccurredAt.IsZero() {
			ev.OccurredAt = now
		}
		if ev.CreatedAt.IsZero() {
			ev.CreatedAt = now
		}
		rows[i] = []any{ev.ID, ev.ChildID, ev.Button, ev.OccurredAt, ev.SessionDurationSecs, ev.CreatedAt}
	}

	// Dedicated COPY timeout prevents a hung Postgres from blocking a
	// batch submission indefinitely.
	copyCtx, copyCancel := context.WithTimeout(ctx, 30*time.Second)
	defer copyCancel()

	copied, err := db.pool.CopyFrom(
		copyCtx,
		pgx.Identifier{"interactions"},
		columns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: copy interactions: %w", err)
	}
	return copied, nil
}

// ListInteractionsSince returns a child's events from since onward, oldest
// first, ready for chronological aggregation.
func (db *DB) ListInteractionsSince(ctx context.Context, childID uuid.UUID, since time.Time) ([]model.InteractionEvent, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, child_id, button, occurred_at, session_duration_secs, created_at
		 FROM interactions
		 WHERE child_id = $1 AND occurred_at >= $2
		 ORDER BY occurred_at ASC`,
		childID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list interactions: %w", err)
	}
	defer rows.Close()

	return scanInteractions(rows)
}

// ListRecentInteractions returns a child's newest events, newest first.
func (db *DB) ListRecentInteractions(ctx context.Context, childID uuid.UUID, limit int) ([]model.InteractionEvent, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, child_id, button, occurred_at, session_duration_secs, created_at
		 FROM interactions
		 WHERE child_id = $1
		 ORDER BY occurred_at DESC
		 LIMIT $2`,
		childID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list recent interactions: %w", err)
	}
	defer rows.Close()

	return scanInteractions(rows)
}

// CountInteractions returns a child's total event count.
func (db *DB) CountInteractions(ctx context.Context, childID uuid.UUID) (int64, error) {
	var count int64
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM interactions WHERE child_id = $1`, childID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("storage: count interactions: %w", err)
	}
	return count, nil
}

func scanInteractions(rows pgx.Rows) ([]model.InteractionEvent, error) {
	events := []model.InteractionEvent{}
	for rows.Next() {
		var ev model.InteractionEvent
		if err := rows.Scan(
			&ev.ID, &ev.ChildID, &ev.Button, &ev.OccurredAt,
			&ev.SessionDurationSecs, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("storage: scan interaction: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
