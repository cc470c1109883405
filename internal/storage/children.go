package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/AlfeuAlves/autvya/internal/model"
)

// CreateChild inserts a new child profile. Zero-value phase and timezone
// get the defaults for a fresh profile.
func (db *DB) CreateChild(ctx context.Context, child model.Child) (model.Child, error) {
	if child.ID == uuid.Nil {
		child.ID = uuid.New()
	}
	if child.Phase == "" {
		child.Phase = model.PhaseConnection
	}
	if child.Timezone == "" {
		child.Timezone = "UTC"
	}
	if child.SensoryConfig == nil {
		child.SensoryConfig = map[string]any{}
	}
	now := time.Now().UTC()
	if child.CreatedAt.IsZero() {
		child.CreatedAt = now
	}
	child.UpdatedAt = now

	_, err := db.pool.Exec(ctx,
		`INSERT INTO children (id, user_id, name, age, phase, timezone, sensory_config, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		child.ID, child.UserID, child.Name, child.Age, string(child.Phase),
		child.Timezone, child.SensoryConfig, child.CreatedAt, child.UpdatedAt,
	)
	if err != nil {
		return model.Child{}, fmt.Errorf("storage: create child: %w", err)
	}
	return child, nil
}

// GetChild retrieves a child by ID.
func (db *DB) GetChild(ctx context.Context, id uuid.UUID) (model.Child, error) {
	var child model.Child
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, name, age, phase, timezone, sensory_config, created_at, updated_at
		 FROM children WHERE id = $1`, id,
	).Scan(
		&child.ID, &child.UserID, &child.Name, &child.Age, &child.Phase,
		&child.Timezone, &child.SensoryConfig, &child.CreatedAt, &child.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return model.Child{}, fmt.Errorf("storage: get child: %w", ErrNotFound)
		}
		return model.Child{}, fmt.Errorf("storage: get child: %w", err)
	}
	return child, nil
}

// ListChildren returns all children of a user with their total interaction
// counts, oldest profile first.
func (db *DB) ListChildren(ctx context.Context, userID uuid.UUID) ([]model.ChildWithCount, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT c.id, c.user_id, c.name, c.age, c.phase, c.timezone, c.sensory_config,
		 c.created_at, c.updated_at, COUNT(i.id)
		 FROM children c
		 LEFT JOIN interactions i ON i.child_id = c.id
		 WHERE c.user_id = $1
		 GROUP BY c.id
		 ORDER BY c.created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list children: %w", err)
	}
	defer rows.Close()

	children := []model.ChildWithCount{}
	for rows.Next() {
		var c model.ChildWithCount
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Name, &c.Age, &c.Phase, &c.Timezone,
			&c.SensoryConfig, &c.CreatedAt, &c.UpdatedAt, &c.InteractionCount,
		); err != nil {
			return nil, fmt.Errorf("storage: scan child: %w", err)
		}
		children = append(children, c)
	}
	return children, rows.Err()
}

// UpdateChild persists all mutable fields of a child profile.
func (db *DB) UpdateChild(ctx context.Context, child model.Child) (model.Child, error) {
	child.UpdatedAt = time.Now().UTC()
	tag, err := db.pool.Exec(ctx,
		`UPDATE children SET name = $1, age = $2, phase = $3, timezone = $4,
		 sensory_config = $5, updated_at = $6 WHERE id = $7`,
		child.Name, child.Age, string(child.Phase), child.Timezone,
		child.SensoryConfig, child.UpdatedAt, child.ID,
	)
	if err != nil {
		return model.Child{}, fmt.Errorf("storage: update child: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Child{}, fmt.Errorf("storage: update child: %w", ErrNotFound)
	}
	return child, nil
}

// DeleteChild removes a child profile. Interactions cascade at the
// database level.
func (db *DB) DeleteChild(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM children WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("storage: delete child: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage: delete child: %w", ErrNotFound)
	}
	return nil
}
