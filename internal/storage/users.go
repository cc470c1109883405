package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/AlfeuAlves/autvya/internal/model"
)

// CreateUser inserts a new caregiver account. A duplicate email yields
// ErrConflict.
func (db *DB) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, name, consent_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.PasswordHash, user.Name, user.ConsentAt, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, fmt.Errorf("storage: create user: %w", ErrConflict)
		}
		return model.User{}, fmt.Errorf("storage: create user: %w", err)
	}
	return user, nil
}

// GetUser retrieves a user by ID.
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	var user model.User
	err := db.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, name, consent_at, created_at
		 FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.ConsentAt, &user.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return model.User{}, fmt.Errorf("storage: get user: %w", ErrNotFound)
		}
		return model.User{}, fmt.Errorf("storage: get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	err := db.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, name, consent_at, created_at
		 FROM users WHERE email = $1`, email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.ConsentAt, &user.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return model.User{}, fmt.Errorf("storage: get user by email: %w", ErrNotFound)
		}
		return model.User{}, fmt.Errorf("storage: get user by email: %w", err)
	}
	return user, nil
}
