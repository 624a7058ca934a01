package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"holidaze/internal/database"
	"holidaze/internal/models"
)

// SQLiteSessionRepository stores the session as JSON in the local key/value
// database so it survives between CLI runs.
type SQLiteSessionRepository struct {
	db *database.DB
}

func NewSQLiteSessionRepository(db *database.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

func (r *SQLiteSessionRepository) GetSession(ctx context.Context, key string) (*models.Session, error) {
	val, err := r.db.Get(ctx, key)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *SQLiteSessionRepository) SaveSession(ctx context.Context, key string, session *models.Session) error {
	if session == nil {
		return r.ClearSession(ctx, key)
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.db.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepository) ClearSession(ctx context.Context, key string) error {
	if err := r.db.Remove(ctx, key); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
