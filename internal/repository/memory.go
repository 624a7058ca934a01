package repository

import (
	"context"
	"sync"

	"holidaze/internal/models"
)

// MemorySessionRepository keeps sessions for the lifetime of the process.
type MemorySessionRepository struct {
	sessions sync.Map // map[string]models.Session
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{}
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, key string) (*models.Session, error) {
	val, ok := r.sessions.Load(key)
	if !ok {
		return nil, nil
	}
	s := val.(models.Session).Clone()
	return &s, nil
}

func (r *MemorySessionRepository) SaveSession(ctx context.Context, key string, session *models.Session) error {
	if session == nil {
		r.sessions.Delete(key)
		return nil
	}
	r.sessions.Store(key, session.Clone())
	return nil
}

func (r *MemorySessionRepository) ClearSession(ctx context.Context, key string) error {
	r.sessions.Delete(key)
	return nil
}
