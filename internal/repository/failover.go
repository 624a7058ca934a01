package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"holidaze/internal/domain"
	"holidaze/internal/models"
)

const recoveryInterval = time.Minute

// FailoverSessionRepository writes to primary and switches to fallback
// while primary is failing. Primary is retried once per recoveryInterval.
type FailoverSessionRepository struct {
	primary  domain.SessionRepository
	fallback domain.SessionRepository
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// usePrimary reports whether the next call should go to primary.
func (r *FailoverSessionRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) > recoveryInterval {
		r.lastCheck = time.Now()
		return true
	}
	return false
}

func (r *FailoverSessionRepository) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary session repository failed, falling back")
	}
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

func (r *FailoverSessionRepository) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary session repository recovered")
	}
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, key string) (*models.Session, error) {
	if r.usePrimary() {
		session, err := r.primary.GetSession(ctx, key)
		if err == nil {
			r.markUp()
			return session, nil
		}
		r.markDown(err)
	}
	return r.fallback.GetSession(ctx, key)
}

func (r *FailoverSessionRepository) SaveSession(ctx context.Context, key string, session *models.Session) error {
	// The fallback mirrors every write.
	if err := r.fallback.SaveSession(ctx, key, session); err != nil {
		return err
	}
	if r.usePrimary() {
		if err := r.primary.SaveSession(ctx, key, session); err != nil {
			r.markDown(err)
			return nil
		}
		r.markUp()
	}
	return nil
}

func (r *FailoverSessionRepository) ClearSession(ctx context.Context, key string) error {
	if err := r.fallback.ClearSession(ctx, key); err != nil {
		return err
	}
	if r.usePrimary() {
		if err := r.primary.ClearSession(ctx, key); err != nil {
			r.markDown(err)
			return nil
		}
		r.markUp()
	}
	return nil
}
