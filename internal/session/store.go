// Package session holds the single authoritative auth session of the running
// process and persists every change through a SessionRepository.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"holidaze/internal/domain"
	"holidaze/internal/events"
	"holidaze/internal/models"
)

// Store is safe for concurrent use. Readers always get copies.
type Store struct {
	mu    sync.Mutex
	state models.Session

	repo      domain.SessionRepository
	key       string
	logger    *zerolog.Logger
	publisher domain.EventPublisher
	now       func() time.Time
}

type Option func(*Store)

// WithPublisher emits session_login, session_logout and session_expired events.
func WithPublisher(p domain.EventPublisher) Option {
	return func(s *Store) { s.publisher = p }
}

// WithClock overrides the clock used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore starts logged out. Call Load to restore a persisted session.
func NewStore(repo domain.SessionRepository, key string, logger *zerolog.Logger, opts ...Option) *Store {
	if key == "" {
		key = models.SessionKey
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &Store{
		repo:   repo,
		key:    key,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load restores the persisted session. A stored token whose JWT exp claim is
// in the past is discarded and the store stays logged out.
func (s *Store) Load(ctx context.Context) error {
	stored, err := s.repo.GetSession(ctx, s.key)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load session")
		return fmt.Errorf("load session: %w", err)
	}
	if stored == nil {
		return nil
	}

	if stored.IsLoggedIn && tokenExpired(stored.Token, s.now()) {
		name := ""
		if stored.User != nil {
			name = stored.User.Name
		}
		s.logger.Info().Str("user", name).Msg("stored session token expired")

		s.mu.Lock()
		s.state = models.Session{}
		err := s.persistLocked(ctx)
		s.mu.Unlock()

		s.publish(events.EventSessionExpired, events.SessionEventPayload{UserName: name, Reason: "token expired"})
		return err
	}

	s.mu.Lock()
	s.state = stored.Clone()
	s.mu.Unlock()
	return nil
}

// tokenExpired inspects the token without verifying its signature. Tokens
// that are not JWTs or carry no exp claim never expire here.
func tokenExpired(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

// Login replaces the whole session in one step.
func (s *Store) Login(ctx context.Context, name, email string, avatar, banner *models.Media, token string, venueManager bool) error {
	return s.replace(ctx, newSessionUser(name, email, "", avatar, banner), token, venueManager)
}

// LoginProfile logs in with a login response, bio included, in a single save.
func (s *Store) LoginProfile(ctx context.Context, p *models.AuthProfile) error {
	return s.replace(ctx, newSessionUser(p.Name, p.Email, p.Bio, p.Avatar, p.Banner), p.AccessToken, p.VenueManager)
}

func newSessionUser(name, email, bio string, avatar, banner *models.Media) *models.SessionUser {
	user := &models.SessionUser{Name: name, Email: email, Bio: bio}
	if avatar != nil {
		a := *avatar
		user.Avatar = &a
	}
	if banner != nil {
		b := *banner
		user.Banner = &b
	}
	return user
}

func (s *Store) replace(ctx context.Context, user *models.SessionUser, token string, venueManager bool) error {
	s.mu.Lock()
	s.state = models.Session{
		User:           user,
		Token:          token,
		IsLoggedIn:     true,
		IsVenueManager: venueManager,
	}
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(events.EventSessionLogin, events.SessionEventPayload{UserName: user.Name, VenueManager: venueManager})
	return err
}

// Logout clears the session in one step.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	name := ""
	if s.state.User != nil {
		name = s.state.User.Name
	}
	s.state = models.Session{}
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	if name != "" {
		s.publish(events.EventSessionLogout, events.SessionEventPayload{UserName: name})
	}
	return err
}

func (s *Store) UpdateAvatar(ctx context.Context, avatar models.Media) error {
	return s.updateUser(ctx, func(st *models.Session) { st.User.Avatar = &avatar })
}

func (s *Store) UpdateBanner(ctx context.Context, banner models.Media) error {
	return s.updateUser(ctx, func(st *models.Session) { st.User.Banner = &banner })
}

func (s *Store) UpdateBio(ctx context.Context, bio string) error {
	return s.updateUser(ctx, func(st *models.Session) { st.User.Bio = bio })
}

func (s *Store) UpdateVenueManager(ctx context.Context, venueManager bool) error {
	return s.updateUser(ctx, func(st *models.Session) { st.IsVenueManager = venueManager })
}

// updateUser applies fn to a copy and swaps it in. Without a logged-in user
// it does nothing.
func (s *Store) updateUser(ctx context.Context, fn func(*models.Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.User == nil {
		return nil
	}
	next := s.state.Clone()
	fn(&next)
	s.state = next
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	var err error
	if s.state.IsLoggedIn {
		snapshot := s.state.Clone()
		err = s.repo.SaveSession(ctx, s.key, &snapshot)
	} else {
		err = s.repo.ClearSession(ctx, s.key)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("failed to persist session")
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (s *Store) publish(eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish session event")
	}
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// User returns a copy of the logged-in user, or nil.
func (s *Store) User() *models.SessionUser {
	snap := s.Snapshot()
	return snap.User
}

func (s *Store) IsLoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsLoggedIn
}

func (s *Store) IsVenueManager() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsVenueManager
}
