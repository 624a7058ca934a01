package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"holidaze/internal/domain"
	"holidaze/internal/models"
	"holidaze/internal/session"
	"holidaze/internal/validation"
)

type AuthService struct {
	api     domain.AccountAPI
	session *session.Store
	logger  *zerolog.Logger
}

func NewAuthService(api domain.AccountAPI, sess *session.Store, logger *zerolog.Logger) *AuthService {
	return &AuthService{
		api:     api,
		session: sess,
		logger:  logger,
	}
}

// Login validates the form, authenticates and replaces the session.
// Validation failures come back as validation.FieldErrors.
func (s *AuthService) Login(ctx context.Context, form validation.LoginForm) (*models.AuthProfile, error) {
	clean, fe := validation.ValidateLogin(form)
	if fe != nil {
		return nil, fe
	}

	profile, err := s.api.Login(ctx, clean.Email, clean.Password)
	if err != nil {
		s.logger.Warn().Err(err).Str("email", clean.Email).Msg("login failed")
		return nil, err
	}

	if err := s.session.LoginProfile(ctx, profile); err != nil {
		return profile, fmt.Errorf("logged in but session not saved: %w", err)
	}
	s.logger.Info().Str("user", profile.Name).Bool("venue_manager", profile.VenueManager).Msg("logged in")
	return profile, nil
}

// Register creates the account. The caller logs in afterwards.
func (s *AuthService) Register(ctx context.Context, form validation.RegisterForm) (*models.Profile, error) {
	clean, fe := validation.ValidateRegister(form)
	if fe != nil {
		return nil, fe
	}

	profile, err := s.api.Register(ctx, NewRegisterRequest(clean))
	if err != nil {
		s.logger.Warn().Err(err).Str("name", clean.Name).Msg("registration failed")
		return nil, err
	}
	s.logger.Info().Str("user", clean.Name).Msg("registered")
	return profile, nil
}

// NewRegisterRequest fills in the avatar object the API expects.
func NewRegisterRequest(form validation.RegisterForm) models.RegisterRequest {
	avatar := models.Media{URL: models.DefaultAvatarURL, Alt: models.DefaultAvatarAlt}
	if form.Avatar != "" {
		avatar = models.Media{URL: form.Avatar, Alt: form.Name + "'s profile picture"}
	}
	return models.RegisterRequest{
		Name:         form.Name,
		Email:        form.Email,
		Password:     form.Password,
		Avatar:       avatar,
		VenueManager: form.VenueManager,
	}
}

func (s *AuthService) Logout(ctx context.Context) error {
	return s.session.Logout(ctx)
}
