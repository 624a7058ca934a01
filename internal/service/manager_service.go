package service

import (
	"context"

	"github.com/rs/zerolog"

	"holidaze/internal/domain"
	"holidaze/internal/events"
	"holidaze/internal/models"
	"holidaze/internal/session"
	"holidaze/internal/validation"
)

// ManagerService covers the venue-manager dashboard.
type ManagerService struct {
	api      domain.VenuesAPI
	session  *session.Store
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewManagerService(api domain.VenuesAPI, sess *session.Store, eventBus domain.EventPublisher, logger *zerolog.Logger) *ManagerService {
	return &ManagerService{
		api:      api,
		session:  sess,
		eventBus: eventBus,
		logger:   logger,
	}
}

func (s *ManagerService) manager() (token, name string, err error) {
	snap := s.session.Snapshot()
	if !snap.IsLoggedIn || snap.User == nil {
		return "", "", ErrLoginRequired
	}
	if !snap.IsVenueManager {
		return "", "", ErrNotVenueManager
	}
	return snap.Token, snap.User.Name, nil
}

// Venues lists the manager's venues with their bookings.
func (s *ManagerService) Venues(ctx context.Context) ([]models.Venue, error) {
	token, name, err := s.manager()
	if err != nil {
		return nil, err
	}
	venues, err := s.api.ManagerVenues(ctx, token, name)
	if err != nil {
		s.logger.Error().Err(err).Str("user", name).Msg("failed to fetch manager venues")
		return nil, err
	}
	return venues, nil
}

func (s *ManagerService) Create(ctx context.Context, in models.VenueInput) (*models.Venue, error) {
	token, name, err := s.manager()
	if err != nil {
		return nil, err
	}
	clean, fe := validation.ValidateVenue(in)
	if fe != nil {
		return nil, fe
	}

	venue, err := s.api.CreateVenue(ctx, token, clean)
	if err != nil {
		s.logger.Warn().Err(err).Str("user", name).Msg("failed to create venue")
		return nil, err
	}
	s.logger.Info().Str("venue_id", venue.ID).Msg("venue created")
	s.publish(events.EventVenueCreated, venue.ID, venue.Name, name)
	return venue, nil
}

func (s *ManagerService) Update(ctx context.Context, id string, in models.VenueInput) (*models.Venue, error) {
	token, name, err := s.manager()
	if err != nil {
		return nil, err
	}
	clean, fe := validation.ValidateVenue(in)
	if fe != nil {
		return nil, fe
	}

	venue, err := s.api.UpdateVenue(ctx, token, id, clean)
	if err != nil {
		s.logger.Warn().Err(err).Str("venue_id", id).Msg("failed to update venue")
		return nil, err
	}
	s.publish(events.EventVenueUpdated, id, clean.Name, name)
	return venue, nil
}

func (s *ManagerService) Delete(ctx context.Context, id string) error {
	token, name, err := s.manager()
	if err != nil {
		return err
	}
	if err := s.api.DeleteVenue(ctx, token, id); err != nil {
		s.logger.Warn().Err(err).Str("venue_id", id).Msg("failed to delete venue")
		return err
	}
	s.logger.Info().Str("venue_id", id).Msg("venue deleted")
	s.publish(events.EventVenueDeleted, id, "", name)
	return nil
}

func (s *ManagerService) publish(eventType, id, venueName, owner string) {
	if s.eventBus == nil {
		return
	}
	payload := events.VenueEventPayload{VenueID: id, Name: venueName, Owner: owner}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish venue event")
	}
}
