package service

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"holidaze/internal/domain"
	"holidaze/internal/events"
	"holidaze/internal/models"
	"holidaze/internal/session"
)

type BookingService struct {
	api      domain.BookingsAPI
	session  *session.Store
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewBookingService(api domain.BookingsAPI, sess *session.Store, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		api:      api,
		session:  sess,
		eventBus: eventBus,
		logger:   logger,
	}
}

// MyBookings returns the viewer's bookings ordered by check-in.
func (s *BookingService) MyBookings(ctx context.Context) ([]models.Booking, error) {
	user := s.session.User()
	if user == nil || !s.session.IsLoggedIn() {
		return nil, ErrLoginRequired
	}

	bookings, err := s.api.ProfileBookings(ctx, s.session.Token(), user.Name)
	if err != nil {
		s.logger.Error().Err(err).Str("user", user.Name).Msg("failed to fetch bookings")
		return nil, err
	}
	SortBookings(bookings)
	return bookings, nil
}

// SortBookings orders bookings by dateFrom, keeping the API order for ties.
func SortBookings(bookings []models.Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].DateFrom.Before(bookings[j].DateFrom)
	})
}

// Cancel deletes a booking and returns the list without it. On failure the
// list comes back unchanged together with the error.
func (s *BookingService) Cancel(ctx context.Context, bookings []models.Booking, id string) ([]models.Booking, error) {
	if !s.session.IsLoggedIn() {
		return bookings, ErrLoginRequired
	}

	if err := s.api.DeleteBooking(ctx, s.session.Token(), id); err != nil {
		s.logger.Warn().Err(err).Str("booking_id", id).Msg("failed to cancel booking")
		return bookings, err
	}

	out := make([]models.Booking, 0, len(bookings))
	var canceled *models.Booking
	for i := range bookings {
		if bookings[i].ID == id {
			canceled = &bookings[i]
			continue
		}
		out = append(out, bookings[i])
	}

	s.publishCanceled(id, canceled)
	s.logger.Info().Str("booking_id", id).Msg("booking canceled")
	return out, nil
}

func (s *BookingService) publishCanceled(id string, b *models.Booking) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{BookingID: id}
	if user := s.session.User(); user != nil {
		payload.UserName = user.Name
	}
	if b != nil {
		payload.DateFrom = b.DateFrom
		payload.DateTo = b.DateTo
		payload.Guests = b.Guests
		if b.Venue != nil {
			payload.VenueID = b.Venue.ID
			payload.VenueName = b.Venue.Name
		}
	}
	if err := s.eventBus.PublishJSON(events.EventBookingCanceled, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish booking event")
	}
}
