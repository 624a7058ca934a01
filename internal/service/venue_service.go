package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"holidaze/internal/api"
	"holidaze/internal/availability"
	"holidaze/internal/domain"
	"holidaze/internal/models"
	"holidaze/internal/session"
	"holidaze/internal/validation"
)

// Quote is the price preview for a date selection.
type Quote struct {
	Nights      int                    `json:"nights"`
	TotalPrice  float64                `json:"totalPrice"`
	Provisional bool                   `json:"provisional"`
	Errors      validation.FieldErrors `json:"errors,omitempty"`
}

type VenueService struct {
	venues    domain.VenuesAPI
	bookings  domain.BookingsAPI
	session   *session.Store
	calc      *availability.Calculator
	publisher domain.EventPublisher
	logger    *zerolog.Logger
}

func NewVenueService(venues domain.VenuesAPI, bookings domain.BookingsAPI, sess *session.Store, calc *availability.Calculator, publisher domain.EventPublisher, logger *zerolog.Logger) *VenueService {
	if calc == nil {
		calc = availability.NewCalculator()
	}
	return &VenueService{
		venues:    venues,
		bookings:  bookings,
		session:   sess,
		calc:      calc,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *VenueService) List(ctx context.Context, q api.VenueQuery) (*models.VenuePage, error) {
	return s.venues.ListVenues(ctx, q)
}

func (s *VenueService) Get(ctx context.Context, id string) (*models.Venue, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, validation.FieldErrors{"id": "Venue id is required"}
	}
	return s.venues.GetVenue(ctx, id)
}

// BlockedDates joins the venue's bookings with the viewer's own bookings.
// A failure to load the viewer's bookings is logged and ignored.
func (s *VenueService) BlockedDates(ctx context.Context, venue *models.Venue) availability.BlockedDateSet {
	lists := [][]models.Booking{venue.Bookings}

	if user := s.session.User(); user != nil && s.session.IsLoggedIn() {
		mine, err := s.bookings.ProfileBookings(ctx, s.session.Token(), user.Name)
		if err != nil {
			s.logger.Warn().Err(err).Str("user", user.Name).Msg("own bookings unavailable for blocked dates")
		} else {
			lists = append(lists, mine)
		}
	}

	set := s.calc.Calculate(lists...)
	if len(set.Invalid) > 0 {
		s.logger.Warn().Strs("booking_ids", set.Invalid).Str("venue_id", venue.ID).Msg("bookings with invalid dates skipped")
	}
	return set
}

// Quote prices a selection without submitting anything.
func (s *VenueService) Quote(ctx context.Context, venue *models.Venue, form validation.BookingForm) Quote {
	q := Quote{
		Nights:      Nights(form.StartDate, form.EndDate),
		TotalPrice:  TotalPrice(venue.Price, form.StartDate, form.EndDate),
		Provisional: form.StartDate.IsZero() || form.EndDate.IsZero(),
	}

	fe := validation.NewBookingValidator(venue.MaxGuests).Validate(form)
	if fe == nil && s.BlockedDates(ctx, venue).OverlapsRange(form.StartDate, form.EndDate) {
		fe = validation.FieldErrors{"dates": ErrDatesUnavailable.Error()}
	}
	q.Errors = fe
	return q
}

// NewFlow loads a venue and prepares its booking flow. For the owner it
// returns the OwnerNotice and ErrVenueOwner.
func (s *VenueService) NewFlow(ctx context.Context, venueID string) (*models.Venue, *BookingFlow, *OwnerNotice, error) {
	venue, err := s.Get(ctx, venueID)
	if err != nil {
		return nil, nil, nil, err
	}

	opts := []FlowOption{WithBlockedDates(s.BlockedDates(ctx, venue))}
	if s.publisher != nil {
		opts = append(opts, WithFlowPublisher(s.publisher))
	}
	flow, notice, err := NewBookingFlow(venue, s.session, s.bookings, s.logger, opts...)
	return venue, flow, notice, err
}
