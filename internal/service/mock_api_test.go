package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"holidaze/internal/api"
	"holidaze/internal/events"
	"holidaze/internal/models"
	"holidaze/internal/repository"
	"holidaze/internal/session"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Login(ctx context.Context, email, password string) (*models.AuthProfile, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthProfile), args.Error(1)
}
func (m *mockAPI) Register(ctx context.Context, req models.RegisterRequest) (*models.Profile, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}
func (m *mockAPI) UpdateProfile(ctx context.Context, token, name string, u models.ProfileUpdate) (*models.Profile, error) {
	args := m.Called(ctx, token, name, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}
func (m *mockAPI) ListVenues(ctx context.Context, q api.VenueQuery) (*models.VenuePage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VenuePage), args.Error(1)
}
func (m *mockAPI) GetVenue(ctx context.Context, id string) (*models.Venue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Venue), args.Error(1)
}
func (m *mockAPI) ManagerVenues(ctx context.Context, token, name string) ([]models.Venue, error) {
	args := m.Called(ctx, token, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Venue), args.Error(1)
}
func (m *mockAPI) CreateVenue(ctx context.Context, token string, in models.VenueInput) (*models.Venue, error) {
	args := m.Called(ctx, token, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Venue), args.Error(1)
}
func (m *mockAPI) UpdateVenue(ctx context.Context, token, id string, in models.VenueInput) (*models.Venue, error) {
	args := m.Called(ctx, token, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Venue), args.Error(1)
}
func (m *mockAPI) DeleteVenue(ctx context.Context, token, id string) error {
	return m.Called(ctx, token, id).Error(0)
}
func (m *mockAPI) CreateBooking(ctx context.Context, token string, req models.CreateBookingRequest, requestID string) (*models.Booking, error) {
	args := m.Called(ctx, token, req, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockAPI) ProfileBookings(ctx context.Context, token, name string) ([]models.Booking, error) {
	args := m.Called(ctx, token, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}
func (m *mockAPI) DeleteBooking(ctx context.Context, token, id string) error {
	return m.Called(ctx, token, id).Error(0)
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func newSession(t *testing.T) *session.Store {
	t.Helper()
	return session.NewStore(repository.NewMemorySessionRepository(), models.SessionKey, nopLogger())
}

func loggedIn(t *testing.T, name string, venueManager bool) *session.Store {
	t.Helper()
	s := newSession(t)
	require.NoError(t, s.Login(context.Background(), name, name+"@stud.noroff.no", nil, nil, "tok-"+name, venueManager))
	return s
}

// recorder collects published event types.
type recorder struct {
	bus   *events.EventBus
	types []string
}

func newRecorder() *recorder {
	r := &recorder{bus: events.NewEventBus()}
	r.bus.Subscribe(events.AllEvents, func(e *events.Event) error {
		r.types = append(r.types, e.Type)
		return nil
	})
	return r
}
