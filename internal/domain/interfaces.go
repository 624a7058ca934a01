package domain

import (
	"context"

	"holidaze/internal/api"
	"holidaze/internal/models"
)

// SessionRepository persists the auth session under a storage key.
// GetSession returns nil, nil when nothing is stored.
type SessionRepository interface {
	GetSession(ctx context.Context, key string) (*models.Session, error)
	SaveSession(ctx context.Context, key string, session *models.Session) error
	ClearSession(ctx context.Context, key string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type AccountAPI interface {
	Login(ctx context.Context, email, password string) (*models.AuthProfile, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.Profile, error)
	UpdateProfile(ctx context.Context, token, name string, update models.ProfileUpdate) (*models.Profile, error)
}

type VenuesAPI interface {
	ListVenues(ctx context.Context, q api.VenueQuery) (*models.VenuePage, error)
	GetVenue(ctx context.Context, id string) (*models.Venue, error)
	ManagerVenues(ctx context.Context, token, profileName string) ([]models.Venue, error)
	CreateVenue(ctx context.Context, token string, in models.VenueInput) (*models.Venue, error)
	UpdateVenue(ctx context.Context, token, id string, in models.VenueInput) (*models.Venue, error)
	DeleteVenue(ctx context.Context, token, id string) error
}

type BookingsAPI interface {
	CreateBooking(ctx context.Context, token string, req models.CreateBookingRequest, requestID string) (*models.Booking, error)
	ProfileBookings(ctx context.Context, token, profileName string) ([]models.Booking, error)
	DeleteBooking(ctx context.Context, token, id string) error
}

// HolidazeAPI is the full remote surface, satisfied by *api.Client.
type HolidazeAPI interface {
	AccountAPI
	VenuesAPI
	BookingsAPI
}

var _ HolidazeAPI = (*api.Client)(nil)
