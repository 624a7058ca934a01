package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"holidaze/internal/api"
	"holidaze/internal/models"
	"holidaze/internal/validation"
)

func venueWithBookings() *models.Venue {
	v := testVenue()
	v.Bookings = []models.Booking{
		{ID: "b-1", DateFrom: day(2026, 5, 10), DateTo: day(2026, 5, 12)},
	}
	return v
}

func TestVenueService_BlockedDatesUnion(t *testing.T) {
	client := new(mockAPI)
	svc := NewVenueService(client, client, loggedIn(t, "kari", false), nil, nil, nopLogger())

	client.On("ProfileBookings", mock.Anything, "tok-kari", "kari").Return([]models.Booking{
		{ID: "mine", DateFrom: day(2026, 6, 1), DateTo: day(2026, 6, 1)},
		{ID: "broken"},
	}, nil).Once()

	set := svc.BlockedDates(context.Background(), venueWithBookings())
	assert.Equal(t, []string{"2026-05-10", "2026-05-11", "2026-05-12", "2026-06-01"}, set.Strings())
	assert.Equal(t, []string{"broken"}, set.Invalid)
}

func TestVenueService_BlockedDatesAnonymous(t *testing.T) {
	client := new(mockAPI)
	svc := NewVenueService(client, client, newSession(t), nil, nil, nopLogger())

	set := svc.BlockedDates(context.Background(), venueWithBookings())
	assert.Equal(t, 3, set.Len())
	client.AssertNotCalled(t, "ProfileBookings", mock.Anything, mock.Anything, mock.Anything)
}

func TestVenueService_BlockedDatesOwnBookingsFail(t *testing.T) {
	client := new(mockAPI)
	svc := NewVenueService(client, client, loggedIn(t, "kari", false), nil, nil, nopLogger())
	client.On("ProfileBookings", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("down")).Once()

	set := svc.BlockedDates(context.Background(), venueWithBookings())
	assert.Equal(t, 3, set.Len())
}

func TestVenueService_Quote(t *testing.T) {
	client := new(mockAPI)
	svc := NewVenueService(client, client, newSession(t), nil, nil, nopLogger())
	ctx := context.Background()
	venue := venueWithBookings()

	q := svc.Quote(ctx, venue, validation.BookingForm{StartDate: day(2026, 5, 1), EndDate: day(2026, 5, 4), Guests: 2})
	assert.Equal(t, 3, q.Nights)
	assert.Equal(t, 300.0, q.TotalPrice)
	assert.False(t, q.Provisional)
	assert.Nil(t, q.Errors)

	q = svc.Quote(ctx, venue, validation.BookingForm{Guests: 1})
	assert.True(t, q.Provisional)
	assert.Equal(t, 100.0, q.TotalPrice)
	assert.Equal(t, "Check-in date is required", q.Errors["startDate"])

	q = svc.Quote(ctx, venue, validation.BookingForm{StartDate: day(2026, 5, 9), EndDate: day(2026, 5, 11), Guests: 1})
	assert.Equal(t, "Selected dates are not available.", q.Errors["dates"])
}

func TestVenueService_GetAndList(t *testing.T) {
	client := new(mockAPI)
	svc := NewVenueService(client, client, newSession(t), nil, nil, nopLogger())
	ctx := context.Background()

	_, err := svc.Get(ctx, "  ")
	_, isFieldErr := validation.AsFieldErrors(err)
	assert.True(t, isFieldErr)

	client.On("GetVenue", mock.Anything, "v-1").Return(testVenue(), nil).Once()
	v, err := svc.Get(ctx, " v-1 ")
	require.NoError(t, err)
	assert.Equal(t, "Cabin", v.Name)

	q := api.VenueQuery{Page: 2, Sort: models.SortPriceAsc}
	client.On("ListVenues", mock.Anything, q).Return(&models.VenuePage{Venues: []models.Venue{*v}}, nil).Once()
	page, err := svc.List(ctx, q)
	require.NoError(t, err)
	assert.Len(t, page.Venues, 1)
	client.AssertExpectations(t)
}

func TestVenueService_NewFlow(t *testing.T) {
	client := new(mockAPI)
	ctx := context.Background()

	t.Run("Owner", func(t *testing.T) {
		svc := NewVenueService(client, client, loggedIn(t, "owner", true), nil, nil, nopLogger())
		client.On("GetVenue", mock.Anything, "v-1").Return(testVenue(), nil).Once()
		client.On("ProfileBookings", mock.Anything, "tok-owner", "owner").Return([]models.Booking{}, nil).Once()

		_, flow, notice, err := svc.NewFlow(ctx, "v-1")
		assert.ErrorIs(t, err, ErrVenueOwner)
		assert.Nil(t, flow)
		assert.NotNil(t, notice)
	})

	t.Run("Guest", func(t *testing.T) {
		rec := newRecorder()
		svc := NewVenueService(client, client, loggedIn(t, "kari", false), nil, rec.bus, nopLogger())
		client.On("GetVenue", mock.Anything, "v-1").Return(venueWithBookings(), nil).Once()
		client.On("ProfileBookings", mock.Anything, "tok-kari", "kari").Return([]models.Booking{}, nil).Once()

		_, flow, notice, err := svc.NewFlow(ctx, "v-1")
		require.NoError(t, err)
		assert.Nil(t, notice)

		flow.SetStartDate(day(2026, 5, 11))
		flow.SetEndDate(day(2026, 5, 14))
		_, err = flow.Open()
		assert.ErrorIs(t, err, ErrDatesUnavailable)
	})
}
