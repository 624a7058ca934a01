package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"holidaze/internal/api"
	"holidaze/internal/availability"
	"holidaze/internal/events"
	"holidaze/internal/models"
	"holidaze/internal/validation"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func oslo(t *testing.T, y int, m time.Month, d int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func testVenue() *models.Venue {
	return &models.Venue{
		ID:        "v-1",
		Name:      "Cabin",
		Price:     100,
		MaxGuests: 4,
		Owner:     &models.ProfileRef{Name: "owner"},
	}
}

func TestNightsAndTotalPrice(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		end    time.Time
		nights int
		total  float64
	}{
		{"three nights", day(2026, 5, 1), day(2026, 5, 4), 3, 300},
		{"no dates", time.Time{}, time.Time{}, 1, 100},
		{"only start", day(2026, 5, 1), time.Time{}, 1, 100},
		{"partial day rounds up", day(2026, 5, 1), day(2026, 5, 2).Add(2 * time.Hour), 2, 200},
		{"same day", day(2026, 5, 1), day(2026, 5, 1), 1, 100},
		{"reversed", day(2026, 5, 4), day(2026, 5, 1), 1, 100},
		{"across autumn DST change", oslo(t, 2025, 10, 24), oslo(t, 2025, 10, 27), 3, 300},
		{"across spring DST change", oslo(t, 2026, 3, 27), oslo(t, 2026, 3, 30), 3, 300},
		{"late check-out adds a night", day(2026, 5, 1).Add(14 * time.Hour), day(2026, 5, 3).Add(16 * time.Hour), 3, 300},
		{"early check-out", day(2026, 5, 1).Add(15 * time.Hour), day(2026, 5, 3).Add(11 * time.Hour), 2, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.nights, Nights(tt.start, tt.end))
			assert.Equal(t, tt.total, TotalPrice(100, tt.start, tt.end))
		})
	}
}

func TestNewBookingFlow_Owner(t *testing.T) {
	sess := loggedIn(t, "owner", true)
	flow, notice, err := NewBookingFlow(testVenue(), sess, new(mockAPI), nil)

	assert.Nil(t, flow)
	assert.ErrorIs(t, err, ErrVenueOwner)
	require.NotNil(t, notice)
	assert.Equal(t, "This is your venue", notice.Title)
	assert.Equal(t, "You cannot book your own venue", notice.Message)
	assert.Equal(t, "/profile/owner/venue-manager", notice.Link)
}

func TestBookingFlow_OpenPreconditions(t *testing.T) {
	t.Run("NotLoggedIn", func(t *testing.T) {
		flow, _, err := NewBookingFlow(testVenue(), newSession(t), new(mockAPI), nil)
		require.NoError(t, err)
		flow.SetStartDate(day(2026, 5, 1))
		flow.SetEndDate(day(2026, 5, 3))

		_, err = flow.Open()
		assert.ErrorIs(t, err, ErrNotLoggedIn)
		assert.Equal(t, "You must be logged in to book.", flow.Message())
		assert.Equal(t, FlowIdle, flow.State())
	})

	t.Run("DatesMissing", func(t *testing.T) {
		flow, _, err := NewBookingFlow(testVenue(), loggedIn(t, "kari", false), new(mockAPI), nil)
		require.NoError(t, err)
		flow.SetStartDate(day(2026, 5, 1))

		_, err = flow.Open()
		assert.ErrorIs(t, err, ErrDatesRequired)
		assert.Equal(t, "Please select check-in and check-out dates.", flow.Message())
		assert.Equal(t, FlowIdle, flow.State())
	})

	t.Run("TooManyGuests", func(t *testing.T) {
		flow, _, err := NewBookingFlow(testVenue(), loggedIn(t, "kari", false), new(mockAPI), nil)
		require.NoError(t, err)
		flow.SetStartDate(day(2026, 5, 1))
		flow.SetEndDate(day(2026, 5, 3))
		flow.SetGuests(5)

		_, err = flow.Open()
		fe, ok := validation.AsFieldErrors(err)
		require.True(t, ok)
		assert.Equal(t, "Max guests allowed: 4", fe["guests"])
		assert.Equal(t, fe, flow.FieldErrors())
		assert.Equal(t, FlowIdle, flow.State())

		flow.SetGuests(4)
		assert.Empty(t, flow.FieldErrors())
		_, err = flow.Open()
		assert.NoError(t, err)
	})

	t.Run("BlockedRange", func(t *testing.T) {
		blocked := availability.NewCalculator().Calculate([]models.Booking{
			{ID: "b", DateFrom: day(2026, 5, 2), DateTo: day(2026, 5, 2)},
		})
		flow, _, err := NewBookingFlow(testVenue(), loggedIn(t, "kari", false), new(mockAPI), nil, WithBlockedDates(blocked))
		require.NoError(t, err)
		flow.SetStartDate(day(2026, 5, 1))
		flow.SetEndDate(day(2026, 5, 3))

		_, err = flow.Open()
		assert.ErrorIs(t, err, ErrDatesUnavailable)
		assert.Equal(t, FlowIdle, flow.State())
	})
}

func openFlow(t *testing.T, client *mockAPI, opts ...FlowOption) *BookingFlow {
	t.Helper()
	flow, _, err := NewBookingFlow(testVenue(), loggedIn(t, "kari", false), client, nil, opts...)
	require.NoError(t, err)
	assert.Equal(t, 1, flow.Form().Guests)
	assert.Equal(t, 100.0, flow.DisplayTotal())

	flow.SetStartDate(day(2026, 5, 1))
	flow.SetEndDate(day(2026, 5, 4))
	flow.SetGuests(2)

	summary, err := flow.Open()
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Nights)
	assert.Equal(t, 300.0, summary.TotalPrice)
	assert.False(t, summary.Provisional)
	assert.NotEmpty(t, summary.RequestID)
	assert.Equal(t, FlowReviewing, flow.State())
	return flow
}

func TestBookingFlow_ConfirmSuccess(t *testing.T) {
	client := new(mockAPI)
	rec := newRecorder()
	flow := openFlow(t, client, WithFlowPublisher(rec.bus))
	requestID := flow.Summary().RequestID

	want := models.CreateBookingRequest{DateFrom: day(2026, 5, 1), DateTo: day(2026, 5, 4), Guests: 2, VenueID: "v-1"}
	client.On("CreateBooking", mock.Anything, "tok-kari", want, requestID).
		Return(&models.Booking{ID: "b-1"}, nil).Once()

	booking, err := flow.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b-1", booking.ID)
	assert.Equal(t, FlowSucceeded, flow.State())
	assert.Equal(t, "Booking successful!", flow.Message())
	assert.Nil(t, flow.Summary())
	assert.Equal(t, validation.BookingForm{Guests: 1}, flow.Form())
	assert.Equal(t, []string{events.EventBookingCreated}, rec.types)
	client.AssertExpectations(t)
}

func TestBookingFlow_ConfirmFailureThenRetry(t *testing.T) {
	client := new(mockAPI)
	flow := openFlow(t, client)
	requestID := flow.Summary().RequestID

	client.On("CreateBooking", mock.Anything, "tok-kari", mock.Anything, requestID).
		Return(nil, &api.Error{Op: api.OpCreateBooking, StatusCode: 409, Message: "Venue is already booked"}).Once()

	_, err := flow.Confirm(context.Background())
	require.Error(t, err)
	assert.Equal(t, FlowFailed, flow.State())
	assert.Equal(t, "Venue is already booked", flow.Message())
	require.NotNil(t, flow.Summary())
	assert.Equal(t, 2, flow.Form().Guests)

	client.On("CreateBooking", mock.Anything, "tok-kari", mock.Anything, requestID).
		Return(&models.Booking{ID: "b-2"}, nil).Once()
	_, err = flow.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, FlowSucceeded, flow.State())
	client.AssertExpectations(t)
}

func TestBookingFlow_ConfirmGenericFailureMessage(t *testing.T) {
	client := new(mockAPI)
	flow := openFlow(t, client)
	client.On("CreateBooking", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("boom")).Once()

	_, err := flow.Confirm(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "Failed to create booking", flow.Message())
}

func TestBookingFlow_SecondConfirmRejectedWhileSubmitting(t *testing.T) {
	client := new(mockAPI)
	flow := openFlow(t, client)

	started := make(chan struct{})
	release := make(chan struct{})
	client.On("CreateBooking", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&models.Booking{ID: "b-1"}, nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := flow.Confirm(context.Background())
		done <- err
	}()

	<-started
	assert.Equal(t, FlowSubmitting, flow.State())
	_, err := flow.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	_, err = flow.Open()
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	close(release)
	require.NoError(t, <-done)
	client.AssertNumberOfCalls(t, "CreateBooking", 1)
}

func TestBookingFlow_EditAfterOpenRequiresNewReview(t *testing.T) {
	client := new(mockAPI)
	flow := openFlow(t, client)
	firstID := flow.Summary().RequestID

	flow.SetGuests(99)
	flow.SetEndDate(day(2026, 4, 1))

	assert.Equal(t, FlowIdle, flow.State())
	assert.Nil(t, flow.Summary())

	_, err := flow.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrFlowNotOpen)

	_, err = flow.Open()
	fe, ok := validation.AsFieldErrors(err)
	require.True(t, ok)
	assert.True(t, fe.Has("guests"))
	assert.True(t, fe.Has("endDate"))
	assert.Equal(t, FlowIdle, flow.State())

	flow.SetGuests(3)
	flow.SetEndDate(day(2026, 5, 3))
	summary, err := flow.Open()
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Guests)
	assert.Equal(t, 2, summary.Nights)
	assert.NotEqual(t, firstID, summary.RequestID)

	want := models.CreateBookingRequest{DateFrom: day(2026, 5, 1), DateTo: day(2026, 5, 3), Guests: 3, VenueID: "v-1"}
	client.On("CreateBooking", mock.Anything, "tok-kari", want, summary.RequestID).
		Return(&models.Booking{ID: "b-3"}, nil).Once()

	_, err = flow.Confirm(context.Background())
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestBookingFlow_EditAfterFailureReopensReview(t *testing.T) {
	client := new(mockAPI)
	flow := openFlow(t, client, WithBlockedDates(availability.NewCalculator().Calculate([]models.Booking{
		{ID: "taken", DateFrom: day(2026, 5, 10), DateTo: day(2026, 5, 12)},
	})))
	client.On("CreateBooking", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("boom")).Once()

	_, err := flow.Confirm(context.Background())
	require.Error(t, err)
	require.Equal(t, FlowFailed, flow.State())

	flow.SetEndDate(day(2026, 5, 11))
	assert.Equal(t, FlowIdle, flow.State())
	assert.Empty(t, flow.Message())

	_, err = flow.Open()
	assert.ErrorIs(t, err, ErrDatesUnavailable)
	client.AssertNumberOfCalls(t, "CreateBooking", 1)
}

func TestBookingFlow_ConfirmRequiresReview(t *testing.T) {
	flow, _, err := NewBookingFlow(testVenue(), loggedIn(t, "kari", false), new(mockAPI), nil)
	require.NoError(t, err)

	_, err = flow.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrFlowNotOpen)
}

func TestBookingFlow_Cancel(t *testing.T) {
	flow := openFlow(t, new(mockAPI))
	flow.Cancel()

	assert.Equal(t, FlowIdle, flow.State())
	assert.Nil(t, flow.Summary())
	assert.Equal(t, 2, flow.Form().Guests)

	// cancelling again is harmless
	flow.Cancel()
	assert.Equal(t, FlowIdle, flow.State())
}

func TestFlowStateString(t *testing.T) {
	assert.Equal(t, "reviewing", FlowReviewing.String())
	assert.Equal(t, "FlowState(9)", FlowState(9).String())
}
