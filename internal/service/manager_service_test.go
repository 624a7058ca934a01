package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"holidaze/internal/events"
	"holidaze/internal/models"
	"holidaze/internal/validation"
)

func validVenueInput() models.VenueInput {
	return models.VenueInput{
		Name:        " Cabin ",
		Description: "By the fjord",
		Price:       120,
		MaxGuests:   4,
		Rating:      4,
		Media: []models.Media{
			{URL: "https://img.test/1.jpg", Alt: "front"},
			{},
		},
	}
}

func TestManagerService_Permissions(t *testing.T) {
	ctx := context.Background()

	svc := NewManagerService(new(mockAPI), newSession(t), nil, nopLogger())
	_, err := svc.Venues(ctx)
	assert.ErrorIs(t, err, ErrLoginRequired)

	svc = NewManagerService(new(mockAPI), loggedIn(t, "kari", false), nil, nopLogger())
	_, err = svc.Create(ctx, validVenueInput())
	assert.ErrorIs(t, err, ErrNotVenueManager)
	assert.ErrorIs(t, svc.Delete(ctx, "v-1"), ErrNotVenueManager)
}

func TestManagerService_Venues(t *testing.T) {
	client := new(mockAPI)
	svc := NewManagerService(client, loggedIn(t, "host", true), nil, nopLogger())
	client.On("ManagerVenues", mock.Anything, "tok-host", "host").Return([]models.Venue{{ID: "v-1"}}, nil).Once()

	venues, err := svc.Venues(context.Background())
	require.NoError(t, err)
	assert.Len(t, venues, 1)
}

func TestManagerService_CreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	client := new(mockAPI)
	rec := newRecorder()
	svc := NewManagerService(client, loggedIn(t, "host", true), rec.bus, nopLogger())

	clean := validVenueInput()
	clean.Name = "Cabin"
	clean.Media = clean.Media[:1]

	client.On("CreateVenue", mock.Anything, "tok-host", clean).Return(&models.Venue{ID: "v-9", Name: "Cabin"}, nil).Once()
	v, err := svc.Create(ctx, validVenueInput())
	require.NoError(t, err)
	assert.Equal(t, "v-9", v.ID)

	client.On("UpdateVenue", mock.Anything, "tok-host", "v-9", clean).Return(&models.Venue{ID: "v-9"}, nil).Once()
	_, err = svc.Update(ctx, "v-9", validVenueInput())
	require.NoError(t, err)

	client.On("DeleteVenue", mock.Anything, "tok-host", "v-9").Return(nil).Once()
	require.NoError(t, svc.Delete(ctx, "v-9"))

	assert.Equal(t, []string{events.EventVenueCreated, events.EventVenueUpdated, events.EventVenueDeleted}, rec.types)
	client.AssertExpectations(t)
}

func TestManagerService_CreateInvalid(t *testing.T) {
	client := new(mockAPI)
	svc := NewManagerService(client, loggedIn(t, "host", true), nil, nopLogger())

	in := validVenueInput()
	in.Price = 0
	in.Media = append(in.Media, models.Media{URL: "nope", Alt: ""})

	_, err := svc.Create(context.Background(), in)
	fe, ok := validation.AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "Price must be positive", fe["price"])
	assert.Equal(t, "Invalid image URL", fe["media[1].url"])
	assert.Equal(t, "Alt text is required", fe["media[1].alt"])
	client.AssertNotCalled(t, "CreateVenue", mock.Anything, mock.Anything, mock.Anything)
}
