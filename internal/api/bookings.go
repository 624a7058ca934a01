package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"holidaze/internal/models"
)

// CreateBooking posts a booking. requestID is sent as Idempotency-Key when set.
func (c *Client) CreateBooking(ctx context.Context, token string, req models.CreateBookingRequest, requestID string) (*models.Booking, error) {
	cl := call{op: OpCreateBooking, method: http.MethodPost, path: models.BookingsPath, token: token, body: req}
	if requestID != "" {
		cl.header = http.Header{}
		cl.header.Set(models.IdempotencyHeader, requestID)
	}

	var wrap struct {
		Data models.Booking `json:"data"`
	}
	if err := c.do(ctx, cl, &wrap); err != nil {
		return nil, err
	}
	c.invalidate(ctx, "venue:"+req.VenueID)
	return &wrap.Data, nil
}

// ProfileBookings returns the bookings of a profile in API order.
func (c *Client) ProfileBookings(ctx context.Context, token, profileName string) ([]models.Booking, error) {
	query := url.Values{}
	query.Set("_bookings", "true")
	cl := call{op: OpListBookings, method: http.MethodGet, path: profilePath(profileName), query: query, token: token}

	var wrap struct {
		Data struct {
			Bookings []models.Booking `json:"bookings"`
		} `json:"data"`
	}
	if err := c.do(ctx, cl, &wrap); err != nil {
		return nil, err
	}
	return wrap.Data.Bookings, nil
}

// DeleteBooking cancels a booking. The API answers 204 No Content.
func (c *Client) DeleteBooking(ctx context.Context, token, id string) error {
	cl := call{
		op:     OpDeleteBooking,
		method: http.MethodDelete,
		path:   fmt.Sprintf("%s/%s", models.BookingsPath, url.PathEscape(id)),
		token:  token,
	}
	if err := c.do(ctx, cl, nil); err != nil {
		return err
	}
	c.invalidate(ctx, "venue:")
	return nil
}
