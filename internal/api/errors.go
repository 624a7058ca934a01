package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
)

// Operation names. They label metrics and select the fallback message.
const (
	OpLogin         = "auth.login"
	OpRegister      = "auth.register"
	OpListVenues    = "venues.list"
	OpSearchVenues  = "venues.search"
	OpGetVenue      = "venues.get"
	OpCreateVenue   = "venues.create"
	OpUpdateVenue   = "venues.update"
	OpDeleteVenue   = "venues.delete"
	OpManagerVenues = "profiles.venues"
	OpCreateBooking = "bookings.create"
	OpListBookings  = "profiles.bookings"
	OpDeleteBooking = "bookings.delete"
	OpUpdateProfile = "profiles.update"
)

var fallbackMessages = map[string]string{
	OpLogin:         "Login failed",
	OpRegister:      "Registration failed",
	OpListVenues:    "Error fetching venues",
	OpSearchVenues:  "Error fetching venues",
	OpGetVenue:      "Error fetching venue",
	OpCreateVenue:   "Failed to create venue",
	OpUpdateVenue:   "Failed to update venue",
	OpDeleteVenue:   "Failed to delete venue",
	OpManagerVenues: "Error fetching venues",
	OpCreateBooking: "Failed to create booking",
	OpListBookings:  "Error trying to fetch bookings",
	OpDeleteBooking: "Failed to cancel booking",
	OpUpdateProfile: "Failed to update profile",
}

// FallbackMessage is the generic failure text of an operation.
func FallbackMessage(op string) string {
	if msg, ok := fallbackMessages[op]; ok {
		return msg
	}
	return "Request failed"
}

// Error is a failed API call. Message is user-facing and returned verbatim by Error().
type Error struct {
	Op         string
	StatusCode int // 0 for transport failures
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsStatus reports whether err is an *Error with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// IsUnauthorized reports a rejected or expired bearer token.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

type errorBody struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
	Message string `json:"message"`
}

// responseError extracts errors[0].message, then message, then the op fallback.
func responseError(op string, status int, body []byte) *Error {
	msg := ""
	var eb errorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		if len(eb.Errors) > 0 && eb.Errors[0].Message != "" {
			msg = eb.Errors[0].Message
		} else if eb.Message != "" {
			msg = eb.Message
		}
	}
	if msg == "" {
		msg = FallbackMessage(op)
	}
	return &Error{Op: op, StatusCode: status, Message: msg}
}

func transportError(op string, err error) *Error {
	msg := "network error"
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		msg = "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		msg = "request timed out"
	case errors.As(err, &netErr) && netErr.Timeout():
		msg = "request timed out"
	}
	return &Error{Op: op, Message: msg, Err: err}
}
