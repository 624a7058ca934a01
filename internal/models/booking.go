package models

import (
	"encoding/json"
	"strings"
	"time"
)

type Booking struct {
	ID       string      `json:"id"`
	DateFrom time.Time   `json:"dateFrom"`
	DateTo   time.Time   `json:"dateTo"`
	Guests   int         `json:"guests"`
	Created  time.Time   `json:"created"`
	Updated  time.Time   `json:"updated"`
	Venue    *Venue      `json:"venue,omitempty"`
	Customer *ProfileRef `json:"customer,omitempty"`
}

// UnmarshalJSON tolerates malformed timestamps. A date that does not parse is
// left zero, so one bad booking never fails a whole venue or profile response.
func (b *Booking) UnmarshalJSON(data []byte) error {
	type plain Booking
	aux := struct {
		*plain
		DateFrom json.RawMessage `json:"dateFrom"`
		DateTo   json.RawMessage `json:"dateTo"`
		Created  json.RawMessage `json:"created"`
		Updated  json.RawMessage `json:"updated"`
	}{plain: (*plain)(b)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.DateFrom = lenientTime(aux.DateFrom)
	b.DateTo = lenientTime(aux.DateTo)
	b.Created = lenientTime(aux.Created)
	b.Updated = lenientTime(aux.Updated)
	return nil
}

func lenientTime(raw json.RawMessage) time.Time {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return time.Time{}
	}
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t
	}
	return time.Time{}
}

// CreateBookingRequest is the POST body for a new booking.
type CreateBookingRequest struct {
	DateFrom time.Time `json:"dateFrom"`
	DateTo   time.Time `json:"dateTo"`
	Guests   int       `json:"guests"`
	VenueID  string    `json:"venueId"`
}
