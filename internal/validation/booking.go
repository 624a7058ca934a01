package validation

import (
	"fmt"
	"time"
)

// BookingForm is the date-range booking form. Zero dates mean "not selected".
type BookingForm struct {
	StartDate time.Time `json:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" validate:"required,gtfield=StartDate"`
	Guests    int       `json:"guests" validate:"gte=1"`
}

var bookingMessages = messages{
	"startDate|required": "Check-in date is required",
	"endDate|required":   "Check-out date is required",
	"endDate|gtfield":    "Check-out must be after check-in",
	"guests|gte":         "At least 1 guest is required",
}

// BookingValidator checks a BookingForm against one venue's guest capacity.
type BookingValidator struct {
	maxGuests int
}

// NewBookingValidator binds the venue's maxGuests. A bound below 1 disables
// the upper guest check.
func NewBookingValidator(maxGuests int) *BookingValidator {
	return &BookingValidator{maxGuests: maxGuests}
}

func (v *BookingValidator) MaxGuests() int {
	return v.maxGuests
}

// Validate returns nil when the form is acceptable.
func (v *BookingValidator) Validate(form BookingForm) FieldErrors {
	errs := check(form, bookingMessages)

	if !errs.Has("guests") && v.maxGuests > 0 {
		if err := validate.Var(form.Guests, fmt.Sprintf("lte=%d", v.maxGuests)); err != nil {
			errs = merge(errs, FieldErrors{"guests": fmt.Sprintf("Max guests allowed: %d", v.maxGuests)})
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
