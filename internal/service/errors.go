package service

import "errors"

// Precondition errors. Their text is shown to the user as is.
var (
	ErrNotLoggedIn          = errors.New("You must be logged in to book.")
	ErrVenueOwner           = errors.New("You cannot book your own venue")
	ErrDatesRequired        = errors.New("Please select check-in and check-out dates.")
	ErrDatesUnavailable     = errors.New("Selected dates are not available.")
	ErrNotVenueManager      = errors.New("Only venue managers can manage venues.")
	ErrSubmissionInProgress = errors.New("Booking is already being submitted.")
	ErrFlowNotOpen          = errors.New("Open the booking summary before confirming.")
	ErrLoginRequired        = errors.New("You must be logged in.")
)
