package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"holidaze/internal/api"
	"holidaze/internal/availability"
	"holidaze/internal/domain"
	"holidaze/internal/events"
	"holidaze/internal/metrics"
	"holidaze/internal/models"
	"holidaze/internal/session"
	"holidaze/internal/validation"
)

// FlowState is the step of a booking submission.
type FlowState int

const (
	FlowIdle FlowState = iota
	FlowReviewing
	FlowSubmitting
	FlowSucceeded
	FlowFailed
)

func (s FlowState) String() string {
	switch s {
	case FlowIdle:
		return "idle"
	case FlowReviewing:
		return "reviewing"
	case FlowSubmitting:
		return "submitting"
	case FlowSucceeded:
		return "succeeded"
	case FlowFailed:
		return "failed"
	default:
		return fmt.Sprintf("FlowState(%d)", int(s))
	}
}

const BookingSuccessMessage = "Booking successful!"

// OwnerNotice replaces the booking form when the viewer owns the venue.
type OwnerNotice struct {
	Title   string
	Message string
	Link    string
}

func newOwnerNotice(userName string) *OwnerNotice {
	return &OwnerNotice{
		Title:   "This is your venue",
		Message: "You cannot book your own venue",
		Link:    fmt.Sprintf(models.ManagerDashboardPathFormat, userName),
	}
}

// Summary is what the confirmation step shows before the POST.
type Summary struct {
	VenueID      string
	VenueName    string
	StartDate    time.Time
	EndDate      time.Time
	Guests       int
	Nights       int
	NightlyPrice float64
	TotalPrice   float64
	// Provisional is set when no dates were chosen and the total is one night.
	Provisional bool
	RequestID   string
}

// Nights counts calendar nights between check-in and check-out, at least one.
// A check-out later in the day than check-in adds a night. Missing dates count
// as one night.
func Nights(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 1
	}
	end = end.In(start.Location())

	n := calendarDays(start, end)
	if clock(end) > clock(start) {
		n++
	}
	if n < 1 {
		return 1
	}
	return n
}

// calendarDays compares dates only, so DST shifts do not change the count.
func calendarDays(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func clock(t time.Time) time.Duration {
	h, m, sec := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second + time.Duration(t.Nanosecond())
}

func TotalPrice(price float64, start, end time.Time) float64 {
	return price * float64(Nights(start, end))
}

// BookingFlow drives one venue's booking form through review and submission.
type BookingFlow struct {
	mu sync.Mutex

	venue     models.Venue
	session   *session.Store
	bookings  domain.BookingsAPI
	validator *validation.BookingValidator
	blocked   availability.BlockedDateSet
	publisher domain.EventPublisher
	logger    *zerolog.Logger

	state       FlowState
	form        validation.BookingForm
	summary     *Summary
	requestID   string
	message     string
	fieldErrors validation.FieldErrors
}

type FlowOption func(*BookingFlow)

// WithBlockedDates refuses selections that cover any of the given days.
func WithBlockedDates(set availability.BlockedDateSet) FlowOption {
	return func(f *BookingFlow) { f.blocked = set }
}

func WithFlowPublisher(p domain.EventPublisher) FlowOption {
	return func(f *BookingFlow) { f.publisher = p }
}

// NewBookingFlow returns ErrVenueOwner with an OwnerNotice when the logged-in
// user owns the venue. No flow exists in that case.
func NewBookingFlow(venue *models.Venue, sess *session.Store, bookings domain.BookingsAPI, logger *zerolog.Logger, opts ...FlowOption) (*BookingFlow, *OwnerNotice, error) {
	if venue == nil {
		return nil, nil, errors.New("venue is required")
	}
	if user := sess.User(); user != nil && venue.OwnedBy(user.Name) {
		return nil, newOwnerNotice(user.Name), ErrVenueOwner
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	f := &BookingFlow{
		venue:     *venue,
		session:   sess,
		bookings:  bookings,
		validator: validation.NewBookingValidator(venue.MaxGuests),
		logger:    logger,
		state:     FlowIdle,
		form:      validation.BookingForm{Guests: 1},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil, nil
}

func (f *BookingFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Message is the inline text for the current step, if any.
func (f *BookingFlow) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

func (f *BookingFlow) FieldErrors() validation.FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fieldErrors
}

func (f *BookingFlow) Form() validation.BookingForm {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

// Summary returns the confirmation summary while reviewing, or nil.
func (f *BookingFlow) Summary() *Summary {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.summary == nil {
		return nil
	}
	s := *f.summary
	return &s
}

// SetStartDate, SetEndDate and SetGuests edit the form. An edit while a
// summary is open discards it and returns the flow to Idle, so the next
// confirmation needs a fresh Open. Edits are ignored while submitting.
func (f *BookingFlow) SetStartDate(t time.Time) {
	f.edit("startDate", func(form *validation.BookingForm) { form.StartDate = t })
}

func (f *BookingFlow) SetEndDate(t time.Time) {
	f.edit("endDate", func(form *validation.BookingForm) { form.EndDate = t })
}

func (f *BookingFlow) SetGuests(n int) {
	f.edit("guests", func(form *validation.BookingForm) { form.Guests = n })
}

func (f *BookingFlow) edit(field string, fn func(*validation.BookingForm)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == FlowSubmitting {
		return
	}
	fn(&f.form)
	delete(f.fieldErrors, field)

	if f.state == FlowReviewing || f.state == FlowFailed {
		f.summary = nil
		f.requestID = ""
		f.message = ""
		f.transitionLocked(FlowIdle)
	}
}

// DisplayTotal is the running total shown under the form.
func (f *BookingFlow) DisplayTotal() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return TotalPrice(f.venue.Price, f.form.StartDate, f.form.EndDate)
}

// Open moves Idle to Reviewing. On a failed precondition the flow stays Idle
// and the returned error is also kept as the inline message.
func (f *BookingFlow) Open() (*Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == FlowSubmitting {
		return nil, ErrSubmissionInProgress
	}
	if f.state == FlowReviewing || f.state == FlowFailed {
		s := *f.summary
		return &s, nil
	}

	f.message = ""
	f.fieldErrors = nil

	if !f.session.IsLoggedIn() || f.session.Token() == "" {
		return nil, f.refuseLocked(ErrNotLoggedIn)
	}
	if f.form.StartDate.IsZero() || f.form.EndDate.IsZero() {
		return nil, f.refuseLocked(ErrDatesRequired)
	}
	if fe := f.validator.Validate(f.form); fe != nil {
		f.fieldErrors = fe
		return nil, fe
	}
	if f.blocked.OverlapsRange(f.form.StartDate, f.form.EndDate) {
		return nil, f.refuseLocked(ErrDatesUnavailable)
	}

	f.requestID = uuid.NewString()
	f.summary = &Summary{
		VenueID:      f.venue.ID,
		VenueName:    f.venue.Name,
		StartDate:    f.form.StartDate,
		EndDate:      f.form.EndDate,
		Guests:       f.form.Guests,
		Nights:       Nights(f.form.StartDate, f.form.EndDate),
		NightlyPrice: f.venue.Price,
		TotalPrice:   TotalPrice(f.venue.Price, f.form.StartDate, f.form.EndDate),
		RequestID:    f.requestID,
	}
	f.transitionLocked(FlowReviewing)

	s := *f.summary
	return &s, nil
}

func (f *BookingFlow) refuseLocked(err error) error {
	f.message = err.Error()
	if f.state != FlowIdle {
		f.transitionLocked(FlowIdle)
	}
	return err
}

// Confirm sends the booking. It is valid from Reviewing and from Failed.
// A call while another is in flight gets ErrSubmissionInProgress.
func (f *BookingFlow) Confirm(ctx context.Context) (*models.Booking, error) {
	f.mu.Lock()
	switch f.state {
	case FlowSubmitting:
		f.mu.Unlock()
		return nil, ErrSubmissionInProgress
	case FlowReviewing, FlowFailed:
	default:
		f.mu.Unlock()
		return nil, ErrFlowNotOpen
	}

	token := f.session.Token()
	if token == "" {
		err := f.refuseLocked(ErrNotLoggedIn)
		f.summary = nil
		f.mu.Unlock()
		return nil, err
	}

	// The POST carries exactly what the summary showed.
	reviewed := *f.summary
	req := models.CreateBookingRequest{
		DateFrom: reviewed.StartDate,
		DateTo:   reviewed.EndDate,
		Guests:   reviewed.Guests,
		VenueID:  reviewed.VenueID,
	}
	requestID := reviewed.RequestID
	total := reviewed.TotalPrice
	f.message = ""
	f.transitionLocked(FlowSubmitting)
	f.mu.Unlock()

	log := f.logger.With().Str("venue_id", f.venue.ID).Str("request_id", requestID).Logger()
	log.Info().Int("guests", req.Guests).Msg("submitting booking")

	booking, err := f.bookings.CreateBooking(ctx, token, req, requestID)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.message = failureMessage(err, api.OpCreateBooking)
		f.transitionLocked(FlowFailed)
		log.Warn().Err(err).Msg("booking failed")
		return nil, err
	}

	f.message = BookingSuccessMessage
	f.summary = nil
	f.requestID = ""
	f.form = validation.BookingForm{Guests: 1}
	f.transitionLocked(FlowSucceeded)
	log.Info().Str("booking_id", booking.ID).Msg("booking created")

	f.publishCreated(booking, req, total, requestID)
	return booking, nil
}

// Cancel closes the confirmation and keeps the form values.
func (f *BookingFlow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FlowReviewing && f.state != FlowFailed {
		return
	}
	f.summary = nil
	f.requestID = ""
	f.message = ""
	f.transitionLocked(FlowIdle)
}

func (f *BookingFlow) transitionLocked(to FlowState) {
	from := f.state
	f.state = to
	metrics.IncFlowTransition(from.String(), to.String())
	f.logger.Debug().Str("from", from.String()).Str("to", to.String()).Msg("booking flow transition")
}

func (f *BookingFlow) publishCreated(b *models.Booking, req models.CreateBookingRequest, total float64, requestID string) {
	if f.publisher == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID:  b.ID,
		VenueID:    req.VenueID,
		VenueName:  f.venue.Name,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		Guests:     req.Guests,
		TotalPrice: total,
		RequestID:  requestID,
	}
	if user := f.session.User(); user != nil {
		payload.UserName = user.Name
	}
	if err := f.publisher.PublishJSON(events.EventBookingCreated, payload); err != nil {
		f.logger.Warn().Err(err).Msg("failed to publish booking event")
	}
}

// failureMessage is the text shown for a failed remote call.
func failureMessage(err error, op string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return api.FallbackMessage(op)
}
