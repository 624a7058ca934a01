// Package availability turns existing bookings into the set of calendar days
// a date picker must refuse.
package availability

import (
	"sort"
	"time"

	"holidaze/internal/models"
)

// MaxRangeDays bounds the expansion of a single booking. Longer ranges are
// treated as invalid input rather than expanded day by day.
const MaxRangeDays = 3660

// Calculator expands bookings into blocked calendar days.
type Calculator struct {
	loc *time.Location
}

type Option func(*Calculator)

// WithLocation sets the calendar used for day boundaries. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(c *Calculator) {
		if loc != nil {
			c.loc = loc
		}
	}
}

func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{loc: time.UTC}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Location returns the calendar location days are normalised to.
func (c *Calculator) Location() *time.Location {
	return c.loc
}

// Day truncates t to midnight of its calendar day in the calculator's location.
func (c *Calculator) Day(t time.Time) time.Time {
	return truncateDay(t, c.loc)
}

// Expand lists every day from DateFrom through DateTo inclusive. A booking with
// a missing date, an inverted range or a range above MaxRangeDays yields nil.
func (c *Calculator) Expand(b models.Booking) []time.Time {
	if b.DateFrom.IsZero() || b.DateTo.IsZero() {
		return nil
	}
	start := c.Day(b.DateFrom)
	end := c.Day(b.DateTo)
	if end.Before(start) {
		return nil
	}
	if daysBetween(start, end) > MaxRangeDays {
		return nil
	}

	days := make([]time.Time, 0, daysBetween(start, end)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Calculate merges any number of booking lists (for example the venue's own
// bookings plus the viewer's bookings elsewhere) into one blocked set.
func (c *Calculator) Calculate(lists ...[]models.Booking) BlockedDateSet {
	set := BlockedDateSet{
		days: make(map[string]time.Time),
		loc:  c.loc,
	}
	for _, list := range lists {
		for _, b := range list {
			if b.DateFrom.IsZero() || b.DateTo.IsZero() {
				set.Invalid = append(set.Invalid, b.ID)
				continue
			}
			days := c.Expand(b)
			if days == nil {
				// inverted or too long to expand
				set.Invalid = append(set.Invalid, b.ID)
				continue
			}
			for _, d := range days {
				set.days[d.Format(models.DateLayout)] = d
			}
		}
	}
	return set
}

// BlockedDateSet is a membership set of calendar days.
type BlockedDateSet struct {
	days map[string]time.Time
	loc  *time.Location

	// Invalid holds IDs of bookings whose dates could not be expanded.
	Invalid []string
}

func (s BlockedDateSet) Len() int {
	return len(s.days)
}

// Contains reports whether the calendar day of t is blocked.
func (s BlockedDateSet) Contains(t time.Time) bool {
	if len(s.days) == 0 || t.IsZero() {
		return false
	}
	_, ok := s.days[truncateDay(t, s.location()).Format(models.DateLayout)]
	return ok
}

// OverlapsRange reports whether any day in [from, to] is blocked.
func (s BlockedDateSet) OverlapsRange(from, to time.Time) bool {
	if len(s.days) == 0 || from.IsZero() || to.IsZero() {
		return false
	}
	loc := s.location()
	start := truncateDay(from, loc)
	end := truncateDay(to, loc)
	if end.Before(start) {
		start, end = end, start
	}
	// Iterate the smaller side.
	if daysBetween(start, end)+1 > len(s.days) {
		for _, d := range s.days {
			if !d.Before(start) && !d.After(end) {
				return true
			}
		}
		return false
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if _, ok := s.days[d.Format(models.DateLayout)]; ok {
			return true
		}
	}
	return false
}

// Days returns the blocked days in ascending order.
func (s BlockedDateSet) Days() []time.Time {
	out := make([]time.Time, 0, len(s.days))
	for _, d := range s.days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Strings returns the blocked days as sorted YYYY-MM-DD strings.
func (s BlockedDateSet) Strings() []string {
	days := s.Days()
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Format(models.DateLayout)
	}
	return out
}

func (s BlockedDateSet) location() *time.Location {
	if s.loc == nil {
		return time.UTC
	}
	return s.loc
}

func truncateDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// daysBetween counts calendar days from a to b, both already truncated.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
