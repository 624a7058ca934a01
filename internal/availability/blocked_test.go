package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holidaze/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculate_InclusiveRange(t *testing.T) {
	calc := NewCalculator()
	set := calc.Calculate([]models.Booking{
		{ID: "b1", DateFrom: day(2025, 3, 1), DateTo: day(2025, 3, 3)},
	})

	assert.Equal(t, []string{"2025-03-01", "2025-03-02", "2025-03-03"}, set.Strings())
	assert.True(t, set.Contains(day(2025, 3, 3).Add(23*time.Hour)))
	assert.False(t, set.Contains(day(2025, 2, 28)))
	assert.False(t, set.Contains(day(2025, 3, 4)))
	assert.Empty(t, set.Invalid)
}

func TestCalculate_SingleDay(t *testing.T) {
	set := NewCalculator().Calculate([]models.Booking{
		{ID: "b1", DateFrom: day(2025, 5, 10).Add(14 * time.Hour), DateTo: day(2025, 5, 10).Add(16 * time.Hour)},
	})

	assert.Equal(t, 1, set.Len())
	assert.True(t, set.Contains(day(2025, 5, 10)))
}

func TestCalculate_UnionOfLists(t *testing.T) {
	venueBookings := []models.Booking{
		{ID: "v1", DateFrom: day(2025, 1, 1), DateTo: day(2025, 1, 2)},
	}
	myBookings := []models.Booking{
		{ID: "m1", DateFrom: day(2025, 1, 2), DateTo: day(2025, 1, 4)},
	}

	set := NewCalculator().Calculate(venueBookings, myBookings)

	assert.Equal(t, []string{"2025-01-01", "2025-01-02", "2025-01-03", "2025-01-04"}, set.Strings())
}

func TestCalculate_Empty(t *testing.T) {
	set := NewCalculator().Calculate()
	assert.Zero(t, set.Len())
	assert.False(t, set.Contains(day(2025, 1, 1)))
	assert.Empty(t, set.Days())

	var zero BlockedDateSet
	assert.False(t, zero.Contains(day(2025, 1, 1)))
	assert.False(t, zero.OverlapsRange(day(2025, 1, 1), day(2025, 1, 9)))
}

func TestCalculate_DoesNotMutateInput(t *testing.T) {
	from := day(2025, 6, 1).Add(9 * time.Hour)
	to := day(2025, 6, 3).Add(11 * time.Hour)
	bookings := []models.Booking{{ID: "b1", DateFrom: from, DateTo: to}}

	NewCalculator().Calculate(bookings)

	assert.Equal(t, from, bookings[0].DateFrom)
	assert.Equal(t, to, bookings[0].DateTo)
}

func TestCalculate_InvalidBookings(t *testing.T) {
	set := NewCalculator().Calculate([]models.Booking{
		{ID: "missing-to", DateFrom: day(2025, 1, 1)},
		{ID: "missing-from", DateTo: day(2025, 1, 1)},
		{ID: "too-long", DateFrom: day(2000, 1, 1), DateTo: day(2030, 1, 1)},
		{ID: "ok", DateFrom: day(2025, 2, 1), DateTo: day(2025, 2, 1)},
	})

	assert.Equal(t, []string{"missing-to", "missing-from", "too-long"}, set.Invalid)
	assert.Equal(t, []string{"2025-02-01"}, set.Strings())
}

func TestCalculate_InvertedRangeIsInvalid(t *testing.T) {
	set := NewCalculator().Calculate([]models.Booking{
		{ID: "b1", DateFrom: day(2025, 3, 5), DateTo: day(2025, 3, 1)},
		{ID: "b2", DateFrom: day(2025, 3, 7), DateTo: day(2025, 3, 7)},
	})

	assert.Equal(t, []string{"2025-03-07"}, set.Strings())
	assert.Equal(t, []string{"b1"}, set.Invalid)
}

func TestCalculate_CrossesMonthAndLeapDay(t *testing.T) {
	set := NewCalculator().Calculate([]models.Booking{
		{ID: "b1", DateFrom: day(2024, 2, 28), DateTo: day(2024, 3, 1)},
	})

	assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01"}, set.Strings())
}

func TestCalculate_WithLocation(t *testing.T) {
	oslo, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)

	// 23:30 UTC on the 1st is already the 2nd in Oslo.
	from := time.Date(2025, 1, 1, 23, 30, 0, 0, time.UTC)
	to := time.Date(2025, 1, 2, 23, 30, 0, 0, time.UTC)
	bookings := []models.Booking{{ID: "b1", DateFrom: from, DateTo: to}}

	utcSet := NewCalculator().Calculate(bookings)
	osloSet := NewCalculator(WithLocation(oslo)).Calculate(bookings)

	assert.Equal(t, []string{"2025-01-01", "2025-01-02"}, utcSet.Strings())
	assert.Equal(t, []string{"2025-01-02", "2025-01-03"}, osloSet.Strings())
	assert.Equal(t, oslo, NewCalculator(WithLocation(oslo)).Location())
	assert.Equal(t, time.UTC, NewCalculator(WithLocation(nil)).Location())
}

func TestBlockedDateSet_OverlapsRange(t *testing.T) {
	set := NewCalculator().Calculate([]models.Booking{
		{ID: "b1", DateFrom: day(2025, 4, 10), DateTo: day(2025, 4, 12)},
	})

	tests := []struct {
		name     string
		from, to time.Time
		want     bool
	}{
		{"before", day(2025, 4, 1), day(2025, 4, 9), false},
		{"after", day(2025, 4, 13), day(2025, 4, 20), false},
		{"ends on first blocked day", day(2025, 4, 5), day(2025, 4, 10), true},
		{"starts on last blocked day", day(2025, 4, 12), day(2025, 4, 14), true},
		{"spans whole booking", day(2025, 4, 1), day(2025, 4, 30), true},
		{"inside", day(2025, 4, 11), day(2025, 4, 11), true},
		{"reversed arguments", day(2025, 4, 14), day(2025, 4, 5), true},
		{"zero from", time.Time{}, day(2025, 4, 11), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, set.OverlapsRange(tt.from, tt.to))
		})
	}
}

func TestExpand(t *testing.T) {
	calc := NewCalculator()

	days := calc.Expand(models.Booking{DateFrom: day(2025, 12, 30), DateTo: day(2026, 1, 1)})
	require.Len(t, days, 3)
	assert.Equal(t, day(2026, 1, 1), days[2])

	assert.Nil(t, calc.Expand(models.Booking{}))
	assert.Nil(t, calc.Expand(models.Booking{DateFrom: day(2025, 1, 2), DateTo: day(2025, 1, 1)}))
}
