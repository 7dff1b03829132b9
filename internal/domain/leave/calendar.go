package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	zeroDays = decimal.Zero
	oneDay   = decimal.NewFromInt(1)
	// HalfDay is the fixed day count of a half-day request. Half-day
	// requests never go through BusinessDays.
	HalfDay = decimal.New(5, -1)
)

// HolidaySet holds the active holiday dates consulted when counting
// business days. Inactive holidays are never added to the set.
type HolidaySet map[time.Time]struct{}

func NewHolidaySet(dates []time.Time) HolidaySet {
	set := make(HolidaySet, len(dates))
	for _, date := range dates {
		set[Midnight(date)] = struct{}{}
	}
	return set
}

func (h HolidaySet) Contains(day time.Time) bool {
	_, ok := h[Midnight(day)]
	return ok
}

// Midnight truncates a timestamp to the start of its day in UTC.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BusinessDays counts the working days in the inclusive range [start, end],
// skipping Saturdays, Sundays and active holidays.
//
// A same-day range always counts as one day, even on a weekend or holiday.
// That is a deliberate policy choice carried over from the original rules:
// a single-day request is charged as one day no matter where it falls.
//
// An inverted range counts as zero days.
func BusinessDays(start, end time.Time, holidays HolidaySet) decimal.Decimal {
	start = Midnight(start)
	end = Midnight(end)

	if start.After(end) {
		return zeroDays
	}
	if start.Equal(end) {
		return oneDay
	}

	count := int64(0)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if weekday := day.Weekday(); weekday == time.Saturday || weekday == time.Sunday {
			continue
		}
		if holidays.Contains(day) {
			continue
		}
		count++
	}
	return decimal.NewFromInt(count)
}
