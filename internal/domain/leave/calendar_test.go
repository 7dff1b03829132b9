package leave

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestBusinessDaysFullWeek(t *testing.T) {
	// Mon Mar 3 .. Fri Mar 7 2025, no holidays
	days := BusinessDays(date(2025, time.March, 3), date(2025, time.March, 7), nil)
	assert.True(t, days.Equal(decimal.NewFromInt(5)), "got %s", days)
}

func TestBusinessDaysSkipsWeekend(t *testing.T) {
	// Fri Mar 7 .. Mon Mar 10 spans a weekend
	days := BusinessDays(date(2025, time.March, 7), date(2025, time.March, 10), nil)
	assert.True(t, days.Equal(decimal.NewFromInt(2)), "got %s", days)
}

func TestBusinessDaysSkipsActiveHoliday(t *testing.T) {
	holidays := NewHolidaySet([]time.Time{date(2025, time.March, 5)})
	days := BusinessDays(date(2025, time.March, 3), date(2025, time.March, 7), holidays)
	assert.True(t, days.Equal(decimal.NewFromInt(4)), "got %s", days)
}

func TestBusinessDaysIgnoresInactiveHoliday(t *testing.T) {
	// inactive holidays never make it into the set, so a normal week stays 5
	days := BusinessDays(date(2025, time.March, 3), date(2025, time.March, 7), NewHolidaySet(nil))
	assert.True(t, days.Equal(decimal.NewFromInt(5)), "got %s", days)
}

func TestBusinessDaysSameDayAlwaysOne(t *testing.T) {
	// Saturday
	saturday := date(2025, time.March, 8)
	days := BusinessDays(saturday, saturday, nil)
	assert.True(t, days.Equal(decimal.NewFromInt(1)),
		"a same-day request counts as one day even on a weekend; got %s", days)

	// same day on a holiday
	holiday := date(2025, time.January, 1)
	days = BusinessDays(holiday, holiday, NewHolidaySet([]time.Time{holiday}))
	assert.True(t, days.Equal(decimal.NewFromInt(1)), "got %s", days)
}

func TestBusinessDaysInvertedRange(t *testing.T) {
	days := BusinessDays(date(2025, time.March, 10), date(2025, time.March, 3), nil)
	assert.True(t, days.IsZero(), "got %s", days)
}

func TestBusinessDaysNeverExceedsCalendarSpan(t *testing.T) {
	holidays := NewHolidaySet([]time.Time{
		date(2025, time.April, 18),
		date(2025, time.April, 21),
	})
	start := date(2025, time.April, 1)
	for span := 1; span <= 30; span++ {
		end := start.AddDate(0, 0, span)
		days := BusinessDays(start, end, holidays)
		assert.True(t, days.LessThanOrEqual(decimal.NewFromInt(int64(span+1))),
			"span %d produced %s days", span, days)
	}
}

func TestBusinessDaysNormalizesTimestamps(t *testing.T) {
	start := time.Date(2025, time.March, 3, 14, 30, 0, 0, time.UTC)
	end := time.Date(2025, time.March, 4, 9, 0, 0, 0, time.UTC)
	days := BusinessDays(start, end, nil)
	assert.True(t, days.Equal(decimal.NewFromInt(2)), "got %s", days)
}

func TestHolidaySetContains(t *testing.T) {
	set := NewHolidaySet([]time.Time{time.Date(2025, time.May, 1, 13, 45, 0, 0, time.UTC)})
	assert.True(t, set.Contains(date(2025, time.May, 1)))
	assert.False(t, set.Contains(date(2025, time.May, 2)))
}
