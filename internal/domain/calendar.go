package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidMonth is returned when a month falls outside 1..12.
var ErrInvalidMonth = errors.New("month must be between 1 and 12")

// IsLeapYear applies the Gregorian rule.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days of a 1-indexed month.
func DaysInMonth(year, month int) (int, error) {
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidMonth, month)
	}

	switch time.Month(month) {
	case time.February:
		if IsLeapYear(year) {
			return 29, nil
		}
		return 28, nil
	case time.April, time.June, time.September, time.November:
		return 30, nil
	default:
		return 31, nil
	}
}

// MonthBounds returns the first and last instant (inclusive, millisecond
// precision) of a month in UTC.
func MonthBounds(year, month int) (time.Time, time.Time, error) {
	days, err := DaysInMonth(year, month)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.Month(month), days, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	return start, end, nil
}

// EventsInRange keeps pins whose StartDate lies in [start, end], ordered by
// StartDate. The sort is stable: equal start dates keep their input order.
func EventsInRange(pins []Pin, start, end time.Time) []Pin {
	out := make([]Pin, 0, len(pins))
	for _, p := range pins {
		if p.StartDate == nil {
			continue
		}
		if p.StartDate.Before(start) || p.StartDate.After(end) {
			continue
		}
		out = append(out, p)
	}

	sortByStart(out)
	return out
}

// BucketByDay groups pins by the UTC calendar day of their StartDate.
// Pins starting outside the given month are ignored.
func BucketByDay(pins []Pin, year, month int) map[int][]Pin {
	return BucketByDayIn(pins, year, month, time.UTC)
}

// BucketByDayIn is BucketByDay using the calendar of loc.
func BucketByDayIn(pins []Pin, year, month int, loc *time.Location) map[int][]Pin {
	if loc == nil {
		loc = time.UTC
	}

	sorted := make([]Pin, 0, len(pins))
	for _, p := range pins {
		if p.StartDate != nil {
			sorted = append(sorted, p)
		}
	}
	sortByStart(sorted)

	buckets := make(map[int][]Pin)
	for _, p := range sorted {
		y, m, d := p.StartDate.In(loc).Date()
		if y != year || int(m) != month {
			continue
		}
		buckets[d] = append(buckets[d], p)
	}
	return buckets
}

func sortByStart(pins []Pin) {
	sort.SliceStable(pins, func(i, j int) bool {
		return pins[i].StartDate.Before(*pins[j].StartDate)
	})
}
