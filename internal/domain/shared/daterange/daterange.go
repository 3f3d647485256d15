package daterange

import (
	"errors"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: check-out must be after check-in")
)

// DateRange is a half-open interval [CheckIn, CheckOut) of whole days in UTC.
// Adjacent stays share a boundary day without overlapping.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// New normalizes both bounds to UTC midnight and validates ordering.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	checkIn = Day(checkIn)
	checkOut = Day(checkOut)
	if !checkOut.After(checkIn) {
		return DateRange{}, ErrInvalidRange
	}
	return DateRange{CheckIn: checkIn, CheckOut: checkOut}, nil
}

// Day truncates a timestamp to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Nights counts the nights spanned by the range.
func (r DateRange) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn) / (24 * time.Hour))
}

// Overlaps reports whether two half-open ranges share at least one night.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(r.CheckOut)
}

// Contains reports whether the given day falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	day = Day(day)
	return !day.Before(r.CheckIn) && day.Before(r.CheckOut)
}

// Days enumerates every night of the range in order.
func (r DateRange) Days() []time.Time {
	days := make([]time.Time, 0, r.Nights())
	for d := r.CheckIn; d.Before(r.CheckOut); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// IsZero reports whether the range is unset.
func (r DateRange) IsZero() bool {
	return r.CheckIn.IsZero() && r.CheckOut.IsZero()
}
