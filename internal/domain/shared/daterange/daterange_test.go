package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNew_NormalizesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	in := time.Date(2026, 7, 10, 23, 15, 0, 0, loc)
	out := time.Date(2026, 7, 13, 4, 0, 0, 0, loc)

	dr, err := New(in, out)
	require.NoError(t, err)

	assert.Equal(t, date(2026, 7, 10), dr.CheckIn)
	assert.Equal(t, date(2026, 7, 12), dr.CheckOut)
	assert.Equal(t, 2, dr.Nights())
}

func TestNew_RejectsEmptyAndInverted(t *testing.T) {
	_, err := New(date(2026, 7, 10), date(2026, 7, 10))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(date(2026, 7, 12), date(2026, 7, 10))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestOverlaps_HalfOpen(t *testing.T) {
	a, err := New(date(2026, 7, 10), date(2026, 7, 13))
	require.NoError(t, err)

	backToBack, err := New(date(2026, 7, 13), date(2026, 7, 15))
	require.NoError(t, err)
	assert.False(t, a.Overlaps(backToBack), "checkout day may be another stay's check-in")
	assert.False(t, backToBack.Overlaps(a))

	sharing, err := New(date(2026, 7, 12), date(2026, 7, 14))
	require.NoError(t, err)
	assert.True(t, a.Overlaps(sharing))
	assert.True(t, sharing.Overlaps(a))

	inside, err := New(date(2026, 7, 11), date(2026, 7, 12))
	require.NoError(t, err)
	assert.True(t, a.Overlaps(inside))
}

func TestContains_ExcludesCheckoutDay(t *testing.T) {
	dr, err := New(date(2026, 7, 10), date(2026, 7, 13))
	require.NoError(t, err)

	assert.True(t, dr.Contains(date(2026, 7, 10)))
	assert.True(t, dr.Contains(date(2026, 7, 12)))
	assert.False(t, dr.Contains(date(2026, 7, 13)))
	assert.False(t, dr.Contains(date(2026, 7, 9)))
}

func TestDays_EnumeratesNights(t *testing.T) {
	dr, err := New(date(2026, 7, 10), date(2026, 7, 13))
	require.NoError(t, err)

	days := dr.Days()
	require.Len(t, days, 3)
	assert.Equal(t, date(2026, 7, 10), days[0])
	assert.Equal(t, date(2026, 7, 12), days[2])
}
