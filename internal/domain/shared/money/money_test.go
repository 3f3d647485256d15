package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ValidatesCurrency(t *testing.T) {
	m, err := New(1500, "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", m.Currency)

	_, err = New(1500, "dollars")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestAdd_RejectsCurrencyMismatch(t *testing.T) {
	usd := Must(100, "USD")
	eur := Must(100, "EUR")

	_, err := usd.Add(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	sum, err := usd.Add(Must(50, "USD"))
	require.NoError(t, err)
	assert.Equal(t, int64(150), sum.Amount)
}

func TestPercentBasisPoints(t *testing.T) {
	m := Must(45000, "USD")

	assert.Equal(t, int64(5400), m.PercentBasisPoints(1200).Amount)
	assert.Equal(t, int64(3600), m.PercentBasisPoints(800).Amount)
	assert.Equal(t, int64(22500), m.PercentBasisPoints(5000).Amount)
	assert.Equal(t, int64(45000), m.PercentBasisPoints(10000).Amount)
	assert.Equal(t, int64(0), m.PercentBasisPoints(0).Amount)
	// Truncation toward zero on uneven splits.
	assert.Equal(t, int64(16), Must(333, "USD").PercentBasisPoints(500).Amount)
}
