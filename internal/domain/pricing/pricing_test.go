package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/fault"
)

func testListing(t *testing.T) *listings.Listing {
	t.Helper()
	l, err := listings.NewListing(listings.CreateListingParams{
		ID:                 "lst-1",
		Host:               "host-1",
		Title:              "Cabin by the lake",
		BasePriceCents:     15000,
		CleaningFeeCents:   5000,
		Currency:           "USD",
		MinNights:          1,
		GuestsLimit:        4,
		CancellationPolicy: "MODERATE",
		Now:                time.Now(),
	})
	require.NoError(t, err)
	return l
}

func stay(t *testing.T, inDay, outDay int) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(
		time.Date(2026, 7, inDay, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, outDay, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return dr
}

func TestQuote_ThreeNightBreakdown(t *testing.T) {
	calc := Calculator{Policy: DefaultFeePolicy()}

	got, err := calc.Quote(testListing(t), stay(t, 10, 13), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, got.Nights)
	assert.Equal(t, int64(45000), got.Subtotal.Amount)
	assert.Equal(t, int64(5000), got.CleaningFee.Amount)
	assert.Equal(t, int64(5400), got.ServiceFee.Amount)
	assert.Equal(t, int64(3600), got.Taxes.Amount)
	assert.Equal(t, int64(59000), got.Total.Amount)
	assert.Equal(t, "USD", got.Total.Currency)
}

func TestQuote_TotalIsSumOfComponents(t *testing.T) {
	calc := Calculator{Policy: FeePolicy{ServiceFeeBps: 700, TaxBps: 1300}}

	got, err := calc.Quote(testListing(t), stay(t, 1, 8), nil)
	require.NoError(t, err)

	sum := got.Subtotal.Amount + got.CleaningFee.Amount + got.ServiceFee.Amount + got.Taxes.Amount
	assert.Equal(t, sum, got.Total.Amount)
}

func TestQuote_AppliesPerDateOverrides(t *testing.T) {
	calc := Calculator{Policy: DefaultFeePolicy()}
	overrides := map[string]availability.PriceOverride{
		"2026-07-11": {ListingID: "lst-1", Date: time.Date(2026, 7, 11, 0, 0, 0, 0, time.UTC), NightlyCents: 20000},
	}

	got, err := calc.Quote(testListing(t), stay(t, 10, 13), overrides)
	require.NoError(t, err)

	// 15000 + 20000 + 15000
	assert.Equal(t, int64(50000), got.Subtotal.Amount)
}

func TestQuote_RejectsNilListingAndNegativeOverride(t *testing.T) {
	calc := Calculator{Policy: DefaultFeePolicy()}

	_, err := calc.Quote(nil, stay(t, 10, 13), nil)
	assert.True(t, fault.IsKind(err, fault.KindValidation))

	overrides := map[string]availability.PriceOverride{
		"2026-07-10": {NightlyCents: -1},
	}
	_, err = calc.Quote(testListing(t), stay(t, 10, 13), overrides)
	assert.True(t, fault.IsKind(err, fault.KindValidation))
}
