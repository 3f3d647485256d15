package pricing

import (
	"staybook/internal/domain/availability"
	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/fault"
	"staybook/internal/domain/shared/money"
)

// PriceBreakdown itemizes a stay. All components share one currency and are
// integer minor units; Total is always the exact sum of the components.
type PriceBreakdown struct {
	Nights      int
	Subtotal    money.Money
	CleaningFee money.Money
	ServiceFee  money.Money
	Taxes       money.Money
	Total       money.Money
}

// FeePolicy holds the deterministic fee and tax fractions applied to the
// nightly subtotal, in basis points. Values come from configuration, not
// constants baked into the calculator.
type FeePolicy struct {
	ServiceFeeBps int64
	TaxBps        int64
}

// DefaultFeePolicy mirrors the production defaults (12% service fee, 8% tax).
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{ServiceFeeBps: 1200, TaxBps: 800}
}

// Calculator quotes a stay price from the listing rates and per-date
// overrides.
type Calculator struct {
	Policy FeePolicy
}

// Quote computes the breakdown for [dr.CheckIn, dr.CheckOut). Each night is
// priced from the override for that date when present, else the base price.
func (c Calculator) Quote(listing *listings.Listing, dr daterange.DateRange, overrides map[string]availability.PriceOverride) (PriceBreakdown, error) {
	if listing == nil {
		return PriceBreakdown{}, fault.New(fault.KindValidation, "pricing: listing is required")
	}
	nights := dr.Nights()
	if nights <= 0 {
		return PriceBreakdown{}, fault.New(fault.KindValidation, "pricing: stay must cover at least one night")
	}
	currency := listing.Currency
	var subtotal int64
	for _, day := range dr.Days() {
		nightly := listing.BasePriceCents
		if o, ok := overrides[day.Format(availability.OverrideDateLayout)]; ok {
			nightly = o.NightlyCents
		}
		if nightly < 0 {
			return PriceBreakdown{}, fault.New(fault.KindValidation, "pricing: nightly price cannot be negative")
		}
		subtotal += nightly
	}

	sub := money.Money{Amount: subtotal, Currency: currency}
	cleaning := money.Money{Amount: listing.CleaningFeeCents, Currency: currency}
	serviceFee := sub.PercentBasisPoints(c.Policy.ServiceFeeBps)
	taxes := sub.PercentBasisPoints(c.Policy.TaxBps)

	total := sub
	for _, component := range []money.Money{cleaning, serviceFee, taxes} {
		sum, err := total.Add(component)
		if err != nil {
			return PriceBreakdown{}, err
		}
		total = sum
	}

	return PriceBreakdown{
		Nights:      nights,
		Subtotal:    sub,
		CleaningFee: cleaning,
		ServiceFee:  serviceFee,
		Taxes:       taxes,
		Total:       total,
	}, nil
}
