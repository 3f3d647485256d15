package booking

import (
	"time"

	"staybook/internal/domain/shared/fault"
	"staybook/internal/domain/shared/money"
)

// Policy names a cancellation refund schedule. The set is closed; listings
// reference one by name.
type Policy string

const (
	PolicyFlexible Policy = "FLEXIBLE"
	PolicyModerate Policy = "MODERATE"
	PolicyStrict   Policy = "STRICT"
)

// refundTier maps a minimum lead time to a refund fraction in basis points.
// Tiers are ordered by descending lead time; the first matching tier wins,
// which keeps the schedule monotonic in lead time.
type refundTier struct {
	minLeadDays int
	refundBps   int64
}

var policyTiers = map[Policy][]refundTier{
	PolicyFlexible: {
		{minLeadDays: 1, refundBps: 10000},
	},
	PolicyModerate: {
		{minLeadDays: 5, refundBps: 10000},
		{minLeadDays: 1, refundBps: 5000},
	},
	PolicyStrict: {
		{minLeadDays: 14, refundBps: 10000},
		{minLeadDays: 7, refundBps: 5000},
	},
}

func (p Policy) tiers() ([]refundTier, error) {
	tiers, ok := policyTiers[p]
	if !ok {
		return nil, fault.New(fault.KindValidation, "booking: unknown cancellation policy %q", p)
	}
	return tiers, nil
}

// CalculateRefund resolves the refund owed when canceling daysUntilCheckIn
// days ahead. Pure function; more lead time never yields a smaller refund.
func CalculateRefund(total money.Money, daysUntilCheckIn int, policy Policy) (money.Money, error) {
	tiers, err := policy.tiers()
	if err != nil {
		return money.Money{}, err
	}
	for _, tier := range tiers {
		if daysUntilCheckIn >= tier.minLeadDays {
			return total.PercentBasisPoints(tier.refundBps), nil
		}
	}
	return money.Money{Amount: 0, Currency: total.Currency}, nil
}

// LeadDays counts whole UTC days between now and check-in, never negative.
func LeadDays(now, checkIn time.Time) int {
	days := int(checkIn.Sub(now.UTC()).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
