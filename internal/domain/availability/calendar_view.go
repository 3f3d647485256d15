package availability

import (
	"time"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
)

// BuildDayStatuses folds blocks and overrides into the per-date view for
// [dr.CheckIn, dr.CheckOut). A day is available when no block covers it.
func BuildDayStatuses(listing *listings.Listing, dr daterange.DateRange, blocks []Block, overrides map[string]PriceOverride) []DayStatus {
	days := dr.Days()
	statuses := make([]DayStatus, 0, len(days))
	for _, day := range days {
		statuses = append(statuses, DayStatus{
			Date:      day,
			Available: !dayBlocked(day, blocks),
			Price:     priceFor(listing, day, overrides),
			MinNights: listing.MinNights,
		})
	}
	return statuses
}

func dayBlocked(day time.Time, blocks []Block) bool {
	for _, b := range blocks {
		if b.Range.Contains(day) {
			return true
		}
	}
	return false
}

func priceFor(listing *listings.Listing, day time.Time, overrides map[string]PriceOverride) int64 {
	if o, ok := overrides[day.Format(OverrideDateLayout)]; ok {
		return o.NightlyCents
	}
	return listing.BasePriceCents
}
