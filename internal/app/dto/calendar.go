package dto

import (
	"time"

	domainavailability "staybook/internal/domain/availability"
)

type DayStatusDTO struct {
	Date      string `json:"date"`
	Available bool   `json:"available"`
	Price     int64  `json:"price"`
	MinNights int    `json:"min_nights"`
}

type AvailabilityCalendar struct {
	ListingID string         `json:"listing_id"`
	Days      []DayStatusDTO `json:"days"`
}

func MapDayStatuses(listingID string, days []domainavailability.DayStatus) AvailabilityCalendar {
	out := AvailabilityCalendar{ListingID: listingID, Days: make([]DayStatusDTO, 0, len(days))}
	for _, d := range days {
		out.Days = append(out.Days, DayStatusDTO{
			Date:      d.Date.Format(domainavailability.OverrideDateLayout),
			Available: d.Available,
			Price:     d.Price,
			MinNights: d.MinNights,
		})
	}
	return out
}

// FeedBlock is one unavailable interval rendered into the exported feed.
type FeedBlock struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Reason string    `json:"reason"`
	UID    string    `json:"uid"`
}

// CalendarFeed is the material for an iCal export, regenerated from current
// state on every request.
type CalendarFeed struct {
	ListingID    string      `json:"listing_id"`
	ListingTitle string      `json:"listing_title"`
	Blocks       []FeedBlock `json:"blocks"`
}
