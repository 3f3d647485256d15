package availability

import (
	"time"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/fault"
)

type BlockID string

// BlockReason records why a range is unavailable.
type BlockReason string

const (
	ReasonHostBlocked BlockReason = "host_blocked"
	ReasonICalBlocked BlockReason = "ical_blocked"
	ReasonBooking     BlockReason = "booking"
)

// BlockSource records which system wrote the block.
type BlockSource string

const (
	SourceInternal BlockSource = "internal"
	SourceICal     BlockSource = "ical"
)

// Block removes availability for a half-open date range on one listing.
// Blocks with ReasonBooking are owned by the booking engine and may only be
// created or removed through booking transitions.
type Block struct {
	ID        BlockID
	ListingID listings.ListingID
	Range     daterange.DateRange
	Reason    BlockReason
	Source    BlockSource
	SourceID  string
	CreatedAt time.Time
}

// NewBlock validates and constructs a block.
func NewBlock(id BlockID, listingID listings.ListingID, dr daterange.DateRange, reason BlockReason, source BlockSource, sourceID string, now time.Time) (Block, error) {
	if id == "" {
		return Block{}, fault.New(fault.KindValidation, "availability: block id is required")
	}
	if listingID == "" {
		return Block{}, fault.New(fault.KindValidation, "availability: listing id is required")
	}
	if dr.IsZero() || !dr.CheckOut.After(dr.CheckIn) {
		return Block{}, fault.New(fault.KindValidation, "availability: block range is invalid")
	}
	switch reason {
	case ReasonHostBlocked, ReasonICalBlocked, ReasonBooking:
	default:
		return Block{}, fault.New(fault.KindValidation, "availability: unknown block reason %q", reason)
	}
	switch source {
	case SourceInternal, SourceICal:
	default:
		return Block{}, fault.New(fault.KindValidation, "availability: unknown block source %q", source)
	}
	return Block{
		ID:        id,
		ListingID: listingID,
		Range:     dr,
		Reason:    reason,
		Source:    source,
		SourceID:  sourceID,
		CreatedAt: now.UTC(),
	}, nil
}

// PriceOverride pins the nightly price for a single date. At most one override
// exists per (listing, date).
type PriceOverride struct {
	ListingID    listings.ListingID
	Date         time.Time
	NightlyCents int64
	Reason       string
}

// DayStatus is the per-date calendar view exposed to callers.
type DayStatus struct {
	Date      time.Time
	Available bool
	Price     int64
	MinNights int
}
