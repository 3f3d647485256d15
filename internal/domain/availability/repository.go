package availability

import (
	"context"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
)

// Repository is the source of truth for per-date availability and price
// overrides. AddBlock is the linearization point for check-then-reserve: it
// re-verifies the no-overlap invariant at write time under the per-listing
// serialization boundary and fails with a conflict instead of double-booking.
type Repository interface {
	// Blocks returns every block currently held against the listing.
	Blocks(ctx context.Context, listingID listings.ListingID) ([]Block, error)

	// BlocksInRange returns blocks overlapping [dr.CheckIn, dr.CheckOut).
	BlocksInRange(ctx context.Context, listingID listings.ListingID, dr daterange.DateRange) ([]Block, error)

	// IsRangeAvailable reports whether no block covers any night of the range.
	IsRangeAvailable(ctx context.Context, listingID listings.ListingID, dr daterange.DateRange) (bool, error)

	// AddBlock inserts a block. It fails with a conflict when the range
	// overlaps any existing block, or when a non-booking block would cover an
	// active booking block.
	AddBlock(ctx context.Context, block Block) error

	// RemoveBlock deletes a block by id. Booking-reason blocks are refused;
	// they are removed only via RemoveBlocksBySource during booking
	// transitions.
	RemoveBlock(ctx context.Context, listingID listings.ListingID, blockID BlockID) error

	// RemoveBlocksBySource deletes all blocks tagged (source, sourceID), used
	// by booking transitions (source=internal, sourceID=bookingID).
	RemoveBlocksBySource(ctx context.Context, listingID listings.ListingID, source BlockSource, sourceID string) error

	// ReplaceSourceBlocks atomically swaps the block set owned by
	// (source, sourceID) for the given listing. The scope never includes
	// booking-reason blocks, so a calendar sync cannot destroy a reservation.
	ReplaceSourceBlocks(ctx context.Context, listingID listings.ListingID, source BlockSource, sourceID string, blocks []Block) error

	// OverridesInRange returns price overrides keyed by UTC date within the range.
	OverridesInRange(ctx context.Context, listingID listings.ListingID, dr daterange.DateRange) (map[string]PriceOverride, error)

	// SetOverride upserts the override for (listing, date).
	SetOverride(ctx context.Context, override PriceOverride) error

	// RemoveOverride deletes the override for (listing, date) if present.
	RemoveOverride(ctx context.Context, listingID listings.ListingID, date string) error
}

// OverrideDateKey formats the map key used for override lookups (YYYY-MM-DD).
const OverrideDateLayout = "2006-01-02"
