package memory

import (
	"context"
	"sort"
	"sync"

	domainavailability "staybook/internal/domain/availability"
	domainlistings "staybook/internal/domain/listings"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/fault"
)

// AvailabilityRepository keeps blocks and price overrides in memory. All
// mutations run under one mutex, so AddBlock's overlap re-check and insert are
// atomic: the write is the linearization point for check-then-reserve.
type AvailabilityRepository struct {
	mu        sync.RWMutex
	blocks    map[domainlistings.ListingID]map[domainavailability.BlockID]domainavailability.Block
	overrides map[domainlistings.ListingID]map[string]domainavailability.PriceOverride
}

func NewAvailabilityRepository() *AvailabilityRepository {
	return &AvailabilityRepository{
		blocks:    make(map[domainlistings.ListingID]map[domainavailability.BlockID]domainavailability.Block),
		overrides: make(map[domainlistings.ListingID]map[string]domainavailability.PriceOverride),
	}
}

func (r *AvailabilityRepository) Blocks(ctx context.Context, listingID domainlistings.ListingID) ([]domainavailability.Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domainavailability.Block, 0, len(r.blocks[listingID]))
	for _, b := range r.blocks[listingID] {
		out = append(out, b)
	}
	sortBlocks(out)
	return out, nil
}

func (r *AvailabilityRepository) BlocksInRange(ctx context.Context, listingID domainlistings.ListingID, dr domainrange.DateRange) ([]domainavailability.Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domainavailability.Block
	for _, b := range r.blocks[listingID] {
		if b.Range.Overlaps(dr) {
			out = append(out, b)
		}
	}
	sortBlocks(out)
	return out, nil
}

func (r *AvailabilityRepository) IsRangeAvailable(ctx context.Context, listingID domainlistings.ListingID, dr domainrange.DateRange) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.overlapsLocked(listingID, dr, nil), nil
}

func (r *AvailabilityRepository) AddBlock(ctx context.Context, block domainavailability.Block) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byID := r.blocks[block.ListingID]
	if byID == nil {
		byID = make(map[domainavailability.BlockID]domainavailability.Block)
		r.blocks[block.ListingID] = byID
	}
	if _, exists := byID[block.ID]; exists {
		return fault.New(fault.KindConflict, "block %s already exists", block.ID)
	}
	if block.Reason == domainavailability.ReasonBooking {
		// A booking block tolerates no overlap at all.
		if r.overlapsLocked(block.ListingID, block.Range, nil) {
			return fault.New(fault.KindConflict, "the requested dates are not available")
		}
	} else {
		// Host and imported blocks must not cover an active reservation.
		only := domainavailability.ReasonBooking
		if r.overlapsLocked(block.ListingID, block.Range, &only) {
			return fault.New(fault.KindConflict, "the range overlaps an active reservation")
		}
	}
	byID[block.ID] = block
	return nil
}

func (r *AvailabilityRepository) RemoveBlock(ctx context.Context, listingID domainlistings.ListingID, blockID domainavailability.BlockID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	block, ok := r.blocks[listingID][blockID]
	if !ok {
		return fault.New(fault.KindNotFound, "block %s not found", blockID)
	}
	if block.Reason == domainavailability.ReasonBooking {
		return fault.New(fault.KindForbidden, "booking blocks are released through booking cancellation")
	}
	delete(r.blocks[listingID], blockID)
	return nil
}

func (r *AvailabilityRepository) RemoveBlocksBySource(ctx context.Context, listingID domainlistings.ListingID, source domainavailability.BlockSource, sourceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range r.blocks[listingID] {
		if b.Source == source && b.SourceID == sourceID {
			delete(r.blocks[listingID], id)
		}
	}
	return nil
}

func (r *AvailabilityRepository) ReplaceSourceBlocks(ctx context.Context, listingID domainlistings.ListingID, source domainavailability.BlockSource, sourceID string, blocks []domainavailability.Block) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range blocks {
		if b.ListingID != listingID || b.Source != source || b.SourceID != sourceID {
			return fault.New(fault.KindValidation, "replacement block %s outside the replace scope", b.ID)
		}
		if b.Reason == domainavailability.ReasonBooking {
			return fault.New(fault.KindForbidden, "sync may not write booking blocks")
		}
	}
	byID := r.blocks[listingID]
	if byID == nil {
		byID = make(map[domainavailability.BlockID]domainavailability.Block)
		r.blocks[listingID] = byID
	}
	// Delete-then-recreate under one lock: readers never observe the window
	// between the two halves.
	for id, b := range byID {
		if b.Source == source && b.SourceID == sourceID {
			delete(byID, id)
		}
	}
	for _, b := range blocks {
		byID[b.ID] = b
	}
	return nil
}

func (r *AvailabilityRepository) OverridesInRange(ctx context.Context, listingID domainlistings.ListingID, dr domainrange.DateRange) (map[string]domainavailability.PriceOverride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]domainavailability.PriceOverride)
	for key, o := range r.overrides[listingID] {
		if dr.Contains(o.Date) {
			out[key] = o
		}
	}
	return out, nil
}

func (r *AvailabilityRepository) SetOverride(ctx context.Context, override domainavailability.PriceOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byDate := r.overrides[override.ListingID]
	if byDate == nil {
		byDate = make(map[string]domainavailability.PriceOverride)
		r.overrides[override.ListingID] = byDate
	}
	byDate[override.Date.Format(domainavailability.OverrideDateLayout)] = override
	return nil
}

func (r *AvailabilityRepository) RemoveOverride(ctx context.Context, listingID domainlistings.ListingID, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overrides[listingID], date)
	return nil
}

// overlapsLocked reports whether any block overlaps dr, optionally filtered to
// one reason. Callers hold at least the read lock.
func (r *AvailabilityRepository) overlapsLocked(listingID domainlistings.ListingID, dr domainrange.DateRange, reason *domainavailability.BlockReason) bool {
	for _, b := range r.blocks[listingID] {
		if reason != nil && b.Reason != *reason {
			continue
		}
		if b.Range.Overlaps(dr) {
			return true
		}
	}
	return false
}

func sortBlocks(blocks []domainavailability.Block) {
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].Range.CheckIn.Equal(blocks[j].Range.CheckIn) {
			return blocks[i].ID < blocks[j].ID
		}
		return blocks[i].Range.CheckIn.Before(blocks[j].Range.CheckIn)
	})
}

var _ domainavailability.Repository = (*AvailabilityRepository)(nil)
