package availability

import (
	"context"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainlistings "staybook/internal/domain/listings"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/fault"
)

const (
	addBlockKey    = "availability.add_block"
	removeBlockKey = "availability.remove_block"
)

// AddBlockCommand places a host block on the listing calendar. Booking blocks
// never come through here; they are a side effect of booking transitions.
type AddBlockCommand struct {
	BlockID   string
	ListingID string
	HostID    string
	Start     time.Time
	End       time.Time
	Reason    string
}

func (c AddBlockCommand) Key() string { return addBlockKey }

func (c AddBlockCommand) Validate() error {
	if c.BlockID == "" || c.ListingID == "" || c.HostID == "" {
		return fault.New(fault.KindValidation, "block id, listing id and host id are required")
	}
	return nil
}

type AddBlockResult struct {
	BlockID string `json:"block_id"`
}

type AddBlockHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *AddBlockHandler) Handle(ctx context.Context, cmd AddBlockCommand) (*AddBlockResult, error) {
	unit, ctx, commit, cleanup, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if listing.Host != domainlistings.HostID(cmd.HostID) {
		return nil, fault.New(fault.KindForbidden, "only the listing host may block dates")
	}

	dr, err := domainrange.New(cmd.Start, cmd.End)
	if err != nil {
		return nil, fault.Wrap(fault.KindValidation, err, "invalid block range")
	}

	block, err := domainavailability.NewBlock(
		domainavailability.BlockID(cmd.BlockID),
		listing.ID,
		dr,
		domainavailability.ReasonHostBlocked,
		domainavailability.SourceInternal,
		cmd.HostID,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}
	if err := unit.Availability().AddBlock(ctx, block); err != nil {
		return nil, err
	}
	if err := commit(ctx); err != nil {
		return nil, err
	}
	return &AddBlockResult{BlockID: string(block.ID)}, nil
}

type RemoveBlockCommand struct {
	ListingID string
	BlockID   string
	HostID    string
}

func (c RemoveBlockCommand) Key() string { return removeBlockKey }

type RemoveBlockResult struct {
	Removed bool `json:"removed"`
}

type RemoveBlockHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *RemoveBlockHandler) Handle(ctx context.Context, cmd RemoveBlockCommand) (*RemoveBlockResult, error) {
	unit, ctx, commit, cleanup, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if listing.Host != domainlistings.HostID(cmd.HostID) {
		return nil, fault.New(fault.KindForbidden, "only the listing host may unblock dates")
	}

	if err := unit.Availability().RemoveBlock(ctx, listing.ID, domainavailability.BlockID(cmd.BlockID)); err != nil {
		return nil, err
	}
	if err := commit(ctx); err != nil {
		return nil, err
	}
	return &RemoveBlockResult{Removed: true}, nil
}

var _ commands.Handler[AddBlockCommand, *AddBlockResult] = (*AddBlockHandler)(nil)
var _ commands.Handler[RemoveBlockCommand, *RemoveBlockResult] = (*RemoveBlockHandler)(nil)
