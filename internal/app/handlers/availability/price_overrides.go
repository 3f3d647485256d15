package availability

import (
	"context"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/fault"
)

const (
	setOverrideKey    = "availability.set_override"
	removeOverrideKey = "availability.remove_override"
)

// SetPriceOverrideCommand pins the nightly price of a single date.
type SetPriceOverrideCommand struct {
	ListingID    string
	HostID       string
	Date         time.Time
	NightlyCents int64
	Reason       string
}

func (c SetPriceOverrideCommand) Key() string { return setOverrideKey }

type PriceOverrideResult struct {
	Date string `json:"date"`
}

type SetPriceOverrideHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SetPriceOverrideHandler) Handle(ctx context.Context, cmd SetPriceOverrideCommand) (*PriceOverrideResult, error) {
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
		return nil, fault.New(fault.KindForbidden, "only the listing host may override prices")
	}
	if cmd.NightlyCents < 0 {
		return nil, fault.New(fault.KindValidation, "nightly price cannot be negative")
	}

	day := daterange.Day(cmd.Date)
	if err := unit.Availability().SetOverride(ctx, domainavailability.PriceOverride{
		ListingID:    listing.ID,
		Date:         day,
		NightlyCents: cmd.NightlyCents,
		Reason:       cmd.Reason,
	}); err != nil {
		return nil, err
	}
	if err := commit(ctx); err != nil {
		return nil, err
	}
	return &PriceOverrideResult{Date: day.Format(domainavailability.OverrideDateLayout)}, nil
}

type RemovePriceOverrideCommand struct {
	ListingID string
	HostID    string
	Date      string
}

func (c RemovePriceOverrideCommand) Key() string { return removeOverrideKey }

type RemovePriceOverrideHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *RemovePriceOverrideHandler) Handle(ctx context.Context, cmd RemovePriceOverrideCommand) (*PriceOverrideResult, error) {
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
		return nil, fault.New(fault.KindForbidden, "only the listing host may override prices")
	}
	if _, err := time.Parse(domainavailability.OverrideDateLayout, cmd.Date); err != nil {
		return nil, fault.New(fault.KindValidation, "date must be formatted YYYY-MM-DD")
	}

	if err := unit.Availability().RemoveOverride(ctx, listing.ID, cmd.Date); err != nil {
		return nil, err
	}
	if err := commit(ctx); err != nil {
		return nil, err
	}
	return &PriceOverrideResult{Date: cmd.Date}, nil
}

var _ commands.Handler[SetPriceOverrideCommand, *PriceOverrideResult] = (*SetPriceOverrideHandler)(nil)
var _ commands.Handler[RemovePriceOverrideCommand, *PriceOverrideResult] = (*RemovePriceOverrideHandler)(nil)
