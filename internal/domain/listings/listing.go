package listings

import (
	"context"
	"strings"
	"time"

	"staybook/internal/domain/shared/fault"
)

type ListingID string
type HostID string

type ListingState string

const (
	ListingDraft     ListingState = "DRAFT"
	ListingActive    ListingState = "ACTIVE"
	ListingSuspended ListingState = "SUSPENDED"
)

// Listing is the read-side projection the booking core depends on. It is owned
// by the listings subsystem; this core never mutates it beyond activation state.
type Listing struct {
	ID                 ListingID
	Host               HostID
	Title              string
	BasePriceCents     int64
	CleaningFeeCents   int64
	Currency           string
	MinNights          int
	MaxNights          int
	GuestsLimit        int
	InstantBook        bool
	CancellationPolicy string
	State              ListingState
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type ListingRepository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
}

type CreateListingParams struct {
	ID                 ListingID
	Host               HostID
	Title              string
	BasePriceCents     int64
	CleaningFeeCents   int64
	Currency           string
	MinNights          int
	MaxNights          int
	GuestsLimit        int
	InstantBook        bool
	CancellationPolicy string
	Now                time.Time
}

// NewListing validates and constructs a listing snapshot. Malformed records
// are rejected here rather than propagated inward.
func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, fault.New(fault.KindValidation, "listings: id is required")
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, fault.New(fault.KindValidation, "listings: host is required")
	}
	if params.GuestsLimit < 1 {
		return nil, fault.New(fault.KindValidation, "listings: guests limit must be at least 1")
	}
	if params.MinNights < 1 {
		params.MinNights = 1
	}
	if params.MaxNights > 0 && params.MinNights > params.MaxNights {
		return nil, fault.New(fault.KindValidation, "listings: min nights must be <= max nights")
	}
	if params.BasePriceCents < 0 || params.CleaningFeeCents < 0 {
		return nil, fault.New(fault.KindValidation, "listings: rates must be non-negative")
	}
	if len(params.Currency) != 3 {
		return nil, fault.New(fault.KindValidation, "listings: currency must be a 3-letter code")
	}
	now := params.Now.UTC()
	return &Listing{
		ID:                 params.ID,
		Host:               params.Host,
		Title:              strings.TrimSpace(params.Title),
		BasePriceCents:     params.BasePriceCents,
		CleaningFeeCents:   params.CleaningFeeCents,
		Currency:           strings.ToUpper(params.Currency),
		MinNights:          params.MinNights,
		MaxNights:          params.MaxNights,
		GuestsLimit:        params.GuestsLimit,
		InstantBook:        params.InstantBook,
		CancellationPolicy: params.CancellationPolicy,
		State:              ListingActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// ValidateStay checks guests and nights against the listing constraints.
func (l *Listing) ValidateStay(nights, guests int) error {
	if guests < 1 {
		return fault.New(fault.KindValidation, "guests count must be positive")
	}
	if guests > l.GuestsLimit {
		return fault.New(fault.KindValidation, "guests exceed the listing limit of %d", l.GuestsLimit)
	}
	if nights < l.MinNights {
		return fault.New(fault.KindValidation, "stay is shorter than the %d-night minimum", l.MinNights)
	}
	if l.MaxNights > 0 && nights > l.MaxNights {
		return fault.New(fault.KindValidation, "stay is longer than the %d-night maximum", l.MaxNights)
	}
	return nil
}
