package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/fault"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("listings")}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fault.New(fault.KindNotFound, "listing %s not found", id)
		}
		return nil, err
	}
	return doc.toListing(), nil
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	doc := newListingDocument(l)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

type listingDocument struct {
	ID                 string `bson:"_id"`
	Host               string `bson:"host"`
	Title              string `bson:"title"`
	BasePriceCents     int64  `bson:"base_price_cents"`
	CleaningFeeCents   int64  `bson:"cleaning_fee_cents"`
	Currency           string `bson:"currency"`
	MinNights          int    `bson:"min_nights"`
	MaxNights          int    `bson:"max_nights"`
	GuestsLimit        int    `bson:"guests_limit"`
	InstantBook        bool   `bson:"instant_book"`
	CancellationPolicy string `bson:"cancellation_policy"`
	State              string `bson:"state"`
	CreatedAt          int64  `bson:"created_at"`
	UpdatedAt          int64  `bson:"updated_at"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:                 string(l.ID),
		Host:               string(l.Host),
		Title:              l.Title,
		BasePriceCents:     l.BasePriceCents,
		CleaningFeeCents:   l.CleaningFeeCents,
		Currency:           l.Currency,
		MinNights:          l.MinNights,
		MaxNights:          l.MaxNights,
		GuestsLimit:        l.GuestsLimit,
		InstantBook:        l.InstantBook,
		CancellationPolicy: l.CancellationPolicy,
		State:              string(l.State),
		CreatedAt:          l.CreatedAt.UnixMilli(),
		UpdatedAt:          l.UpdatedAt.UnixMilli(),
	}
}

func (d listingDocument) toListing() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:                 domainlistings.ListingID(d.ID),
		Host:               domainlistings.HostID(d.Host),
		Title:              d.Title,
		BasePriceCents:     d.BasePriceCents,
		CleaningFeeCents:   d.CleaningFeeCents,
		Currency:           d.Currency,
		MinNights:          d.MinNights,
		MaxNights:          d.MaxNights,
		GuestsLimit:        d.GuestsLimit,
		InstantBook:        d.InstantBook,
		CancellationPolicy: d.CancellationPolicy,
		State:              domainlistings.ListingState(d.State),
		CreatedAt:          timestampToTime(d.CreatedAt),
		UpdatedAt:          timestampToTime(d.UpdatedAt),
	}
}

var _ domainlistings.ListingRepository = (*ListingRepository)(nil)
