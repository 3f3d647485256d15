package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/listings"
	domainpricing "staybook/internal/domain/pricing"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/fault"
	"staybook/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fault.New(fault.KindNotFound, "booking %s not found", id)
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fault.Wrap(fault.KindConflict, ErrConcurrentUpdate, "booking %s was modified concurrently", b.ID)
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return fault.Wrap(fault.KindConflict, ErrConcurrentUpdate, "booking %s was modified concurrently", b.ID)
	}
	b.Version = doc.Version
	b.ClearEvents()
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"guest_id": guestID})
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID listings.ListingID) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"listing_id": string(listingID)})
}

func (r *BookingRepository) list(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

type bookingDocument struct {
	ID            string        `bson:"_id"`
	ListingID     string        `bson:"listing_id"`
	GuestID       string        `bson:"guest_id"`
	HostID        string        `bson:"host_id"`
	Range         rangeDocument `bson:"range"`
	Guests        int           `bson:"guests"`
	Price         priceDocument `bson:"price"`
	State         string        `bson:"state"`
	Policy        string        `bson:"policy"`
	PaymentIntent string        `bson:"payment_intent"`
	Payout        string        `bson:"payout"`
	CreatedAt     int64         `bson:"created_at"`
	UpdatedAt     int64         `bson:"updated_at"`
	Version       int64         `bson:"version"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

type priceDocument struct {
	Nights      int    `bson:"nights"`
	Subtotal    int64  `bson:"subtotal"`
	CleaningFee int64  `bson:"cleaning_fee"`
	ServiceFee  int64  `bson:"service_fee"`
	Taxes       int64  `bson:"taxes"`
	Total       int64  `bson:"total"`
	Currency    string `bson:"currency"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:            string(b.ID),
		ListingID:     string(b.ListingID),
		GuestID:       b.GuestID,
		HostID:        b.HostID,
		Range:         rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Guests:        b.Guests,
		Price:         newPriceDocument(b.Price),
		State:         string(b.State),
		Policy:        string(b.Policy),
		PaymentIntent: b.PaymentIntent,
		Payout:        string(b.Payout),
		CreatedAt:     b.CreatedAt.UnixMilli(),
		UpdatedAt:     b.UpdatedAt.UnixMilli(),
		Version:       b.Version,
	}
}

func newPriceDocument(p domainpricing.PriceBreakdown) priceDocument {
	return priceDocument{
		Nights:      p.Nights,
		Subtotal:    p.Subtotal.Amount,
		CleaningFee: p.CleaningFee.Amount,
		ServiceFee:  p.ServiceFee.Amount,
		Taxes:       p.Taxes.Amount,
		Total:       p.Total.Amount,
		Currency:    p.Total.Currency,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:            domainbooking.BookingID(d.ID),
		ListingID:     listings.ListingID(d.ListingID),
		GuestID:       d.GuestID,
		HostID:        d.HostID,
		Range:         domainrange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)},
		Guests:        d.Guests,
		Price:         d.Price.toBreakdown(),
		State:         domainbooking.BookingState(d.State),
		Policy:        domainbooking.Policy(d.Policy),
		PaymentIntent: d.PaymentIntent,
		Payout:        domainbooking.PayoutStatus(d.Payout),
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
		Version:       d.Version,
	}
}

func (d priceDocument) toBreakdown() domainpricing.PriceBreakdown {
	cur := d.Currency
	return domainpricing.PriceBreakdown{
		Nights:      d.Nights,
		Subtotal:    money.Money{Amount: d.Subtotal, Currency: cur},
		CleaningFee: money.Money{Amount: d.CleaningFee, Currency: cur},
		ServiceFee:  money.Money{Amount: d.ServiceFee, Currency: cur},
		Taxes:       money.Money{Amount: d.Taxes, Currency: cur},
		Total:       money.Money{Amount: d.Total, Currency: cur},
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
