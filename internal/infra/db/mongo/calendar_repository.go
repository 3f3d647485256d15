package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincalendar "staybook/internal/domain/calendar"
	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/fault"
)

type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection("calendars")}
}

func (r *CalendarRepository) ByID(ctx context.Context, id domaincalendar.CalendarID) (*domaincalendar.Calendar, error) {
	var doc calendarDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fault.New(fault.KindNotFound, "calendar %s not found", id)
		}
		return nil, err
	}
	return doc.toCalendar(), nil
}

func (r *CalendarRepository) ByListing(ctx context.Context, listingID listings.ListingID) ([]*domaincalendar.Calendar, error) {
	return r.list(ctx, bson.M{"listing_id": string(listingID)})
}

func (r *CalendarRepository) InternalByListing(ctx context.Context, listingID listings.ListingID) (*domaincalendar.Calendar, error) {
	var doc calendarDocument
	filter := bson.M{"listing_id": string(listingID), "source": string(domaincalendar.SourceInternal)}
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fault.New(fault.KindNotFound, "listing %s has no export calendar", listingID)
		}
		return nil, err
	}
	return doc.toCalendar(), nil
}

func (r *CalendarRepository) ListSyncEnabled(ctx context.Context) ([]*domaincalendar.Calendar, error) {
	filter := bson.M{"source": string(domaincalendar.SourceICal), "sync_enabled": true}
	return r.list(ctx, filter)
}

func (r *CalendarRepository) Save(ctx context.Context, cal *domaincalendar.Calendar) error {
	doc := newCalendarDocument(cal)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

func (r *CalendarRepository) list(ctx context.Context, filter bson.M) ([]*domaincalendar.Calendar, error) {
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domaincalendar.Calendar
	for cur.Next(ctx) {
		var doc calendarDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toCalendar())
	}
	return out, cur.Err()
}

type calendarDocument struct {
	ID          string `bson:"_id"`
	ListingID   string `bson:"listing_id"`
	Source      string `bson:"source"`
	ICalURL     string `bson:"ical_url"`
	ExportToken string `bson:"export_token"`
	SyncEnabled bool   `bson:"sync_enabled"`
	LastSyncAt  int64  `bson:"last_sync_at"`
	CreatedAt   int64  `bson:"created_at"`
	UpdatedAt   int64  `bson:"updated_at"`
}

func newCalendarDocument(c *domaincalendar.Calendar) calendarDocument {
	return calendarDocument{
		ID:          string(c.ID),
		ListingID:   string(c.ListingID),
		Source:      string(c.Source),
		ICalURL:     c.ICalURL,
		ExportToken: c.ExportToken,
		SyncEnabled: c.SyncEnabled,
		LastSyncAt:  c.LastSyncAt.UnixMilli(),
		CreatedAt:   c.CreatedAt.UnixMilli(),
		UpdatedAt:   c.UpdatedAt.UnixMilli(),
	}
}

func (d calendarDocument) toCalendar() *domaincalendar.Calendar {
	return &domaincalendar.Calendar{
		ID:          domaincalendar.CalendarID(d.ID),
		ListingID:   listings.ListingID(d.ListingID),
		Source:      domaincalendar.Source(d.Source),
		ICalURL:     d.ICalURL,
		ExportToken: d.ExportToken,
		SyncEnabled: d.SyncEnabled,
		LastSyncAt:  timestampToTime(d.LastSyncAt),
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
	}
}

var _ domaincalendar.Repository = (*CalendarRepository)(nil)
