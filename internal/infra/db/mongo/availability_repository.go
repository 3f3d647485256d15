package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "staybook/internal/domain/availability"
	"staybook/internal/domain/listings"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/fault"
)

// AvailabilityRepository persists blocks and price overrides. Callers run
// AddBlock and ReplaceSourceBlocks inside a session transaction. Snapshot
// isolation alone does not serialize two count-then-insert transactions that
// insert distinct documents, so every block write also bumps a per-listing
// document in listing_locks; of two concurrent transactions touching the same
// listing the second aborts with a write conflict, which makes the lock bump
// the linearization point for check-then-reserve.
type AvailabilityRepository struct {
	blocks    *mongo.Collection
	overrides *mongo.Collection
	locks     *mongo.Collection
}

func NewAvailabilityRepository(db *mongo.Database) *AvailabilityRepository {
	return &AvailabilityRepository{
		blocks:    db.Collection("availability_blocks"),
		overrides: db.Collection("price_overrides"),
		locks:     db.Collection("listing_locks"),
	}
}

func (r *AvailabilityRepository) Blocks(ctx context.Context, listingID listings.ListingID) ([]domainavailability.Block, error) {
	return r.findBlocks(ctx, bson.M{"listing_id": string(listingID)})
}

func (r *AvailabilityRepository) BlocksInRange(ctx context.Context, listingID listings.ListingID, dr domainrange.DateRange) ([]domainavailability.Block, error) {
	return r.findBlocks(ctx, overlapFilter(listingID, dr))
}

func (r *AvailabilityRepository) IsRangeAvailable(ctx context.Context, listingID listings.ListingID, dr domainrange.DateRange) (bool, error) {
	n, err := r.blocks.CountDocuments(ctx, overlapFilter(listingID, dr))
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func (r *AvailabilityRepository) AddBlock(ctx context.Context, block domainavailability.Block) error {
	if err := r.touchListingLock(ctx, block.ListingID); err != nil {
		return err
	}
	filter := overlapFilter(block.ListingID, block.Range)
	if block.Reason != domainavailability.ReasonBooking {
		// Host and imported blocks only conflict with active reservations.
		filter["reason"] = string(domainavailability.ReasonBooking)
	}
	n, err := r.blocks.CountDocuments(ctx, filter)
	if err != nil {
		return err
	}
	if n > 0 {
		if block.Reason == domainavailability.ReasonBooking {
			return fault.New(fault.KindConflict, "the requested dates are not available")
		}
		return fault.New(fault.KindConflict, "the range overlaps an active reservation")
	}
	if _, err := r.blocks.InsertOne(ctx, newBlockDocument(block)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fault.New(fault.KindConflict, "block %s already exists", block.ID)
		}
		return err
	}
	return nil
}

func (r *AvailabilityRepository) RemoveBlock(ctx context.Context, listingID listings.ListingID, blockID domainavailability.BlockID) error {
	var doc blockDocument
	err := r.blocks.FindOne(ctx, bson.M{"_id": string(blockID), "listing_id": string(listingID)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fault.New(fault.KindNotFound, "block %s not found", blockID)
		}
		return err
	}
	if doc.Reason == string(domainavailability.ReasonBooking) {
		return fault.New(fault.KindForbidden, "booking blocks are released through booking cancellation")
	}
	_, err = r.blocks.DeleteOne(ctx, bson.M{"_id": string(blockID)})
	return err
}

func (r *AvailabilityRepository) RemoveBlocksBySource(ctx context.Context, listingID listings.ListingID, source domainavailability.BlockSource, sourceID string) error {
	_, err := r.blocks.DeleteMany(ctx, sourceFilter(listingID, source, sourceID))
	return err
}

func (r *AvailabilityRepository) ReplaceSourceBlocks(ctx context.Context, listingID listings.ListingID, source domainavailability.BlockSource, sourceID string, blocks []domainavailability.Block) error {
	docs := make([]any, 0, len(blocks))
	for _, b := range blocks {
		if b.ListingID != listingID || b.Source != source || b.SourceID != sourceID {
			return fault.New(fault.KindValidation, "replacement block %s outside the replace scope", b.ID)
		}
		if b.Reason == domainavailability.ReasonBooking {
			return fault.New(fault.KindForbidden, "sync may not write booking blocks")
		}
		docs = append(docs, newBlockDocument(b))
	}
	if err := r.touchListingLock(ctx, listingID); err != nil {
		return err
	}
	if _, err := r.blocks.DeleteMany(ctx, sourceFilter(listingID, source, sourceID)); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	_, err := r.blocks.InsertMany(ctx, docs)
	return err
}

func (r *AvailabilityRepository) OverridesInRange(ctx context.Context, listingID listings.ListingID, dr domainrange.DateRange) (map[string]domainavailability.PriceOverride, error) {
	filter := bson.M{
		"listing_id": string(listingID),
		"date":       bson.M{"$gte": dr.CheckIn.UnixMilli(), "$lt": dr.CheckOut.UnixMilli()},
	}
	cur, err := r.overrides.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := make(map[string]domainavailability.PriceOverride)
	for cur.Next(ctx) {
		var doc overrideDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		o := doc.toOverride()
		out[o.Date.Format(domainavailability.OverrideDateLayout)] = o
	}
	return out, cur.Err()
}

func (r *AvailabilityRepository) SetOverride(ctx context.Context, override domainavailability.PriceOverride) error {
	doc := overrideDocument{
		ID:           overrideID(override.ListingID, override.Date),
		ListingID:    string(override.ListingID),
		Date:         override.Date.UnixMilli(),
		NightlyCents: override.NightlyCents,
		Reason:       override.Reason,
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.overrides.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

func (r *AvailabilityRepository) RemoveOverride(ctx context.Context, listingID listings.ListingID, date string) error {
	day, err := time.ParseInLocation(domainavailability.OverrideDateLayout, date, time.UTC)
	if err != nil {
		return fault.Wrap(fault.KindValidation, err, "override date must be YYYY-MM-DD")
	}
	_, err = r.overrides.DeleteOne(ctx, bson.M{"_id": overrideID(listingID, day)})
	return err
}

// touchListingLock increments the listing's lock document inside the caller's
// transaction. Two transactions cannot both update the same document, so the
// later one aborts with a write conflict before its overlap check can act on
// a stale snapshot.
func (r *AvailabilityRepository) touchListingLock(ctx context.Context, listingID listings.ListingID) error {
	opts := options.Update().SetUpsert(true)
	_, err := r.locks.UpdateOne(ctx, bson.M{"_id": string(listingID)}, bson.M{"$inc": bson.M{"version": 1}}, opts)
	return err
}

func (r *AvailabilityRepository) findBlocks(ctx context.Context, filter bson.M) ([]domainavailability.Block, error) {
	opts := options.Find().SetSort(bson.D{{Key: "check_in", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.blocks.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []domainavailability.Block
	for cur.Next(ctx) {
		var doc blockDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toBlock())
	}
	return out, cur.Err()
}

func overlapFilter(listingID listings.ListingID, dr domainrange.DateRange) bson.M {
	return bson.M{
		"listing_id": string(listingID),
		"check_in":   bson.M{"$lt": dr.CheckOut.UnixMilli()},
		"check_out":  bson.M{"$gt": dr.CheckIn.UnixMilli()},
	}
}

func sourceFilter(listingID listings.ListingID, source domainavailability.BlockSource, sourceID string) bson.M {
	return bson.M{
		"listing_id": string(listingID),
		"source":     string(source),
		"source_id":  sourceID,
	}
}

func overrideID(listingID listings.ListingID, day time.Time) string {
	return string(listingID) + ":" + day.UTC().Format(domainavailability.OverrideDateLayout)
}

type blockDocument struct {
	ID        string `bson:"_id"`
	ListingID string `bson:"listing_id"`
	CheckIn   int64  `bson:"check_in"`
	CheckOut  int64  `bson:"check_out"`
	Reason    string `bson:"reason"`
	Source    string `bson:"source"`
	SourceID  string `bson:"source_id"`
	CreatedAt int64  `bson:"created_at"`
}

func newBlockDocument(b domainavailability.Block) blockDocument {
	return blockDocument{
		ID:        string(b.ID),
		ListingID: string(b.ListingID),
		CheckIn:   b.Range.CheckIn.UnixMilli(),
		CheckOut:  b.Range.CheckOut.UnixMilli(),
		Reason:    string(b.Reason),
		Source:    string(b.Source),
		SourceID:  b.SourceID,
		CreatedAt: b.CreatedAt.UnixMilli(),
	}
}

func (d blockDocument) toBlock() domainavailability.Block {
	return domainavailability.Block{
		ID:        domainavailability.BlockID(d.ID),
		ListingID: listings.ListingID(d.ListingID),
		Range:     domainrange.DateRange{CheckIn: timestampToTime(d.CheckIn), CheckOut: timestampToTime(d.CheckOut)},
		Reason:    domainavailability.BlockReason(d.Reason),
		Source:    domainavailability.BlockSource(d.Source),
		SourceID:  d.SourceID,
		CreatedAt: timestampToTime(d.CreatedAt),
	}
}

type overrideDocument struct {
	ID           string `bson:"_id"`
	ListingID    string `bson:"listing_id"`
	Date         int64  `bson:"date"`
	NightlyCents int64  `bson:"nightly_cents"`
	Reason       string `bson:"reason"`
}

func (d overrideDocument) toOverride() domainavailability.PriceOverride {
	return domainavailability.PriceOverride{
		ListingID:    listings.ListingID(d.ListingID),
		Date:         timestampToTime(d.Date),
		NightlyCents: d.NightlyCents,
		Reason:       d.Reason,
	}
}

var _ domainavailability.Repository = (*AvailabilityRepository)(nil)
