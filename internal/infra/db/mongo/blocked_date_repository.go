package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "staycal/internal/domain/availability"
)

type BlockedDateRepository struct {
	col *mongo.Collection
}

func NewBlockedDateRepository(db *mongo.Database) *BlockedDateRepository {
	return &BlockedDateRepository{col: db.Collection("blocked_dates")}
}

// EnsureIndexes creates the unique (property_id, date) index the
// upsert semantics rely on, plus the source lookup index.
func (r *BlockedDateRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "property_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "source_calendar_id", Value: 1}},
		},
	})
	return err
}

func (r *BlockedDateRepository) Upsert(ctx context.Context, b domainavailability.BlockedDate) error {
	doc := newBlockedDateDocument(b)
	filter := bson.M{"property_id": doc.PropertyID, "date": doc.Date}
	update := bson.M{"$set": doc}
	_, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *BlockedDateRepository) DeleteByDates(ctx context.Context, propertyID string, dates []time.Time) (int64, error) {
	if len(dates) == 0 {
		return 0, nil
	}
	millis := make([]int64, 0, len(dates))
	for _, d := range dates {
		millis = append(millis, d.UTC().UnixMilli())
	}
	res, err := r.col.DeleteMany(ctx, bson.M{"property_id": propertyID, "date": bson.M{"$in": millis}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *BlockedDateRepository) DeleteBySource(ctx context.Context, propertyID, sourceCalendarID string) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"property_id": propertyID, "source_calendar_id": sourceCalendarID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *BlockedDateRepository) ListActive(ctx context.Context, propertyID string, from time.Time) ([]domainavailability.BlockedDate, error) {
	filter := bson.M{"property_id": propertyID}
	if !from.IsZero() {
		filter["date"] = bson.M{"$gte": from.UTC().UnixMilli()}
	}
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []domainavailability.BlockedDate
	for cursor.Next(ctx) {
		var doc blockedDateDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toRecord())
	}
	return out, cursor.Err()
}

type blockedDateDocument struct {
	PropertyID       string `bson:"property_id"`
	Date             int64  `bson:"date"`
	Reason           string `bson:"reason,omitempty"`
	IsCheckIn        bool   `bson:"is_check_in"`
	IsCheckOut       bool   `bson:"is_check_out"`
	SourceCalendarID string `bson:"source_calendar_id,omitempty"`
	UpdatedAt        int64  `bson:"updated_at"`
}

func newBlockedDateDocument(b domainavailability.BlockedDate) blockedDateDocument {
	return blockedDateDocument{
		PropertyID:       b.PropertyID,
		Date:             b.Date.UTC().UnixMilli(),
		Reason:           b.Reason,
		IsCheckIn:        b.IsCheckIn,
		IsCheckOut:       b.IsCheckOut,
		SourceCalendarID: b.SourceCalendarID,
		UpdatedAt:        b.UpdatedAt.UnixMilli(),
	}
}

func (d blockedDateDocument) toRecord() domainavailability.BlockedDate {
	return domainavailability.BlockedDate{
		PropertyID:       d.PropertyID,
		Date:             timestampToTime(d.Date),
		Reason:           d.Reason,
		IsCheckIn:        d.IsCheckIn,
		IsCheckOut:       d.IsCheckOut,
		SourceCalendarID: d.SourceCalendarID,
		UpdatedAt:        timestampToTime(d.UpdatedAt),
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
