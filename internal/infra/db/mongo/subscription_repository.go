package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainfeeds "staycal/internal/domain/feeds"
)

type SubscriptionRepository struct {
	col *mongo.Collection
}

func NewSubscriptionRepository(db *mongo.Database) *SubscriptionRepository {
	return &SubscriptionRepository{col: db.Collection("calendar_subscriptions")}
}

func (r *SubscriptionRepository) ByID(ctx context.Context, id string) (*domainfeeds.Subscription, error) {
	var doc subscriptionDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainfeeds.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return doc.toRecord(), nil
}

func (r *SubscriptionRepository) ByProperty(ctx context.Context, propertyID string) ([]*domainfeeds.Subscription, error) {
	cursor, err := r.col.Find(ctx, bson.M{"property_id": propertyID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]*domainfeeds.Subscription, 0)
	for cursor.Next(ctx) {
		var doc subscriptionDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toRecord())
	}
	return out, cursor.Err()
}

func (r *SubscriptionRepository) Save(ctx context.Context, sub *domainfeeds.Subscription) error {
	doc := newSubscriptionDocument(sub)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

func (r *SubscriptionRepository) Delete(ctx context.Context, propertyID, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "property_id": propertyID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainfeeds.ErrSubscriptionNotFound
	}
	return nil
}

func (r *SubscriptionRepository) PropertiesWithEnabled(ctx context.Context) ([]string, error) {
	raw, err := r.col.Distinct(ctx, "property_id", bson.M{"is_enabled": true})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type subscriptionDocument struct {
	ID            string `bson:"_id"`
	PropertyID    string `bson:"property_id"`
	Name          string `bson:"calendar_name"`
	FeedURL       string `bson:"feed_url"`
	Enabled       bool   `bson:"is_enabled"`
	LastSyncAt    int64  `bson:"last_sync_at,omitempty"`
	LastSyncError string `bson:"last_sync_error,omitempty"`
	TotalEvents   int    `bson:"total_events"`
	CreatedAt     int64  `bson:"created_at"`
}

func newSubscriptionDocument(sub *domainfeeds.Subscription) subscriptionDocument {
	doc := subscriptionDocument{
		ID:            sub.ID,
		PropertyID:    sub.PropertyID,
		Name:          sub.Name,
		FeedURL:       sub.FeedURL,
		Enabled:       sub.Enabled,
		LastSyncError: sub.LastSyncError,
		TotalEvents:   sub.TotalEvents,
		CreatedAt:     sub.CreatedAt.UnixMilli(),
	}
	if !sub.LastSyncAt.IsZero() {
		doc.LastSyncAt = sub.LastSyncAt.UnixMilli()
	}
	return doc
}

func (d subscriptionDocument) toRecord() *domainfeeds.Subscription {
	sub := &domainfeeds.Subscription{
		ID:            d.ID,
		PropertyID:    d.PropertyID,
		Name:          d.Name,
		FeedURL:       d.FeedURL,
		Enabled:       d.Enabled,
		LastSyncError: d.LastSyncError,
		TotalEvents:   d.TotalEvents,
		CreatedAt:     timestampToTime(d.CreatedAt),
	}
	if d.LastSyncAt != 0 {
		sub.LastSyncAt = timestampToTime(d.LastSyncAt)
	}
	return sub
}
