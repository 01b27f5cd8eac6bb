package deliveryRepo

import (
	"context"
	"fmt"
	"time"

	"barberly/database"
	"barberly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDeliveryRepo is the MongoDB-backed delivery log.
type MongoDeliveryRepo struct {
	coll *mongo.Collection
}

// NewMongoDeliveryRepo returns a repository over the notification_deliveries collection.
func NewMongoDeliveryRepo() *MongoDeliveryRepo {
	return &MongoDeliveryRepo{coll: database.Collection("notification_deliveries")}
}

func (r *MongoDeliveryRepo) Append(ctx context.Context, rec *models.DeliveryRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to append delivery record: %w", err)
	}
	return nil
}

func (r *MongoDeliveryRepo) ListByTenant(ctx context.Context, tenantID string, limit int64) ([]models.DeliveryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if limit <= 0 || limit > 500 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, bson.M{"tenant_id": tenantID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery records: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.DeliveryRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode delivery records: %w", err)
	}
	return out, nil
}

// EnsureIndexes creates the tenant + recency index used by the list endpoint.
func (r *MongoDeliveryRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("tenant_created_idx"),
	})
	if err != nil {
		return fmt.Errorf("failed to create delivery log indexes: %w", err)
	}
	return nil
}
