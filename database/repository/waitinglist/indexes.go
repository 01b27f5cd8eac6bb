package waitinglistRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the waiting_list collection.
func (r *MongoWaitingListRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Token lookups on conversion; sparse since only notified entries carry one.
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("unique_token"),
		},
		// Match query pattern: tenant + service + status, FIFO by created_at.
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "service_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("tenant_service_status_created_idx"),
		},
		// Expiry sweep pattern.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "token_expires_at", Value: 1}},
			Options: options.Index().SetName("status_token_expiry_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create waiting list indexes: %w", err)
	}
	return nil
}
