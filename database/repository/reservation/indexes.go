package reservationRepo

import (
	"context"
	"fmt"
	"time"

	"barberly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the reservations collection.
//
// The slot index is partial: it covers reserved and completed rows only, so a
// cancelled reservation releases its slot while a completed one keeps
// blocking it (the historical record stays authoritative for that slot).
func (r *MongoReservationRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// Unique index on reservation ID
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Partial unique slot key: one live claim per (tenant, barber, date, start).
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "barber_id", Value: 1},
				{Key: "date", Value: 1},
				{Key: "start_time", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("unique_live_slot").
				SetPartialFilterExpression(bson.M{
					"status": bson.M{"$in": bson.A{
						models.ReservationReserved,
						models.ReservationCompleted,
					}},
				}),
		},
		// Reminder scan query pattern.
		{
			Keys:    bson.D{{Key: "date", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("date_status_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create reservation indexes: %w", err)
	}
	return nil
}
