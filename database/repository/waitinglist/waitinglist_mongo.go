package waitinglistRepo

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

// MongoWaitingListRepo is the MongoDB-backed waiting list repository.
type MongoWaitingListRepo struct {
	coll *mongo.Collection
}

// NewMongoWaitingListRepo returns a repository over the waiting_list collection.
func NewMongoWaitingListRepo() *MongoWaitingListRepo {
	return &MongoWaitingListRepo{coll: database.Collection("waiting_list")}
}

func (r *MongoWaitingListRepo) Insert(ctx context.Context, entry *models.WaitingListEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert waiting list entry: %w", err)
	}
	return nil
}

func (r *MongoWaitingListRepo) FindByID(ctx context.Context, id string) (*models.WaitingListEntry, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *MongoWaitingListRepo) FindByToken(ctx context.Context, token string) (*models.WaitingListEntry, error) {
	return r.findOne(ctx, bson.M{"token": token})
}

func (r *MongoWaitingListRepo) findOne(ctx context.Context, filter bson.M) (*models.WaitingListEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var entry models.WaitingListEntry
	err := r.coll.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find waiting list entry: %w", err)
	}
	return &entry, nil
}

func (r *MongoWaitingListRepo) CountActiveBefore(ctx context.Context, tenantID, barberID string, createdBefore time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"tenant_id":  tenantID,
		"status":     models.WaitingListActive,
		"created_at": bson.M{"$lt": createdBefore},
	}
	if barberID != "" {
		filter["barber_id"] = barberID
	}

	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count waiting list entries: %w", err)
	}
	return count, nil
}

func (r *MongoWaitingListRepo) FindBestMatch(ctx context.Context, q MatchQuery) (*models.WaitingListEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Barber-agnostic entries (empty barber_id) match any freed barber.
	filter := bson.M{
		"tenant_id":  q.TenantID,
		"service_id": q.ServiceID,
		"status":     models.WaitingListActive,
		"$and": bson.A{
			bson.M{"$or": bson.A{
				bson.M{"barber_id": q.BarberID},
				bson.M{"barber_id": ""},
				bson.M{"barber_id": bson.M{"$exists": false}},
			}},
			bson.M{"$or": bson.A{
				bson.M{"preferred_weekdays": q.Weekday},
				bson.M{"preferred_weekdays": bson.M{"$size": 0}},
				bson.M{"preferred_weekdays": bson.M{"$exists": false}},
			}},
		},
		"preferred_date":      bson.M{"$gte": q.DateFrom, "$lte": q.DateTo},
		"preferred_time_from": bson.M{"$lte": q.Time},
		"preferred_time_to":   bson.M{"$gte": q.Time},
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	var entry models.WaitingListEntry
	err := r.coll.FindOne(ctx, filter, opts).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to match waiting list entry: %w", err)
	}
	return &entry, nil
}

func (r *MongoWaitingListRepo) MarkNotified(ctx context.Context, id, token string, expiresAt time.Time, offeredBarberID, offeredDate, offeredTime string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "status": models.WaitingListActive},
		bson.M{"$set": bson.M{
			"status":            models.WaitingListNotified,
			"token":             token,
			"token_expires_at":  expiresAt,
			"offered_barber_id": offeredBarberID,
			"offered_date":      offeredDate,
			"offered_time":      offeredTime,
			"notified_at":       now,
			"updated_at":        now,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark waiting list entry notified: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoWaitingListRepo) UpdateStatus(ctx context.Context, id string, from, to models.WaitingListStatus) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to update waiting list entry %s: %w", id, err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoWaitingListRepo) ExpireNotifiedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := r.coll.UpdateMany(ctx,
		bson.M{
			"status":           models.WaitingListNotified,
			"token_expires_at": bson.M{"$lt": cutoff},
		},
		bson.M{"$set": bson.M{"status": models.WaitingListExpired, "updated_at": time.Now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire waiting list entries: %w", err)
	}
	return res.ModifiedCount, nil
}
