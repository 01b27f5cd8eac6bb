package reservationRepo

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

// MongoReservationRepo is the MongoDB-backed reservation repository.
type MongoReservationRepo struct {
	coll *mongo.Collection
}

// NewMongoReservationRepo returns a repository over the reservations collection.
func NewMongoReservationRepo() *MongoReservationRepo {
	return &MongoReservationRepo{coll: database.Collection("reservations")}
}

func (r *MongoReservationRepo) Insert(ctx context.Context, res *models.Reservation) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, res)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlot
		}
		return fmt.Errorf("failed to insert reservation: %w", err)
	}
	return nil
}

func (r *MongoReservationRepo) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var res models.Reservation
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&res)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation %s: %w", id, err)
	}
	return &res, nil
}

func (r *MongoReservationRepo) UpdateStatus(ctx context.Context, id string, from, to models.ReservationStatus, at time.Time) (*models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var res models.Reservation
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&res)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update reservation %s status: %w", id, err)
	}
	return &res, nil
}

func (r *MongoReservationRepo) FindReservedByDate(ctx context.Context, date string) ([]models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{
		"date":   date,
		"status": models.ReservationReserved,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations for %s: %w", date, err)
	}
	defer cursor.Close(ctx)

	var out []models.Reservation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}
	return out, nil
}

func (r *MongoReservationRepo) SetCalendarURL(ctx context.Context, id, url string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"calendar_url": url}})
	if err != nil {
		return fmt.Errorf("failed to set calendar url for %s: %w", id, err)
	}
	return nil
}
