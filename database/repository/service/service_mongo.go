package serviceRepo

import (
	"context"
	"fmt"
	"time"

	"barberly/database"
	"barberly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoServiceRepo is the MongoDB-backed service catalog reader.
type MongoServiceRepo struct {
	coll *mongo.Collection
}

// NewMongoServiceRepo returns a repository over the services collection.
func NewMongoServiceRepo() *MongoServiceRepo {
	return &MongoServiceRepo{coll: database.Collection("services")}
}

func (r *MongoServiceRepo) FindByID(ctx context.Context, tenantID, serviceID string) (*models.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var svc models.Service
	err := r.coll.FindOne(ctx, bson.M{"id": serviceID, "tenant_id": tenantID}).Decode(&svc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find service %s: %w", serviceID, err)
	}
	return &svc, nil
}
