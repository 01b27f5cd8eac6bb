package serviceRepo

import (
	"context"
	"errors"

	"barberly/models"
)

// ErrNotFound means no service matched the query.
var ErrNotFound = errors.New("service not found")

// Repository reads the service catalog. Catalog CRUD is owned elsewhere; the
// booking engine only needs durations for end-time computation.
type Repository interface {
	FindByID(ctx context.Context, tenantID, serviceID string) (*models.Service, error)
}
