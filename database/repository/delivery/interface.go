package deliveryRepo

import (
	"context"

	"barberly/models"
)

// Repository is the append-only notification delivery log. Writes are
// best-effort: callers swallow append failures so logging never blocks the
// primary flow.
type Repository interface {
	Append(ctx context.Context, rec *models.DeliveryRecord) error
	ListByTenant(ctx context.Context, tenantID string, limit int64) ([]models.DeliveryRecord, error)
	EnsureIndexes() error
}
