package booking

import (
	"context"

	"barberly/models"
)

// CreateRequest carries a validated slot claim into the engine.
type CreateRequest struct {
	TenantID  string
	BarberID  string
	ServiceID string
	Client    models.ClientInfo
	Date      string // "YYYY-MM-DD"
	StartTime string // "HH:MM"
}

// Engine owns reservation creation and the reservation state machine. No
// in-process lock guards creation; the storage layer's partial unique key is
// the sole correctness mechanism under concurrent writers.
type Engine interface {
	CreateReservation(ctx context.Context, req CreateRequest) (*models.Reservation, error)
	CancelReservation(ctx context.Context, id string) (*models.Reservation, error)
	CompleteReservation(ctx context.Context, id string) (*models.Reservation, error)
}
