package reservationRepo

import (
	"context"
	"errors"
	"time"

	"barberly/models"
)

var (
	// ErrDuplicateSlot means the partial unique key rejected the insert: a
	// non-cancelled reservation already claims this slot.
	ErrDuplicateSlot = errors.New("slot already reserved")
	// ErrNotFound means no reservation matched the query.
	ErrNotFound = errors.New("reservation not found")
)

// Repository persists reservations. Insert relies on the storage-layer
// partial unique key over (tenant, barber, date, start) — excluding cancelled
// rows — as the sole concurrency control for slot claims.
type Repository interface {
	Insert(ctx context.Context, res *models.Reservation) error
	FindByID(ctx context.Context, id string) (*models.Reservation, error)
	// UpdateStatus transitions id from the given source status and returns the
	// updated document. ErrNotFound is returned when no document matches both
	// id and the source status, which is how concurrent double-transitions are
	// detected.
	UpdateStatus(ctx context.Context, id string, from, to models.ReservationStatus, at time.Time) (*models.Reservation, error)
	// FindReservedByDate lists reservations still in the reserved state for a
	// given date, used by the reminder scan.
	FindReservedByDate(ctx context.Context, date string) ([]models.Reservation, error)
	SetCalendarURL(ctx context.Context, id, url string) error
	EnsureIndexes() error
}
